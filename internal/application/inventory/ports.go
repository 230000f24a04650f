package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

// Repos agrupa los repositorios del motor de inventario. Dentro de TxRunner.Run
// todos quedan atados a la misma transacción.
type Repos struct {
	Items     repository.ItemRepository
	Clinics   repository.ClinicRepository
	Batches   repository.BatchRepository
	Stock     repository.ClinicStockRepository
	Movements repository.MovementRepository
	Orders    repository.PurchaseOrderRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn devuelve error se hace Rollback.
// Las esperas de bloqueo que superan el límite configurado devuelven domain.ErrLockTimeout.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// Tipos de evento publicados después del Commit.
const (
	EventMovementRecorded = "MovementRecorded"
	EventLowStockDetected = "LowStockDetected"
)

// Event notificación de inventario hacia otros sistemas (compras, alertas).
type Event struct {
	Type         string           `json:"type"`
	ItemID       string           `json:"item_id"`
	ClinicID     string           `json:"clinic_id"`
	Movement     *entity.Movement `json:"movement,omitempty"`
	CurrentStock int              `json:"current_stock"`
	ReorderPoint int              `json:"reorder_point,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// EventPublisher puerto de salida para eventos de stock. Un fallo al publicar no revierte el movimiento.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher descarta los eventos (sin Redis configurado).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
