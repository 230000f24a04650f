package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch representa un lote físico de un ítem con su vencimiento.
// Invariante: 0 <= CurrentStock <= InitialStock.
type Batch struct {
	ID              string
	ItemID          string
	BatchNumber     string     // único por ítem
	ExpirationDate  *time.Time // nil = sin vencimiento (ordena al final en FEFO)
	InitialStock    int
	CurrentStock    int
	PurchaseCost    decimal.Decimal
	IsExpired       bool
	PurchaseOrderID string // orden de compra que lo originó, vacío si fue manual
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOpen indica si el lote puede participar en una selección FEFO.
func (b *Batch) IsOpen() bool {
	return !b.IsExpired && b.CurrentStock > 0
}

// ExpiresBefore indica si el lote vence antes de asOf.
func (b *Batch) ExpiresBefore(asOf time.Time) bool {
	return b.ExpirationDate != nil && b.ExpirationDate.Before(asOf)
}
