package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
)

var _ inventory.EventPublisher = (*RedisPublisher)(nil)

// DefaultEventList lista por defecto donde se encolan los eventos de inventario.
const DefaultEventList = "events:inventory"

// RedisPublisher encola eventos de stock en una lista Redis (LPUSH). Los consumidores
// los leen con BRPOP en orden de llegada.
type RedisPublisher struct {
	rdb  *redis.Client
	list string
}

// NewRedisPublisher construye el publicador. list vacío usa DefaultEventList.
func NewRedisPublisher(rdb *redis.Client, list string) *RedisPublisher {
	if list == "" {
		list = DefaultEventList
	}
	return &RedisPublisher{rdb: rdb, list: list}
}

// envelope formato en la lista: tipo + payload, igual para todos los eventos.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type movementPayload struct {
	ID            string    `json:"id"`
	Number        int64     `json:"number"`
	CorrelationID string    `json:"correlation_id"`
	Type          string    `json:"type"`
	Direction     string    `json:"direction"`
	Quantity      int       `json:"quantity"`
	UnitCost      string    `json:"unit_cost"`
	TotalCost     string    `json:"total_cost"`
	BatchID       string    `json:"batch_id,omitempty"`
	MovementDate  time.Time `json:"movement_date"`
}

type eventPayload struct {
	ItemID       string           `json:"item_id"`
	ClinicID     string           `json:"clinic_id"`
	CurrentStock int              `json:"current_stock"`
	ReorderPoint int              `json:"reorder_point,omitempty"`
	Movement     *movementPayload `json:"movement,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// Publish serializa el evento y lo encola.
func (p *RedisPublisher) Publish(ctx context.Context, ev inventory.Event) error {
	encoded, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.LPush(ctx, p.list, encoded).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", p.list, err)
	}
	return nil
}

// Encode arma el sobre JSON de un evento.
func Encode(ev inventory.Event) ([]byte, error) {
	payload := eventPayload{
		ItemID:       ev.ItemID,
		ClinicID:     ev.ClinicID,
		CurrentStock: ev.CurrentStock,
		ReorderPoint: ev.ReorderPoint,
		OccurredAt:   ev.OccurredAt,
	}
	if m := ev.Movement; m != nil {
		payload.Movement = &movementPayload{
			ID:            m.ID,
			Number:        m.Number,
			CorrelationID: m.CorrelationID,
			Type:          m.Type,
			Direction:     m.Direction,
			Quantity:      m.Quantity,
			UnitCost:      m.UnitCost.StringFixed(4),
			TotalCost:     m.TotalCost.StringFixed(4),
			BatchID:       m.BatchID,
			MovementDate:  m.MovementDate,
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return json.Marshal(envelope{Type: ev.Type, Payload: data})
}
