package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/events"
)

func TestEncode_MovementRecorded(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := inventory.Event{
		Type:     inventory.EventMovementRecorded,
		ItemID:   "item-1",
		ClinicID: "clinic-1",
		Movement: &entity.Movement{
			ID:            "m-1",
			Number:        42,
			CorrelationID: "corr-1",
			Type:          entity.MovementTypeEXIT,
			Direction:     entity.DirectionOUT,
			Quantity:      3,
			UnitCost:      decimal.RequireFromString("1250.5"),
			TotalCost:     decimal.RequireFromString("3751.5"),
			BatchID:       "b-1",
			MovementDate:  at,
		},
		OccurredAt: at,
	}

	data, err := events.Encode(ev)
	require.NoError(t, err)

	var got struct {
		Type    string `json:"type"`
		Payload struct {
			ItemID   string `json:"item_id"`
			ClinicID string `json:"clinic_id"`
			Movement struct {
				Number    int64  `json:"number"`
				Direction string `json:"direction"`
				Quantity  int    `json:"quantity"`
				UnitCost  string `json:"unit_cost"`
				TotalCost string `json:"total_cost"`
				BatchID   string `json:"batch_id"`
			} `json:"movement"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "MovementRecorded", got.Type)
	assert.Equal(t, "item-1", got.Payload.ItemID)
	assert.Equal(t, int64(42), got.Payload.Movement.Number)
	assert.Equal(t, "OUT", got.Payload.Movement.Direction)
	assert.Equal(t, "1250.5000", got.Payload.Movement.UnitCost)
	assert.Equal(t, "3751.5000", got.Payload.Movement.TotalCost)
	assert.Equal(t, "b-1", got.Payload.Movement.BatchID)
}

func TestEncode_LowStockHasNoMovement(t *testing.T) {
	data, err := events.Encode(inventory.Event{
		Type:         inventory.EventLowStockDetected,
		ItemID:       "item-1",
		ClinicID:     "clinic-1",
		CurrentStock: 2,
		ReorderPoint: 5,
		OccurredAt:   time.Now(),
	})
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &got))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(got["payload"], &payload))
	assert.NotContains(t, payload, "movement")
	assert.EqualValues(t, 2, payload["current_stock"])
	assert.EqualValues(t, 5, payload["reorder_point"])
}
