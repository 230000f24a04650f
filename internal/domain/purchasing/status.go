package purchasing

import (
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// transitions estados destino permitidos por comando explícito (la recepción se deriva aparte).
var transitions = map[string][]string{
	entity.POStatusDraft:     {entity.POStatusSent, entity.POStatusCancelled},
	entity.POStatusSent:      {entity.POStatusConfirmed, entity.POStatusCancelled},
	entity.POStatusConfirmed: {entity.POStatusCancelled},
}

// CanTransition indica si from -> to es una transición explícita válida.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition valida y aplica la transición sobre la orden.
func Transition(order *entity.PurchaseOrder, to string) error {
	if !CanTransition(order.Status, to) {
		return domain.ErrInvalidState
	}
	order.Status = to
	return nil
}

// CanReceive indica si la orden admite recepciones en su estado actual.
func CanReceive(status string) bool {
	return status == entity.POStatusConfirmed || status == entity.POStatusPartiallyReceived
}

// DeriveStatus recalcula el estado a partir de lo recibido en las líneas:
// RECEIVED si todas están completas, PARTIALLY_RECEIVED si alguna recibió algo, si no el actual.
func DeriveStatus(current string, lines []*entity.PurchaseOrderItem) string {
	if len(lines) == 0 {
		return current
	}
	complete, any := true, false
	for _, l := range lines {
		if l.QuantityReceived != l.Quantity {
			complete = false
		}
		if l.QuantityReceived > 0 {
			any = true
		}
	}
	switch {
	case complete:
		return entity.POStatusReceived
	case any:
		return entity.POStatusPartiallyReceived
	default:
		return current
	}
}
