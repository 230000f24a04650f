package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// Allocation cantidad que se toma de un lote concreto.
type Allocation struct {
	BatchID  string
	Quantity int
}

// SelectFEFO asigna required unidades a los lotes abiertos del ítem, primero el que vence antes
// (First-Expired-First-Out). Los lotes sin vencimiento van al final; empates por fecha de creación.
// Función pura: no modifica los lotes recibidos.
// Devuelve ErrInsufficientStock si la suma disponible no alcanza.
func SelectFEFO(batches []*entity.Batch, required int, asOf time.Time) ([]Allocation, error) {
	if required <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	open := make([]*entity.Batch, 0, len(batches))
	available := 0
	for _, b := range batches {
		// Un lote vencido que aún no pasó por el barrido tampoco es elegible
		if !b.IsOpen() || b.ExpiresBefore(asOf) {
			continue
		}
		open = append(open, b)
		available += b.CurrentStock
	}
	if available < required {
		return nil, domain.ErrInsufficientStock
	}

	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i], open[j]
		switch {
		case a.ExpirationDate == nil && b.ExpirationDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.ExpirationDate == nil:
			return false
		case b.ExpirationDate == nil:
			return true
		case !a.ExpirationDate.Equal(*b.ExpirationDate):
			return a.ExpirationDate.Before(*b.ExpirationDate)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	remaining := required
	allocations := make([]Allocation, 0, len(open))
	for _, b := range open {
		if remaining == 0 {
			break
		}
		take := min(b.CurrentStock, remaining)
		allocations = append(allocations, Allocation{BatchID: b.ID, Quantity: take})
		remaining -= take
	}
	return allocations, nil
}
