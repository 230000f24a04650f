// Package catalog contiene reglas puras del árbol de categorías.
package catalog

import (
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// CheckReparent valida que mover id bajo newParentID no cree un ciclo.
// parentOf resuelve el padre de cualquier categoría ("" para raíz).
func CheckReparent(id, newParentID string, parentOf map[string]string) error {
	if newParentID == "" {
		return nil
	}
	seen := make(map[string]bool)
	for cur := newParentID; cur != ""; cur = parentOf[cur] {
		if cur == id {
			return domain.ErrCycleDetected
		}
		if seen[cur] {
			// datos ya corruptos; no empeorarlos
			return domain.ErrCycleDetected
		}
		seen[cur] = true
	}
	return nil
}

// ParentIndex construye el mapa id -> parentID.
func ParentIndex(categories []*entity.Category) map[string]string {
	idx := make(map[string]string, len(categories))
	for _, c := range categories {
		idx[c.ID] = c.ParentID
	}
	return idx
}

// Subtree devuelve rootID y todos sus descendientes.
func Subtree(rootID string, categories []*entity.Category) []string {
	children := make(map[string][]string)
	for _, c := range categories {
		children[c.ParentID] = append(children[c.ParentID], c.ID)
	}
	out := []string{rootID}
	for i := 0; i < len(out); i++ {
		out = append(out, children[out[i]]...)
	}
	return out
}
