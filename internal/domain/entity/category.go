package entity

import "time"

// Category representa una categoría de insumos (árbol; ParentID vacío si es raíz).
type Category struct {
	ID        string
	Code      string
	Name      string
	ParentID  string
	Active    bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}
