package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un insumo inventariable del catálogo de la clínica.
// El stock total del ítem no se guarda: se deriva sumando sus filas de ClinicStock.
type Item struct {
	ID                   string
	Code                 string // código único entre ítems no eliminados
	Name                 string
	Description          string
	UnitMeasure          string
	UnitCost             decimal.Decimal // costo promedio ponderado, actualizado por entradas
	SalePrice            decimal.Decimal
	CategoryID           string
	RequiresBatchControl bool
	AutoReorder          bool
	RequiresPrescription bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            *time.Time // nil = activo
}

// IsDeleted indica si el ítem fue dado de baja (tombstone).
func (i *Item) IsDeleted() bool {
	return i.DeletedAt != nil
}
