package entity

import "time"

// ClinicStock es la proyección materializada del stock de un ítem en una sede.
// Existe exactamente una fila por par (ItemID, ClinicID); se crea en cero al primer acceso.
type ClinicStock struct {
	ItemID          string
	ClinicID        string
	CurrentStock    int
	MinimumStock    int
	MaximumStock    int // 0 = sin máximo
	ReorderPoint    int
	StorageLocation string
	UpdatedAt       time.Time
}

// IsLowStock es verdadero cuando el stock actual alcanzó el punto de reorden (límite inclusivo).
func (s *ClinicStock) IsLowStock() bool {
	return s.CurrentStock <= s.ReorderPoint
}
