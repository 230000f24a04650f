package entity

import "time"

// Clinic representa una sede de la clínica; cada sede es un pool de stock independiente.
type Clinic struct {
	ID        string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
