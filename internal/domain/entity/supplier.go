package entity

import "time"

// Supplier representa un proveedor (datos de referencia para compras).
// Nunca se elimina físicamente: las órdenes de compra históricas lo referencian.
type Supplier struct {
	ID           string
	Code         string // único entre proveedores no eliminados
	CompanyName  string
	ContactName  string
	Email        string
	Phone        string
	Address      string
	TaxID        string
	PaymentTerms string // ej. "30 días"
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
