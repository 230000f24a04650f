package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidState      = errors.New("transición de estado inválida")
	ErrCycleDetected     = errors.New("la jerarquía de categorías tendría un ciclo")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// Variantes que envuelven a ErrConflict o ErrInvalidQuantity; errors.Is funciona con ambas.
var (
	ErrDuplicate      = fmt.Errorf("%w: recurso duplicado", ErrConflict)
	ErrDuplicateBatch = fmt.Errorf("%w: número de lote ya existe para el ítem", ErrConflict)
	ErrLockTimeout    = fmt.Errorf("%w: tiempo de espera de bloqueo agotado, reintente", ErrConflict)
	ErrOverReceipt    = fmt.Errorf("%w: la recepción supera la cantidad pedida", ErrInvalidQuantity)
)

// IsRetryable indica si el llamador puede reintentar la operación (contención de bloqueos).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
