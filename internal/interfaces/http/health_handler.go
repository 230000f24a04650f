package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger dependencia que puede verificarse en /health (pool de PostgreSQL, cliente Redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta una función a Pinger.
type PingFunc func(ctx context.Context) error

// Ping implementa Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Health responde 200 si todas las dependencias responden, 503 si alguna falla.
// Nunca expone credenciales ni detalles del error.
func Health(service string, deps map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := fiber.StatusOK
		checks := make(fiber.Map, len(deps))
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				checks[name] = "error"
				status = fiber.StatusServiceUnavailable
				continue
			}
			checks[name] = "connected"
		}
		return c.Status(status).JSON(fiber.Map{
			"ok":      status == fiber.StatusOK,
			"service": service,
			"checks":  checks,
		})
	}
}
