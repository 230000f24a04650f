package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpirySweeper lo implementa inventory.BatchTracker.
type ExpirySweeper interface {
	SweepExpirations(ctx context.Context, asOf time.Time) (int, error)
}

// StartExpirySweeper lanza una goroutine que marca como vencidos los lotes cuya fecha pasó.
// Corre una vez al arrancar y luego cada interval; termina cuando ctx se cancela.
// Devuelve un canal que se cierra al terminar la goroutine.
func StartExpirySweeper(ctx context.Context, sweeper ExpirySweeper, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		log.Info().Msg("expiry_sweeper: deshabilitado")
		close(done)
		return done
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("expiry_sweeper: started")
		sweep(ctx, sweeper)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_sweeper: shutting down")
				return
			case <-ticker.C:
				sweep(ctx, sweeper)
			}
		}
	}()
	return done
}

func sweep(ctx context.Context, sweeper ExpirySweeper) {
	n, err := sweeper.SweepExpirations(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("expiry_sweeper: barrido fallido")
		}
		return
	}
	if n > 0 {
		log.Info().Int("expired", n).Msg("expiry_sweeper: lotes marcados como vencidos")
	}
}
