package service

import (
	"context"
	"log"
	"time"

	"github.com/coachware/fitness-coaching-backend/internal/repository"
)

// StartTokenSweeper periodically deletes expired refresh token rows.  The
// sweep is pure garbage collection: expired rows already fail validation,
// so the interval can be generous and a failed run is only logged.  The
// loop stops when ctx is canceled.
func StartTokenSweeper(ctx context.Context, tokens *repository.TokenRepo, every time.Duration) {
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := tokens.DeleteExpired(sweepCtx)
			cancel()
			if err != nil {
				log.Printf("token-sweeper: delete expired failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("token-sweeper: removed %d expired refresh tokens", n)
			}
		}
	}
}
