package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health reports liveness plus the state of the backing stores.  Redis is
// optional (rate limiting and caching degrade gracefully without it), so a
// missing client reports "disabled" rather than failing the check.
func Health(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		overall := "ok"
		status := http.StatusOK
		dbStatus := "ok"
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "down"
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "down"
			}
		}

		return c.JSON(status, echo.Map{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
