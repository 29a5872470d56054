package server

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"foodstand/internal/commons"
)

type DBPinger interface {
	PingContext(ctx context.Context) error
}

type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	DB    string `json:"db"`
	Redis string `json:"redis"`
}

// Health reports store connectivity. A nil rdb means the notification
// channel runs in-process and is reported as disabled.
func Health(db DBPinger, rdb RedisPinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := healthResponse{DB: "connected", Redis: "disabled"}
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check: database unreachable", zap.Error(err))
			resp.DB = "error"
		}

		if rdb != nil {
			resp.Redis = "connected"
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("health check: redis unreachable", zap.Error(err))
				resp.Redis = "error"
			}
		}

		status := http.StatusOK
		if resp.DB == "error" || resp.Redis == "error" {
			status = http.StatusServiceUnavailable
		}
		resp.OK = status == http.StatusOK

		commons.WriteJSON(w, status, resp, logger)
	}
}
