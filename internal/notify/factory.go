package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/GlebRadaev/delivery/internal/config"
	"github.com/GlebRadaev/delivery/pkg/clients"
	"github.com/redis/go-redis/v9"
)

const kafkaBuffer = 1024

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the notifier selected by cfg.NotifyBackend.
func New(ctx context.Context, cfg *config.Config) (Notifier, io.Closer, error) {
	switch cfg.NotifyBackend {
	case "", "log":
		return LogNotifier{}, nopCloser{}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("can't reach redis: %w", err)
		}
		n := NewRedisNotifier(rdb, cfg.NotifyChannel, cfg.ServiceName)
		return n, n, nil
	case "kafka":
		n := NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotifyChannel, cfg.ServiceName, kafkaBuffer)
		return n, n, nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, nil, fmt.Errorf("webhook backend requires WEBHOOK_URL")
		}
		return NewWebhookNotifier(clients.NewHTTPClient(), cfg.WebhookURL, cfg.ServiceName), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported notify backend: %s", cfg.NotifyBackend)
	}
}
