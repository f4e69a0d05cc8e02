package notify

import (
	"context"

	"github.com/GlebRadaev/delivery/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier publishes envelopes on a Redis pub/sub channel the dashboard gateway subscribes to.
type RedisNotifier struct {
	rdb      *redis.Client
	channel  string
	producer string
}

func NewRedisNotifier(rdb *redis.Client, channel, producer string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, producer: producer}
}

func (n *RedisNotifier) Notify(ctx context.Context, event string, payload any) {
	msg, err := NewEnvelope(n.producer, event, payload)
	if err != nil {
		zap.L().Error("can't encode notification", zap.String("event", event), zap.Error(err))
		return
	}

	ctx, cancel := detached(ctx)
	defer cancel()

	if err := n.rdb.Publish(ctx, n.channel, msg).Err(); err != nil {
		metrics.NotificationsFailed.WithLabelValues("redis").Inc()
		zap.L().Warn("can't publish notification", zap.String("event", event), zap.Error(err))
	}
}

func (n *RedisNotifier) Close() error {
	return n.rdb.Close()
}
