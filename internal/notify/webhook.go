package notify

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/delivery/pkg/metrics"
	"go.uber.org/zap"
)

type poster interface {
	Post(ctx context.Context, url string, body []byte, headers http.Header) (int, []byte, error)
}

// WebhookNotifier posts envelopes to an HTTP endpoint.
type WebhookNotifier struct {
	client   poster
	url      string
	producer string
}

func NewWebhookNotifier(client poster, url, producer string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url, producer: producer}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event string, payload any) {
	msg, err := NewEnvelope(n.producer, event, payload)
	if err != nil {
		zap.L().Error("can't encode notification", zap.String("event", event), zap.Error(err))
		return
	}

	ctx, cancel := detached(ctx)
	defer cancel()

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Event-Type", event)

	code, _, err := n.client.Post(ctx, n.url, msg, headers)
	if err != nil || code >= http.StatusBadRequest {
		metrics.NotificationsFailed.WithLabelValues("webhook").Inc()
		zap.L().Warn("webhook notification failed", zap.String("event", event), zap.Int("status", code), zap.Error(err))
	}
}
