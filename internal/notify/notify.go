package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderStatusChanged = "order.status_changed"
	EventTicketCreated      = "ticket.created"
	EventMessageCreated     = "message.created"
)

const publishTimeout = 2 * time.Second

//go:generate mockgen -source=notify.go -destination=mock_notify.go -package=notify

// Notifier delivers dashboard events. Delivery is best-effort: failures are
// logged by the implementation and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, event string, payload any)
}

type Envelope struct {
	EventID    string          `json:"event_id"`
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEnvelope(producer, event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		EventID:    uuid.NewString(),
		Event:      event,
		OccurredAt: time.Now().UTC(),
		Producer:   producer,
		Payload:    raw,
	})
}

// detached keeps the publish alive after the request that triggered it ends.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
}

// LogNotifier only writes events to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, event string, payload any) {
	zap.L().Info("notification", zap.String("event", event), zap.Any("payload", payload))
}
