package notify

import (
	"context"
	"sync"
	"time"

	"github.com/GlebRadaev/delivery/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier hands messages to a background writer so Notify never blocks on the broker.
type KafkaNotifier struct {
	w        messageWriter
	producer string
	inbox    chan kafka.Message
	done     chan struct{}

	// mu guards inbox against sends after Close.
	mu     sync.RWMutex
	closed bool
}

func NewKafkaNotifier(brokers []string, topic, producer string, buf int) *KafkaNotifier {
	return newKafkaNotifier(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, producer, buf)
}

func newKafkaNotifier(w messageWriter, producer string, buf int) *KafkaNotifier {
	n := &KafkaNotifier{
		w:        w,
		producer: producer,
		inbox:    make(chan kafka.Message, buf),
		done:     make(chan struct{}),
	}
	go n.loop()
	return n
}

func (n *KafkaNotifier) loop() {
	defer close(n.done)
	for m := range n.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := n.w.WriteMessages(ctx, m); err != nil {
			metrics.NotificationsFailed.WithLabelValues("kafka").Inc()
			zap.L().Warn("can't write notification", zap.ByteString("key", m.Key), zap.Error(err))
		}
		cancel()
	}
}

func (n *KafkaNotifier) Notify(_ context.Context, event string, payload any) {
	msg, err := NewEnvelope(n.producer, event, payload)
	if err != nil {
		zap.L().Error("can't encode notification", zap.String("event", event), zap.Error(err))
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		metrics.NotificationsFailed.WithLabelValues("kafka").Inc()
		zap.L().Warn("notifier closed, dropping", zap.String("event", event))
		return
	}

	select {
	case n.inbox <- kafka.Message{
		Key:     []byte(event),
		Value:   msg,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "x-event-type", Value: []byte(event)}},
	}:
	default:
		metrics.NotificationsFailed.WithLabelValues("kafka").Inc()
		zap.L().Warn("notification buffer full, dropping", zap.String("event", event))
	}
}

// Close flushes buffered messages and closes the writer. Later Notify
// calls are dropped.
func (n *KafkaNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.inbox)
	n.mu.Unlock()

	<-n.done
	return n.w.Close()
}
