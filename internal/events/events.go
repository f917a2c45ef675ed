// Package events publishes day mode, thermostat mode and override changes to a Kafka topic.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/clambin/homeshift/internal/controller/notifier"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic is the topic that changes are published to, unless configured otherwise.
const DefaultTopic = "homeshift.mode-changes"

const queueSize = 64

// Event is the payload of a published message.
type Event struct {
	ID        string    `json:"id"`
	Household string    `json:"household"`
	Kind      string    `json:"kind"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Manual    bool      `json:"manual"`
	Reason    string    `json:"reason,omitempty"`
	Time      time.Time `json:"time"`
}

// MessageWriter writes messages to Kafka. *kafka.Writer implements this interface.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher queues changes and writes them to Kafka in the background. It implements notifier.Notifier.
type Publisher struct {
	writer MessageWriter
	logger *slog.Logger
	queue  chan kafka.Message
}

var _ notifier.Notifier = &Publisher{}

// NewWriter returns a Kafka writer for a topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           100 * time.Millisecond,
	}
}

func NewPublisher(writer MessageWriter, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		logger: logger,
		queue:  make(chan kafka.Message, queueSize),
	}
}

// Notify queues a change. If the queue is full, the change is dropped.
func (p *Publisher) Notify(_ context.Context, change notifier.Change) {
	msg, err := newMessage(change)
	if err != nil {
		p.logger.Error("failed to encode change", "err", err)
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.logger.Warn("event queue full: dropping change", "change", change)
	}
}

func newMessage(change notifier.Change) (kafka.Message, error) {
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}
	value, err := json.Marshal(Event{
		ID:        uuid.NewString(),
		Household: change.Household,
		Kind:      string(change.Kind),
		From:      change.From,
		To:        change.To,
		Manual:    change.Manual,
		Reason:    change.Reason,
		Time:      at,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(change.Household),
		Value: value,
		Time:  at,
	}, nil
}

// Run writes queued changes until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Debug("started")
	defer p.logger.Debug("stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-p.queue:
			if err := p.writer.WriteMessages(ctx, msg); err != nil {
				p.logger.Warn("failed to publish change", "household", string(msg.Key), "err", err)
			}
		}
	}
}
