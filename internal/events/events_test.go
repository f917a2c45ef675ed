package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/clambin/homeshift/internal/controller/notifier"
	"github.com/clambin/homeshift/internal/events"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	lock     sync.Mutex
	messages []kafka.Message
	err      error
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.messages = append(r.messages, msgs...)
	return r.err
}

func (r *recordingWriter) Messages() []kafka.Message {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]kafka.Message(nil), r.messages...)
}

func TestPublisher(t *testing.T) {
	var w recordingWriter
	p := events.NewPublisher(&w, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error)
	go func() { errCh <- p.Run(ctx) }()

	at := time.Date(2026, time.March, 12, 8, 0, 0, 0, time.UTC)
	p.Notify(t.Context(), notifier.Change{Household: "maison", Kind: notifier.DayMode, From: "Travail", To: "Télétravail", Reason: "calendar event: télétravail", At: at})
	p.Notify(t.Context(), notifier.Change{Household: "chalet", Kind: notifier.ThermostatMode, From: "Eteint", To: "Chauffage", Manual: true, At: at})

	require.Eventually(t, func() bool { return len(w.Messages()) == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-errCh)

	msgs := w.Messages()
	assert.Equal(t, "maison", string(msgs[0].Key))
	assert.Equal(t, "chalet", string(msgs[1].Key))

	var e events.Event
	require.NoError(t, json.Unmarshal(msgs[0].Value, &e))
	_, err := uuid.Parse(e.ID)
	assert.NoError(t, err)
	e.ID = ""
	assert.Equal(t, events.Event{
		Household: "maison",
		Kind:      "day_mode",
		From:      "Travail",
		To:        "Télétravail",
		Reason:    "calendar event: télétravail",
		Time:      at,
	}, e)
}

func TestPublisher_WriteError(t *testing.T) {
	w := recordingWriter{err: errors.New("broker unavailable")}
	p := events.NewPublisher(&w, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error)
	go func() { errCh <- p.Run(ctx) }()

	p.Notify(t.Context(), notifier.Change{Household: "maison", Kind: notifier.OverrideDuration, From: "0", To: "60", Manual: true})
	require.Eventually(t, func() bool { return len(w.Messages()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}

func TestNewWriter(t *testing.T) {
	w := events.NewWriter([]string{"kafka:9092"}, events.DefaultTopic)
	assert.Equal(t, events.DefaultTopic, w.Topic)
	assert.Equal(t, "kafka:9092", w.Addr.String())
}
