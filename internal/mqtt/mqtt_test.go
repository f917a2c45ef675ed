package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/clambin/homeshift/internal/controller"
	"github.com/clambin/homeshift/internal/controller/testutil"
	"github.com/clambin/homeshift/internal/modes"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                       { return true }
func (t doneToken) WaitTimeout(_ time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 1 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

type fakeClient struct {
	lock         sync.Mutex
	handlers     map[string]mqtt.MessageHandler
	published    map[string][]byte
	unsubscribed []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:  make(map[string]mqtt.MessageHandler),
		published: make(map[string][]byte),
	}
}

func (f *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	if retained {
		f.published[topic] = payload.([]byte)
	}
	return doneToken{}
}

func (f *fakeClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.handlers[topic] = callback
	return doneToken{}
}

func (f *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	return doneToken{}
}

func (f *fakeClient) subscriptions() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.handlers)
}

func (f *fakeClient) deliver(filter, topic, payload string) {
	f.lock.Lock()
	handler := f.handlers[filter]
	f.lock.Unlock()
	handler(nil, message{topic: topic, payload: []byte(payload)})
}

func (f *fakeClient) state(topic string) (controller.Snapshot, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	payload, ok := f.published[topic]
	if !ok {
		return controller.Snapshot{}, false
	}
	var s controller.Snapshot
	return s, json.Unmarshal(payload, &s) == nil
}

func TestBridge(t *testing.T) {
	ha := testutil.NewFakeHomeAssistant()
	c := controller.New(controller.Configuration{
		Name:            "maison",
		DayModes:        modes.FromList([]string{"Maison", "Travail", "Absence"}),
		ThermostatModes: modes.Parse("Off:Eteint, Heating:Chauffage"),
		ModeDefault:     "Travail",
	}, ha, ha, slog.New(slog.DiscardHandler))

	client := newFakeClient()
	m, err := controller.NewManager(slog.New(slog.DiscardHandler), c)
	require.NoError(t, err)
	b := NewBridge(client, m, "homeshift/", slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error)
	go func() { errCh <- b.Run(ctx) }()
	require.Eventually(t, func() bool { return client.subscriptions() == 2 }, time.Second, 10*time.Millisecond)

	const setTopics = "homeshift/+/set/+"
	const cmdTopics = "homeshift/+/cmd/+"

	client.deliver(setTopics, "homeshift/maison/set/day_mode", "maison")
	assert.Equal(t, "Maison", c.Snapshot().DayMode)
	assert.Eventually(t, func() bool {
		s, ok := client.state("homeshift/maison/state")
		return ok && s.DayMode == "Maison"
	}, time.Second, 10*time.Millisecond)

	client.deliver(setTopics, "homeshift/maison/set/thermostat_mode", "heating")
	assert.Equal(t, "Chauffage", c.Snapshot().ThermostatMode)

	client.deliver(setTopics, "homeshift/maison/set/override_duration", " 90 ")
	assert.Equal(t, 90, c.Snapshot().OverrideDuration)

	// invalid messages are ignored
	client.deliver(setTopics, "homeshift/maison/set/override_duration", "soon")
	client.deliver(setTopics, "homeshift/maison/set/day_mode", "Turbo")
	client.deliver(setTopics, "homeshift/chalet/set/day_mode", "Maison")
	client.deliver(setTopics, "homeshift/maison/set/colour", "blue")
	s := c.Snapshot()
	assert.Equal(t, 90, s.OverrideDuration)
	assert.Equal(t, "Maison", s.DayMode)

	updated := s.Updated
	time.Sleep(time.Millisecond)
	client.deliver(cmdTopics, "homeshift/maison/cmd/check_day_type", "")
	assert.True(t, c.Snapshot().Updated.After(updated))

	client.deliver(cmdTopics, "homeshift/maison/cmd/refresh_schedulers", "")

	cancel()
	assert.NoError(t, <-errCh)
	assert.ElementsMatch(t, []string{setTopics, cmdTopics}, client.unsubscribed)
}

func TestBridge_handle(t *testing.T) {
	m, err := controller.NewManager(slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	b := NewBridge(newFakeClient(), m, "homeshift", slog.New(slog.DiscardHandler))
	tests := []struct {
		name  string
		topic string
		err   error
	}{
		{name: "too short", topic: "homeshift/maison", err: errUnknownTopic},
		{name: "too long", topic: "homeshift/maison/set/day_mode/now", err: errUnknownTopic},
		{name: "unknown household", topic: "homeshift/maison/set/day_mode", err: controller.ErrUnknownHousehold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, b.handle(t.Context(), tt.topic, nil), tt.err)
		})
	}
}
