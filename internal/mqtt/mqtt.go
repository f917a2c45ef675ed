// Package mqtt publishes the state of each household to an MQTT broker and accepts changes and commands
// on its set and cmd topics:
//
//	<prefix>/<household>/state                       retained JSON snapshot
//	<prefix>/<household>/set/day_mode                day mode label or key
//	<prefix>/<household>/set/thermostat_mode         thermostat mode label or key
//	<prefix>/<household>/set/override_duration       minutes
//	<prefix>/<household>/cmd/refresh_schedulers
//	<prefix>/<household>/cmd/check_day_type
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/clambin/homeshift/internal/controller"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"
)

const waitTimeout = 10 * time.Second

// Client is the subset of mqtt.Client used by the Bridge.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// Registry holds the coordinator of each household.
type Registry interface {
	Coordinators() []*controller.Coordinator
	Get(name string) (*controller.Coordinator, error)
}

var _ Registry = &controller.Manager{}

// Bridge connects households to an MQTT broker.
type Bridge struct {
	client   Client
	registry Registry
	prefix   string
	logger   *slog.Logger
}

// Connect connects to an MQTT broker.
func Connect(broker, clientID, username, password string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	if username != "" {
		opts.SetUsername(username).SetPassword(password)
	}
	c := mqtt.NewClient(opts)
	if err := wait(c.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return c, nil
}

func NewBridge(client Client, registry Registry, prefix string, logger *slog.Logger) *Bridge {
	return &Bridge{
		client:   client,
		registry: registry,
		prefix:   strings.TrimSuffix(prefix, "/"),
		logger:   logger,
	}
}

// Run subscribes to the set and cmd topics and publishes the state of each household whenever it changes,
// until ctx is canceled. Households that were already updated are published immediately.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Debug("started")
	defer b.logger.Debug("stopped")

	coordinators := b.registry.Coordinators()
	channels := make(map[*controller.Coordinator]<-chan controller.Snapshot, len(coordinators))
	for _, h := range coordinators {
		channels[h] = h.Subscribe()
	}
	defer func() {
		for h, ch := range channels {
			h.Unsubscribe(ch)
		}
	}()

	topics := []string{b.prefix + "/+/set/+", b.prefix + "/+/cmd/+"}
	for _, topic := range topics {
		if err := wait(b.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			if err := b.handle(ctx, msg.Topic(), msg.Payload()); err != nil {
				b.logger.Warn("invalid mqtt message", "topic", msg.Topic(), "err", err)
			}
		})); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	defer func() {
		if err := wait(b.client.Unsubscribe(topics...)); err != nil {
			b.logger.Warn("failed to unsubscribe", "err", err)
		}
	}()

	var g errgroup.Group
	for h, ch := range channels {
		g.Go(func() error {
			if snapshot := h.Snapshot(); !snapshot.Updated.IsZero() {
				b.publish(snapshot)
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case snapshot := <-ch:
					b.publish(snapshot)
				}
			}
		})
	}
	return g.Wait()
}

func (b *Bridge) publish(snapshot controller.Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		b.logger.Error("failed to encode snapshot", "err", err)
		return
	}
	topic := b.prefix + "/" + snapshot.Household + "/state"
	if err = wait(b.client.Publish(topic, 1, true, payload)); err != nil {
		b.logger.Warn("failed to publish state", "topic", topic, "err", err)
	}
}

var errUnknownTopic = errors.New("unknown topic")

func (b *Bridge) handle(ctx context.Context, topic string, payload []byte) error {
	parts := strings.Split(strings.TrimPrefix(topic, b.prefix+"/"), "/")
	if len(parts) != 3 {
		return errUnknownTopic
	}
	h, err := b.registry.Get(parts[0])
	if err != nil {
		return err
	}
	value := strings.TrimSpace(string(payload))

	switch parts[1] + "/" + parts[2] {
	case "set/day_mode":
		return h.SetDayMode(ctx, value)
	case "set/thermostat_mode":
		return h.SetThermostatMode(ctx, value)
	case "set/override_duration":
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("override duration: %w", err)
		}
		h.SetOverrideDuration(ctx, minutes)
	case "cmd/refresh_schedulers":
		h.RefreshSchedulers(ctx)
	case "cmd/check_day_type":
		h.CheckDayType(ctx)
	default:
		return errUnknownTopic
	}
	return nil
}

func wait(token mqtt.Token) error {
	if !token.WaitTimeout(waitTimeout) {
		return errors.New("timeout")
	}
	return token.Error()
}
