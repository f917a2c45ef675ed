// Package hass reads entity states from Home Assistant and calls its switch services, using the Home Assistant REST API.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/clambin/go-common/http/metrics"
	"github.com/clambin/go-common/http/roundtripper"
	"github.com/clambin/homeshift/internal/calendar"
	"github.com/sony/gobreaker/v2"
)

// ErrNotFound is returned when Home Assistant does not know the entity.
var ErrNotFound = errors.New("entity not found")

// State is the state of a Home Assistant entity.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
}

func (s State) attribute(name string) string {
	if v, ok := s.Attributes[name].(string); ok {
		return v
	}
	return ""
}

// Client calls the Home Assistant REST API.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRoundTripper sets the http.RoundTripper used to call Home Assistant.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithRequestMetrics records the duration and outcome of each call to Home Assistant.
func WithRequestMetrics(m metrics.RequestMetrics) Option {
	return func(c *Client) {
		rt := c.httpClient.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		c.httpClient.Transport = roundtripper.New(
			roundtripper.WithRequestMetrics(m),
			roundtripper.WithRoundTripper(rt),
		)
	}
}

// WithTimeout sets the timeout of a single call to Home Assistant.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a Client for the Home Assistant instance at baseURL, authenticating with a long-lived access token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	c := Client{
		baseURL:    u,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "hass",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &c, nil
}

// GetState returns the state of an entity.
func (c *Client) GetState(ctx context.Context, entityID string) (State, error) {
	body, err := c.call(ctx, http.MethodGet, "/api/states/"+entityID, nil)
	if err != nil {
		return State{}, err
	}
	var state State
	if err = json.Unmarshal(body, &state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// GetEvent returns the state of a calendar entity.
func (c *Client) GetEvent(ctx context.Context, entityID string) (calendar.Event, error) {
	state, err := c.GetState(ctx, entityID)
	if err != nil {
		return calendar.Event{}, err
	}
	return calendar.Event{
		State:   state.State,
		Message: state.attribute("message"),
		Start:   state.attribute("start_time"),
		End:     state.attribute("end_time"),
	}, nil
}

// IsOn reports whether an entity is on.
func (c *Client) IsOn(ctx context.Context, entityID string) (bool, error) {
	state, err := c.GetState(ctx, entityID)
	return err == nil && state.State == "on", err
}

// GetTags returns the tags of an entity, as set by the scheduler integration.
func (c *Client) GetTags(ctx context.Context, entityID string) ([]string, error) {
	state, err := c.GetState(ctx, entityID)
	if err != nil {
		return nil, err
	}
	raw, _ := state.Attributes["tags"].([]any)
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		if s, ok := tag.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags, nil
}

// SetState turns a set of switches on or off.
func (c *Client) SetState(ctx context.Context, entityIDs []string, on bool) error {
	service := "turn_off"
	if on {
		service = "turn_on"
	}
	payload, err := json.Marshal(struct {
		EntityID []string `json:"entity_id"`
	}{EntityID: entityIDs})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	_, err = c.call(ctx, http.MethodPost, "/api/services/switch/"+service, payload)
	return err
}

func (c *Client) call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		return io.ReadAll(resp.Body)
	})
}
