package run

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clambin/homeshift/internal/configuration"
	"github.com/clambin/homeshift/internal/controller"
	"github.com/clambin/homeshift/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplication(t *testing.T) {
	var calls atomic.Int32
	ha := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte("[]"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(ha.Close)

	dbPath := filepath.Join(t.TempDir(), "homeshift.db")
	s, err := store.Open(t.Context(), dbPath)
	require.NoError(t, err)
	require.NoError(t, s.SaveOverrideDuration(t.Context(), "maison", 45))
	require.NoError(t, s.Close())

	cfg := configuration.Configuration{
		Addr:          "127.0.0.1:0",
		HomeAssistant: configuration.HomeAssistantConfiguration{URL: ha.URL, Token: "token", Timeout: time.Second},
		Store:         configuration.StoreConfiguration{Path: dbPath},
		Households: []configuration.Household{
			{
				Name:       "maison",
				Calendar:   "calendar.family",
				DayModes:   configuration.DefaultDayModes,
				Modes:      configuration.Modes{Default: "Travail"},
				Schedulers: []configuration.Scheduler{{Mode: "Travail", Switches: []string{"switch.office"}}},
			},
		},
	}

	ctx, cancel := context.WithCancel(t.Context())
	app, err := build(ctx, cfg, prometheus.NewRegistry(), "test", slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	errCh := make(chan error)
	go func() { errCh <- app.run(ctx) }()

	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/households/maison")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snapshot controller.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	_ = resp.Body.Close()
	assert.Equal(t, "Travail", snapshot.DayMode)
	assert.Equal(t, 45, snapshot.OverrideDuration)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/households/maison/override-duration", strings.NewReader(`{"value":30}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body string
	assert.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/metrics")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		body = string(b)
		return err == nil && strings.Contains(body, `homeshift_override_duration_minutes{household="maison"} 30`)
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, body, `homeshift_day_mode{household="maison",mode="Travail"} 1`)
	assert.Contains(t, body, `homeshift_hass_http_requests_total`)
	assert.NotZero(t, calls.Load())

	cancel()
	assert.NoError(t, <-errCh)

	// the new override duration was saved
	s, err = store.Open(t.Context(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	minutes, err := s.LoadOverrideDuration(t.Context(), "maison")
	require.NoError(t, err)
	assert.Equal(t, 30, minutes)
}

func TestBuild_DuplicateHouseholds(t *testing.T) {
	cfg := configuration.Configuration{
		Addr:          "127.0.0.1:0",
		HomeAssistant: configuration.HomeAssistantConfiguration{URL: "http://127.0.0.1:8123", Token: "token"},
		Households:    []configuration.Household{{Name: "maison"}, {Name: "maison"}},
	}
	_, err := build(t.Context(), cfg, prometheus.NewRegistry(), "test", slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
