package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clambin/go-common/slackbot"
	"github.com/clambin/homeshift/internal/api"
	"github.com/clambin/homeshift/internal/bot"
	"github.com/clambin/homeshift/internal/collector"
	"github.com/clambin/homeshift/internal/configuration"
	"github.com/clambin/homeshift/internal/controller"
	"github.com/clambin/homeshift/internal/controller/notifier"
	"github.com/clambin/homeshift/internal/events"
	"github.com/clambin/homeshift/internal/hass"
	"github.com/clambin/homeshift/internal/health"
	"github.com/clambin/homeshift/internal/mqtt"
	"github.com/clambin/homeshift/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var Cmd = cobra.Command{
	Use:   "run",
	Short: "Run the household coordinators",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configuration.Load(viper.GetViper())
		if err != nil {
			return err
		}
		logger := cfg.Logger(os.Stderr)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		logger.Info("homeshift starting", "version", cmd.Root().Version, "households", len(cfg.Households))
		defer logger.Info("homeshift stopped")

		app, err := build(ctx, cfg, registry, cmd.Root().Version, logger)
		if err != nil {
			return err
		}
		return app.run(ctx)
	},
}

type task interface {
	Run(ctx context.Context) error
}

type application struct {
	tasks   []task
	handler http.Handler
	closers []func() error
	logger  *slog.Logger
}

func build(ctx context.Context, cfg configuration.Configuration, registry *prometheus.Registry, version string, logger *slog.Logger) (*application, error) {
	app := application{logger: logger}

	// Home Assistant
	requestMetrics := hass.NewRequestMetrics("homeshift", "hass", nil)
	registry.MustRegister(requestMetrics)
	client, err := hass.New(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token,
		hass.WithRequestMetrics(requestMetrics),
		hass.WithTimeout(cfg.HomeAssistant.Timeout),
		hass.WithLogger(logger.With(slog.String("component", "hass"))),
	)
	if err != nil {
		return nil, fmt.Errorf("hass: %w", err)
	}
	dispatcher := hass.NewDispatcher(client, logger.With(slog.String("component", "dispatcher")))
	app.tasks = append(app.tasks, dispatcher)

	// Settings store
	var settings *store.Store
	if cfg.Store.Path != "" {
		if settings, err = store.Open(ctx, cfg.Store.Path); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		app.closers = append(app.closers, settings.Close)
	}

	// Notifiers
	notifiers := notifier.Notifiers{notifier.SLogNotifier{Logger: logger.With(slog.String("component", "notifier"))}}
	var sb *slackbot.SlackBot
	if cfg.Slack.Token != "" {
		sb = slackbot.New(cfg.Slack.Token,
			slackbot.WithName("homeshift "+version),
			slackbot.WithLogger(logger.With(slog.String("component", "slackbot"))),
		)
		slackNotifier := notifier.NewSlackNotifier(sb, logger.With(slog.String("component", "slack")))
		notifiers = append(notifiers, slackNotifier)
		app.tasks = append(app.tasks, slackNotifier)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		app.closers = append(app.closers, writer.Close)
		publisher := events.NewPublisher(writer, logger.With(slog.String("component", "events")))
		notifiers = append(notifiers, publisher)
		app.tasks = append(app.tasks, publisher)
	}

	// Coordinators
	coordinators := make([]*controller.Coordinator, 0, len(cfg.Households))
	for _, household := range cfg.Households {
		householdLogger := logger.With(slog.String("component", "coordinator"), slog.String("household", household.Name))
		householdCfg := household.Controller(householdLogger)
		opts := []controller.Option{controller.WithNotifier(notifiers)}
		if settings != nil {
			opts = append(opts, controller.WithSettingsStore(settings))
			if minutes, err := settings.LoadOverrideDuration(ctx, household.Name); err == nil {
				householdCfg.OverrideDuration = minutes
			} else if !errors.Is(err, store.ErrNotFound) {
				householdLogger.Warn("failed to load override duration", "err", err)
			}
		}
		householdLogger.Debug("household configured", "configuration", householdCfg)
		coordinators = append(coordinators, controller.New(householdCfg, client, dispatcher, householdLogger, opts...))
	}
	manager, err := controller.NewManager(logger.With(slog.String("component", "manager")), coordinators...)
	if err != nil {
		app.close()
		return nil, err
	}
	app.tasks = append(app.tasks, manager)

	// Metrics
	coll := &collector.Collector{Logger: logger.With(slog.String("component", "collector"))}
	healthHouseholds := make([]health.Household, 0, len(cfg.Households))
	for _, c := range manager.Coordinators() {
		coll.Households = append(coll.Households, c)
		healthHouseholds = append(healthHouseholds, c)
	}
	registry.MustRegister(coll)
	app.tasks = append(app.tasks, coll)

	// Health, API & metrics endpoints
	h := health.New(logger.With(slog.String("component", "health")), healthHouseholds...)
	app.tasks = append(app.tasks, h)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api/households", api.New(manager, logger.With(slog.String("component", "api"))).RegisterRoutes)
	r.Handle("/health", h)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	app.handler = r
	app.tasks = append(app.tasks, &httpServer{addr: cfg.Addr, handler: r, logger: logger.With(slog.String("component", "http"))})

	// MQTT
	if cfg.MQTT.Broker != "" {
		mqttClient, err := mqtt.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Username, cfg.MQTT.Password)
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, func() error { mqttClient.Disconnect(250); return nil })
		app.tasks = append(app.tasks, mqtt.NewBridge(mqttClient, manager, cfg.MQTT.Prefix, logger.With(slog.String("component", "mqtt"))))
	}

	// Slack bot
	if sb != nil {
		app.tasks = append(app.tasks, bot.New(sb, manager, logger))
	}

	return &app, nil
}

// run runs all tasks until ctx is canceled or one of them fails.
func (a *application) run(ctx context.Context) error {
	defer a.close()
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range a.tasks {
		g.Go(func() error { return t.Run(ctx) })
	}
	return g.Wait()
}

func (a *application) close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.logger.Warn("failed to close", "err", err)
		}
	}
	a.closers = nil
}

type httpServer struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger
}

func (s *httpServer) Run(ctx context.Context) error {
	server := http.Server{Addr: s.addr, Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	s.logger.Debug("http server started", "addr", s.addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Debug("http server stopped")
	return nil
}
