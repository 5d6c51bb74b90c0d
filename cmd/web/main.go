// Command web serves the radio front end. Settings come from the YAML file
// named by CONFIG_PATH (radio.yaml by default) with environment overrides
// applied on top; see pkg/config. The server exposes the HTML page, the JSON
// API and Prometheus metrics, and shuts down gracefully on SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/filyy5040/yeti-radio-streams/pkg/config"
	"github.com/filyy5040/yeti-radio-streams/pkg/db"
	"github.com/filyy5040/yeti-radio-streams/pkg/handlers"
	"github.com/filyy5040/yeti-radio-streams/pkg/headless"
	"github.com/filyy5040/yeti-radio-streams/pkg/metrics"
	"github.com/filyy5040/yeti-radio-streams/pkg/player"
	"github.com/filyy5040/yeti-radio-streams/pkg/stage"
	"github.com/filyy5040/yeti-radio-streams/pkg/theme"
	"github.com/filyy5040/yeti-radio-streams/pkg/youtube"
)

const shutdownTimeout = 5 * time.Second

// main loads the configuration and runs the server until interrupted.
func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "radio.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// run opens the database, wires the application and serves HTTP until ctx
// is cancelled.
func run(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	// The database only holds the search credential.
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app, err := newApplication(ctx, cfg, database, log, reg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.ListenAddr).Info("http server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		app.Player.Release()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// newApplication builds the handler dependencies: the YouTube client, the
// headless widget factory, the playback bridge and the stage controller.
// Collectors are registered with reg, which also backs /metrics.
func newApplication(ctx context.Context, cfg *config.Config, store stage.CredentialStore, log logrus.FieldLogger, reg *prometheus.Registry) (*handlers.Application, error) {
	m := metrics.New(reg)
	yt := &youtube.Client{
		BaseURL:    cfg.Search.Endpoint,
		MaxResults: cfg.Search.MaxResults,
		CategoryID: cfg.Search.CategoryID,
		HTTP:       &http.Client{Timeout: cfg.Search.Timeout},
	}

	// The lookup runs after the controller exists; widgets are only created
	// through ctrl.Select.
	var ctrl *stage.Controller
	factory := &headless.Factory{
		Lookup: func(ctx context.Context, id string) (float64, error) {
			return yt.VideoDuration(ctx, id, ctrl.Credential())
		},
		LookupTimeout: cfg.Search.Timeout,
		Logger:        log.WithField("component", "widget"),
	}
	bridge := player.NewBridge(factory, player.Config{
		PollInterval: cfg.Player.PollInterval,
		Volume:       cfg.Player.DefaultVolume,
		Logger:       log.WithField("component", "player"),
		Metrics:      m,
	})
	ctrl, err := stage.New(ctx, store, yt, bridge, stage.Config{
		ReleaseOnHome: cfg.ReleasesOnHome(),
		Logger:        log.WithField("component", "stage"),
		Metrics:       m,
	})
	if err != nil {
		return nil, err
	}
	log.WithField("stage", ctrl.Stage()).Info("application ready")

	return &handlers.Application{
		Stage:   ctrl,
		Player:  bridge,
		Theme:   &theme.Toggle{},
		Log:     log,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, nil
}
