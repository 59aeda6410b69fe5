package main

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/duel/internal/adapters/audio"
	"github.com/okian/duel/internal/adapters/http/api"
	"github.com/okian/duel/internal/adapters/http/live"
	"github.com/okian/duel/internal/adapters/http/site"
	"github.com/okian/duel/internal/adapters/http/swagger"
	"github.com/okian/duel/internal/adapters/input"
	"github.com/okian/duel/internal/adapters/terminal"
	app "github.com/okian/duel/internal/app"
	"github.com/okian/duel/internal/config"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
	logFilePermission         = 0o600
	reportQueueName           = "reports"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("duel: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// The Go and process collectors are replaced by the system updater below.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// stdout belongs to the terminal, so nothing is logged until the
	// configured log file is known.
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	closeLog, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.Get()

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}

	hub := live.NewHub(live.DefaultConfig(), log.Named("live"))
	svc.Subscribe(hub)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	var srv *http.Server
	if cfg.HTTPEnabled {
		srv = newHTTPServer(ctx, cfg, svc, hub)
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
	}

	tones := audio.NewTones(log.Named("audio"))
	if cfg.Audio {
		if err := tones.Init(ctx); err != nil {
			log.Warn(ctx, "audio disabled", logger.Error(err))
		}
	}
	defer tones.Close()

	screen, err := terminal.Open()
	if err != nil {
		return err
	}
	keys := input.NewBuffer(input.WithHold(cfg.KeyHold))
	game := terminal.New(screen, svc, keys,
		terminal.WithSounds(tones),
		terminal.WithLogger(log.Named("terminal")),
	)
	gameErr := game.Run(ctx)
	screen.Fini()
	stop()

	log.Info(ctx, "shutting down...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
	}
	if gameErr != nil && !errors.Is(gameErr, context.Canceled) {
		return gameErr
	}
	return nil
}

// initLogging points the global logger at the configured file and applies
// the configured level. The returned func closes the file.
func initLogging(cfg *config.Config) (func(), error) {
	var (
		out     io.Writer = io.Discard
		closeFn           = func() {}
	)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, err
		}
		out = f
		closeFn = func() {
			_ = logger.Sync()
			_ = f.Close()
		}
	}
	if err := logger.Init(logger.WithOutput(out), logger.WithJSON(true)); err != nil {
		closeFn()
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return closeFn, nil
}

// newService builds the session from configuration.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithRoundConfig(cfg.RoundConfig()),
		app.WithTiming(cfg.Timing()),
		app.WithQueueSize(cfg.ReportQueueSize),
		app.WithRecorderWorkers(cfg.RecorderWorkers),
		app.WithHistorySize(cfg.HistorySize),
	}
	if cfg.Seed != 0 {
		opts = append(opts, app.WithRand(rand.New(rand.NewSource(cfg.Seed)))) //nolint:gosec // gameplay randomness
	}
	return app.New(opts...)
}

// newHTTPServer mounts the docs, the API, the live feed and the viewer page.
func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service, hub http.Handler) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxRoundsLimit),
		api.WithLive(hub),
	)
	apiServer.Register(ctx, mux)
	site.Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics mirrors the session snapshot into gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	metrics.UpdateQueueSize(reportQueueName, stats.ReportsQueued)
	metrics.UpdateLiveSubscribers(stats.Subscribers)
}
