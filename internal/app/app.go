// Package app assembles a client from configuration: session, router, gate,
// consumers, metrics and the recording library.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/swarmctl/internal/clock"
	"grimm.is/swarmctl/internal/config"
	"grimm.is/swarmctl/internal/consumer"
	"grimm.is/swarmctl/internal/events"
	"grimm.is/swarmctl/internal/gate"
	"grimm.is/swarmctl/internal/logging"
	"grimm.is/swarmctl/internal/metrics"
	"grimm.is/swarmctl/internal/recording"
	"grimm.is/swarmctl/internal/router"
	"grimm.is/swarmctl/internal/session"
)

// Options controls what New builds beyond the core.
type Options struct {
	Config *config.Config
	Clock  clock.Clock
	Logger *logging.Logger

	// NoStore skips opening the recording library.
	NoStore bool
	// ExportDir, if set, also writes each received recording there.
	ExportDir string
	// DisplayHook mirrors parameter requests in a UI.
	DisplayHook gate.DisplayHook
}

// App is one wired client.
type App struct {
	Config *config.Config

	Hub      *events.Hub
	Session  *session.Session
	Router   *router.Router
	Gate     *gate.Gate
	Registry *metrics.Registry
	Metrics  *metrics.Collector

	Field     *consumer.Field
	Analytics *consumer.AnalyticsPanel
	Behavior  *consumer.BehaviorStatus
	Sink      *consumer.RecordingSink
	Store     *recording.Store

	logger *logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	metrics *http.Server
}

// GateRules converts the configured parameter table for the gate.
func GateRules(cfg *config.Config) ([]gate.Rule, error) {
	resolved := cfg.ParameterRules()
	rules := make([]gate.Rule, 0, len(resolved))
	for _, r := range resolved {
		p, err := gate.ParsePolicy(r.Policy)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", r.Name, err)
		}
		rules = append(rules, gate.Rule{Name: r.Name, Policy: p, Min: r.Min, Max: r.Max})
	}
	return rules, nil
}

// SessionConfig converts the configured server and reconnect blocks.
func SessionConfig(cfg *config.Config) session.Config {
	sc := session.DefaultConfig(cfg.Server.Host)
	sc.Secure = cfg.Server.Secure
	sc.HandshakeTimeout = cfg.HandshakeTimeout()
	sc.BaseDelay = cfg.BaseDelay()
	sc.MaxDelay = cfg.MaxDelay()
	sc.MaxRetries = cfg.Reconnect.MaxRetries
	return sc
}

// New wires a client. Nothing is dialed until Connect.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ApplyDefaults()

	clk := opts.Clock
	if clk == nil {
		clk = clock.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("app")
	}

	rules, err := GateRules(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Hub:       events.NewHub(),
		Field:     consumer.NewField(consumer.DefaultTrailAge),
		Analytics: consumer.NewAnalyticsPanel(),
		logger:    logger,
	}
	a.Registry = metrics.NewRegistry(prometheus.NewRegistry())
	a.Metrics = metrics.NewCollector(a.Hub, a.Registry, nil)

	a.Session = session.New(SessionConfig(cfg),
		session.WithClock(clk),
		session.WithHub(a.Hub),
	)
	a.Router = router.New(router.WithHub(a.Hub), router.WithClock(clk))
	a.Session.OnFrame(a.Router.Dispatch)

	gateOpts := []gate.Option{
		gate.WithRules(rules),
		gate.WithDebounceWindow(cfg.DebounceWindow()),
		gate.WithClock(clk),
		gate.WithHub(a.Hub),
	}
	if opts.DisplayHook != nil {
		gateOpts = append(gateOpts, gate.WithDisplayHook(opts.DisplayHook))
	}
	a.Gate = gate.New(a.Session, gateOpts...)

	a.Behavior = consumer.NewBehaviorStatus(clk, func(r consumer.BehaviorResult) {
		logger.Info("behavior response", "success", r.Success, "message", r.Message)
	})

	consumer.Attach(a.Router, "field", a.Field)
	consumer.Attach(a.Router, "analytics", a.Analytics)
	consumer.Attach(a.Router, "behavior", a.Behavior)

	if !opts.NoStore {
		store, err := recording.Open(recording.Options{Path: cfg.Recordings.Path, Clock: clk})
		if err != nil {
			return nil, err
		}
		a.Store = store

		sinkOpts := []consumer.SinkOption{
			consumer.WithSavedHook(func(rec recording.Recording, path string) {
				logger.Info("recording saved", "id", rec.ID, "frames", rec.Frames, "export", path)
			}),
		}
		if opts.ExportDir != "" {
			sinkOpts = append(sinkOpts, consumer.WithExportDir(opts.ExportDir))
		}
		a.Sink = consumer.NewRecordingSink(store, sinkOpts...)
		consumer.Attach(a.Router, "recordings", a.Sink)
	}

	return a, nil
}

// Start runs the metrics bridge and, when configured, the metrics
// endpoint. It returns once they are running.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.ctx, a.cancel = ctx, cancel
	a.mu.Unlock()

	go a.Metrics.Run(ctx)

	if a.Config.Metrics == nil || a.Config.Metrics.Listen == "" {
		return nil
	}

	ln, err := net.Listen("tcp", a.Config.Metrics.Listen)
	if err != nil {
		cancel()
		return fmt.Errorf("metrics listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Registry.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	a.mu.Lock()
	a.metrics = srv
	a.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()
	a.logger.Info("metrics listening", "addr", ln.Addr().String())
	return nil
}

// dropNotOpen strips ErrNotOpen from a joined flush error. Values that
// could not be sent because the socket is gone are expected on shutdown;
// every other send failure is kept.
func dropNotOpen(err error) error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		if errors.Is(err, session.ErrNotOpen) {
			return nil
		}
		return err
	}
	var kept []error
	for _, e := range joined.Unwrap() {
		if !errors.Is(e, session.ErrNotOpen) {
			kept = append(kept, e)
		}
	}
	return errors.Join(kept...)
}

func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// Connect dials the server. A failure still leaves the session retrying.
func (a *App) Connect() error {
	return a.Session.Connect(a.context())
}

// Close flushes pending parameter changes and shuts everything down.
func (a *App) Close() error {
	var errs []error
	if err := dropNotOpen(a.Gate.Flush()); err != nil {
		errs = append(errs, err)
	}
	a.Gate.Stop()

	if err := a.Session.Close(); err != nil {
		errs = append(errs, err)
	}

	a.mu.Lock()
	cancel, srv := a.cancel, a.metrics
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if srv != nil {
		ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
