package daemonserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"roman-numerals/go-backend/internal/adapters/rpc"
	"roman-numerals/go-backend/internal/app"
	"roman-numerals/go-backend/internal/bootstrap/daemonconfig"
	"roman-numerals/go-backend/internal/platform/privacylog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options carries command-line overrides. Non-empty fields win over both the
// config file and the environment.
type Options struct {
	ConfigPath string
	RPCAddr    string
	RPCToken   string
	Version    string
	LogOutput  io.Writer
}

// Daemon owns the wired converter service and its HTTP transport.
type Daemon struct {
	opts   Options
	cfg    daemonconfig.Config
	logger *slog.Logger
	level  *slog.LevelVar
	server *rpc.Server
}

func New(opts Options) (*Daemon, error) {
	cfg, err := daemonconfig.LoadFromPath(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlagOverrides(&cfg, opts); err != nil {
		return nil, err
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Log.Level))
	logger := NewLogger(cfg.Log.Format, level, opts.LogOutput)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := app.NewService(app.ServiceOptions{
		Logger:        logger,
		Registerer:    registry,
		PublishEvents: cfg.EventsEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("build converter service: %w", err)
	}
	srv := rpc.NewServerWithService(cfg, svc,
		rpc.WithLogger(logger),
		rpc.WithGatherer(registry),
		rpc.WithVersion(opts.Version),
	)
	return &Daemon{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		level:  level,
		server: srv,
	}, nil
}

// Run serves until ctx is cancelled. With an explicit config path the file is
// watched and reloadable settings are applied on change.
func (d *Daemon) Run(ctx context.Context) error {
	if d.opts.ConfigPath != "" {
		go func() {
			err := daemonconfig.Watch(ctx, d.opts.ConfigPath, d.reload, func(err error) {
				d.logger.Warn("config reload failed", "path", d.opts.ConfigPath, "error", err)
			})
			if err != nil {
				d.logger.Warn("config watch disabled", "path", d.opts.ConfigPath, "error", err)
			}
		}()
	}
	d.logger.Info("roman daemon starting",
		"addr", d.cfg.RPCAddr,
		"env", d.cfg.Env,
		"version", d.opts.Version,
		"rate_limit_enabled", d.cfg.RateLimit.Enabled,
	)
	err := d.server.Run(ctx)
	d.logger.Info("roman daemon stopped")
	return err
}

func (d *Daemon) Handler() http.Handler {
	return d.server.Handler()
}

func (d *Daemon) Config() daemonconfig.Config {
	return d.cfg
}

func (d *Daemon) reload(cfg daemonconfig.Config) {
	if err := applyFlagOverrides(&cfg, d.opts); err != nil {
		d.logger.Warn("config reload rejected", "error", err)
		return
	}
	d.level.Set(parseLevel(cfg.Log.Level))
	d.server.Reconfigure(cfg)
}

func applyFlagOverrides(cfg *daemonconfig.Config, opts Options) error {
	if addr := strings.TrimSpace(opts.RPCAddr); addr != "" {
		cfg.RPCAddr = addr
	}
	if token := strings.TrimSpace(opts.RPCToken); token != "" {
		cfg.RPCToken = token
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NewLogger builds the daemon logger. Every record passes through the
// privacy sanitizer before reaching the output.
func NewLogger(format string, level slog.Leveler, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(privacylog.WrapHandler(h))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
