package cli

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/config"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/logger"
	"github.com/rileyhilliard/esdbtop/internal/metrics"
	"github.com/rileyhilliard/esdbtop/internal/tui"
)

// Overrides are config values given on the command line. Zero values leave
// the loaded config alone.
type Overrides struct {
	Endpoint        string
	Username        string
	RefreshInterval time.Duration
	LogFile         string
	LogLevel        string
}

// DashboardOptions holds options for the dashboard command.
type DashboardOptions struct {
	ConfigPath  string
	Overrides   Overrides
	MetricsAddr string // empty disables the metrics endpoint
}

// applyOverrides copies the non-zero overrides onto cfg.
func applyOverrides(cfg *config.Config, o Overrides) {
	if o.Endpoint != "" {
		cfg.Endpoint = o.Endpoint
	}
	if o.Username != "" {
		cfg.Username = o.Username
	}
	if o.RefreshInterval > 0 {
		cfg.RefreshInterval = o.RefreshInterval
	}
	if o.LogFile != "" {
		cfg.Log.File = o.LogFile
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
}

// loadConfig reads the config file, applies the overrides and validates the result.
func loadConfig(opts DashboardOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, opts.Overrides)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildViews returns the tabs in display order.
func buildViews(cfg *config.Config, log logger.Logger, cluster tui.ClusterObserver) []tui.View {
	return []tui.View{
		tui.NewDashboardView(log),
		tui.NewStreamsView(cfg.StreamPageSize),
		tui.NewProjectionsView(nil),
		tui.NewSubscriptionsView(cfg.StreamPageSize),
		tui.NewMonitoringView(log, cluster),
	}
}

// dashboardCommand runs the dashboard until the user quits.
func dashboardCommand(ctx context.Context, opts DashboardOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrTUI,
			"esdbtop needs an interactive terminal",
			"Run it directly in a terminal rather than through a pipe")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// The dashboard owns the terminal, so logs go to a file.
	log, closer, err := logger.OpenFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to open the log file",
			"Point log.file or --log-file at a writable path")
	}
	defer closer.Close()
	logger.SetDefault(log)

	src, err := client.NewHTTPClient(client.Options{
		Endpoint:           cfg.Endpoint,
		Username:           cfg.Username,
		Password:           cfg.Password,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.Timeout,
		Logger:             log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		fetches tui.FetchObserver
		cluster tui.ClusterObserver
	)
	if opts.MetricsAddr != "" {
		rec := metrics.NewRecorder()
		if err := rec.Serve(ctx, opts.MetricsAddr, log); err != nil {
			return err
		}
		fetches, cluster = rec, rec
	}

	log.Info("Connecting to %s", cfg.Endpoint)
	session := tui.NewSession(tui.Options{
		Source:          src,
		Views:           buildViews(cfg, log, cluster),
		Logger:          log,
		TickInterval:    cfg.TickInterval,
		RefreshInterval: cfg.RefreshInterval,
		Observer:        fetches,
	})

	p := tea.NewProgram(session, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrTUI,
			"The dashboard stopped unexpectedly",
			"Check "+cfg.Log.File+" for details")
	}
	log.Info("Session ended")
	return nil
}
