package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/studio/internal/config"
	"github.com/five82/studio/internal/poller"
	"github.com/five82/studio/internal/prefs"
	"github.com/five82/studio/internal/state"
	"github.com/five82/studio/internal/studio"
	"github.com/five82/studio/internal/ui"
	"github.com/five82/studio/internal/workflow"
)

const preflightTimeout = 5 * time.Second

// Options configure the studio application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/studio/prefs.toml
	APIURL     string // overrides the configured service address
	PollMillis int    // overrides the configured poll interval
	Debug      bool
}

// Run boots the studio TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	cfg = cfg.WithPollInterval(opts.PollMillis)

	sessionID, logger, closeLog, err := openLog(cfg.LogFile, opts.Debug)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	client, err := studio.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init studio client: %w", err)
	}
	logger.Info("studio starting",
		"api", client.BaseURL(),
		"poll_interval", cfg.PollInterval,
		"status_timeout", cfg.StatusTimeout,
		"max_poll_retries", cfg.MaxPollRetries)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	notifier := ui.NewNotifier()
	controller := workflow.NewController(ctx, workflow.Options{
		Generator: client,
		Catalog:   client,
		Poller:    newPoller(client, cfg, logger),
		OnChange:  notifier.Notify,
		Logger:    logger,
	})
	defer controller.Close()

	preflight(ctx, client, controller, store, logger)
	StartHealthMonitor(ctx, store, client, cfg.HealthInterval, logger)

	userPrefs := prefs.Load(opts.PrefsPath).Resolve(ui.PaletteNames())
	err = ui.Run(ui.Options{
		Context:   ctx,
		Workflow:  controller,
		Notifier:  notifier,
		Store:     store,
		APIURL:    client.BaseURL(),
		LogFile:   cfg.LogFile,
		SessionID: sessionID,
		Palette:   userPrefs.Palette,
		PrefsPath: opts.PrefsPath,
	})
	logger.Info("studio stopped", "error", err)
	return err
}

func newPoller(client studio.StatusFetcher, cfg config.Config, logger *slog.Logger) *poller.Poller {
	retries := cfg.MaxPollRetries
	if retries == 0 {
		retries = -1
	}
	return poller.New(client, poller.Options{
		Interval:     cfg.PollInterval,
		QueryTimeout: cfg.StatusTimeout,
		MaxRetries:   retries,
		Logger:       logger,
	})
}

type dispatcher interface {
	Dispatch(workflow.Event) error
}

// preflight loads the theme catalog and the first health reading in
// parallel before the UI starts. Failures are recorded, never fatal.
func preflight(ctx context.Context, catalog studio.CatalogFetcher, d dispatcher, store *state.Store, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	var (
		g         errgroup.Group
		themes    []studio.Theme
		themesErr error
	)
	g.Go(func() error {
		themes, themesErr = catalog.FetchThemes(ctx)
		if themesErr != nil {
			return fmt.Errorf("themes: %w", themesErr)
		}
		return nil
	})
	g.Go(func() error {
		health, err := catalog.FetchHealth(ctx)
		if err != nil {
			store.Update(nil, err)
			return fmt.Errorf("health: %w", err)
		}
		store.Update(&health, nil)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Warn("preflight incomplete", "error", err)
	}

	if themesErr != nil {
		_ = d.Dispatch(workflow.CatalogFailed{Err: themesErr})
		return
	}
	_ = d.Dispatch(workflow.ThemesLoaded{Themes: themes})
	logger.Info("theme catalog loaded", "themes", len(themes))
}
