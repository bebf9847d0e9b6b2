package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/studio/internal/config"
	"github.com/five82/studio/internal/logtail"
	"github.com/five82/studio/internal/poller"
	"github.com/five82/studio/internal/state"
	"github.com/five82/studio/internal/studio"
	"github.com/five82/studio/internal/workflow"
)

type fakeCatalog struct {
	themes    []studio.Theme
	themesErr error
	healthErr error
}

func (c fakeCatalog) FetchThemes(ctx context.Context) ([]studio.Theme, error) {
	return c.themes, c.themesErr
}

func (c fakeCatalog) FetchHealth(ctx context.Context) (studio.Health, error) {
	if c.healthErr != nil {
		return studio.Health{}, c.healthErr
	}
	return studio.Health{Status: studio.HealthDegraded, Detail: "tts slow"}, nil
}

type recordingDispatcher struct {
	events []workflow.Event
}

func (d *recordingDispatcher) Dispatch(ev workflow.Event) error {
	d.events = append(d.events, ev)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPreflight_LoadsThemesAndHealth(t *testing.T) {
	catalog := fakeCatalog{themes: []studio.Theme{{ID: "space", Name: "Space"}}}
	d := &recordingDispatcher{}
	store := &state.Store{}

	preflight(context.Background(), catalog, d, store, discardLogger())

	if len(d.events) != 1 {
		t.Fatalf("events = %#v, want one ThemesLoaded", d.events)
	}
	loaded, ok := d.events[0].(workflow.ThemesLoaded)
	if !ok || len(loaded.Themes) != 1 || loaded.Themes[0].ID != "space" {
		t.Fatalf("event = %#v, want ThemesLoaded with space", d.events[0])
	}
	snap := store.Snapshot()
	if !snap.HasHealth || snap.Health.Status != studio.HealthDegraded {
		t.Fatalf("health = %#v, want degraded", snap.Health)
	}
}

func TestPreflight_HealthFailureDoesNotBlockThemes(t *testing.T) {
	catalog := fakeCatalog{
		themes:    []studio.Theme{{ID: "ocean", Name: "Ocean"}},
		healthErr: errors.New("connection refused"),
	}
	d := &recordingDispatcher{}
	store := &state.Store{}

	preflight(context.Background(), catalog, d, store, discardLogger())

	if _, ok := d.events[0].(workflow.ThemesLoaded); !ok || len(d.events) != 1 {
		t.Fatalf("events = %#v, want only ThemesLoaded", d.events)
	}
	if store.Snapshot().LastError == nil {
		t.Fatalf("health failure not recorded in store")
	}
}

func TestPreflight_ThemesFailureRaisesBanner(t *testing.T) {
	catalog := fakeCatalog{themesErr: &studio.NetworkError{Op: "fetch themes", StatusCode: 502}}
	d := &recordingDispatcher{}

	preflight(context.Background(), catalog, d, &state.Store{}, discardLogger())

	if len(d.events) != 1 {
		t.Fatalf("events = %#v, want one CatalogFailed", d.events)
	}
	failed, ok := d.events[0].(workflow.CatalogFailed)
	if !ok {
		t.Fatalf("event = %#v, want CatalogFailed", d.events[0])
	}
	var netErr *studio.NetworkError
	if !errors.As(failed.Err, &netErr) || netErr.StatusCode != 502 {
		t.Fatalf("CatalogFailed.Err = %v, want the NetworkError", failed.Err)
	}
}

type failingStatus struct {
	calls atomic.Int32
}

func (f *failingStatus) FetchStatus(ctx context.Context, h studio.Handle) (studio.Progress, error) {
	f.calls.Add(1)
	return studio.Progress{}, &studio.NetworkError{Op: "fetch status", Err: errors.New("connection reset")}
}

func TestNewPoller_ZeroRetriesFailsOnFirstError(t *testing.T) {
	cfg := config.Default()
	cfg.MaxPollRetries = 0
	cfg.PollInterval = time.Millisecond
	fetcher := &failingStatus{}

	p := newPoller(fetcher, cfg, discardLogger())
	errs := make(chan error, 1)
	p.Poll(context.Background(), studio.Handle{ID: "a1"}, poller.Callbacks{
		OnError: func(err error) { errs <- err },
	})

	select {
	case err := <-errs:
		var pollErr *poller.PollError
		if !errors.As(err, &pollErr) {
			t.Fatalf("OnError = %v, want PollError", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("poll never failed")
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("status queries = %d, want 1", got)
	}
}

func TestOpenLog_WritesSessionTaggedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "studio.log")

	sessionID, logger, closeLog, err := openLog(path, false)
	if err != nil {
		t.Fatalf("openLog returned error: %v", err)
	}
	logger.Info("hello", "state", "theme")
	logger.Debug("hidden")
	closeLog()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(raw), "hidden") {
		t.Fatalf("debug record written without -debug: %s", raw)
	}

	entries, err := logtail.ReadEntries(path, 10, sessionID)
	if err != nil {
		t.Fatalf("ReadEntries returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "hello" || entries[0].Level != "INFO" {
		t.Fatalf("entries = %v, want one hello record", entries)
	}
	if v, _ := entries[0].Attr("state"); v != "theme" {
		t.Fatalf("state attr = %q, want theme", v)
	}
}
