package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds Google Analytics Measurement Protocol settings.
// An empty TrackingID disables tracking; New returns a NoopTracker in that
// case so call sites don't need to branch.
type Config struct {
	TrackingID  string        `env:"GA_TRACKING_ID"`
	Endpoint    string        `env:"GA_ENDPOINT" envDefault:"https://www.google-analytics.com/collect"`
	Timeout     time.Duration `env:"GA_TIMEOUT" envDefault:"5s"`
	RaiseErrors bool          `env:"GA_RAISE_ERRORS" envDefault:"false"`
}

var ErrTrackingFailed = errors.New("analytics tracking request failed")

// GATracker sends events to Google Analytics via the Measurement Protocol.
type GATracker struct {
	cfg    Config
	client *http.Client
}

// New returns a Tracker for the config. Without a tracking id it returns
// NoopTracker.
func New(cfg Config) Tracker {
	if cfg.TrackingID == "" {
		return NoopTracker{}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://www.google-analytics.com/collect"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &GATracker{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Track implements Tracker.
//
// Server-side events have no browser session, so each event gets a fresh
// anonymous client id. Failures are returned only when RaiseErrors is set;
// otherwise tracking is best-effort and the error is swallowed here because
// analytics must never break the calling request.
func (t *GATracker) Track(ctx context.Context, category, action, label string) error {
	err := t.send(ctx, category, action, label)
	if err != nil && t.cfg.RaiseErrors {
		return err
	}
	return nil
}

func (t *GATracker) send(ctx context.Context, category, action, label string) error {
	form := url.Values{
		"v":   {"1"},
		"tid": {t.cfg.TrackingID},
		"cid": {uuid.NewString()},
		"t":   {"event"},
		"ec":  {category},
		"ea":  {action},
	}
	if label != "" {
		form.Set("el", label)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Join(ErrTrackingFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Join(ErrTrackingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Join(ErrTrackingFailed, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
