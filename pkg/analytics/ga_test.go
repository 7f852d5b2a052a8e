package analytics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdocs/payments/pkg/analytics"
)

func TestNew_WithoutTrackingID(t *testing.T) {
	t.Parallel()

	tracker := analytics.New(analytics.Config{})
	assert.IsType(t, analytics.NoopTracker{}, tracker)
	assert.NoError(t, tracker.Track(t.Context(), "monthly-payments", "subscription-created", "10.00"))
}

func TestGATracker_Track(t *testing.T) {
	t.Parallel()

	t.Run("sends measurement protocol event", func(t *testing.T) {
		t.Parallel()

		var got map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			got = map[string]string{
				"v":   r.PostForm.Get("v"),
				"tid": r.PostForm.Get("tid"),
				"t":   r.PostForm.Get("t"),
				"ec":  r.PostForm.Get("ec"),
				"ea":  r.PostForm.Get("ea"),
				"el":  r.PostForm.Get("el"),
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		tracker := analytics.New(analytics.Config{
			TrackingID:  "UA-XXXX-1",
			Endpoint:    srv.URL,
			RaiseErrors: true,
		})

		err := tracker.Track(t.Context(), "monthly-payments", "subscription-created", "10.00")
		require.NoError(t, err)

		assert.Equal(t, "1", got["v"])
		assert.Equal(t, "UA-XXXX-1", got["tid"])
		assert.Equal(t, "event", got["t"])
		assert.Equal(t, "monthly-payments", got["ec"])
		assert.Equal(t, "subscription-created", got["ea"])
		assert.Equal(t, "10.00", got["el"])
	})

	t.Run("swallows errors by default", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		tracker := analytics.New(analytics.Config{TrackingID: "UA-XXXX-1", Endpoint: srv.URL})
		assert.NoError(t, tracker.Track(t.Context(), "monthly-payments", "subscription-canceled", "webhook"))
	})

	t.Run("raises errors when configured", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		tracker := analytics.New(analytics.Config{
			TrackingID:  "UA-XXXX-1",
			Endpoint:    srv.URL,
			RaiseErrors: true,
		})
		assert.ErrorIs(t,
			tracker.Track(t.Context(), "monthly-payments", "subscription-canceled", "webhook"),
			analytics.ErrTrackingFailed)
	})
}
