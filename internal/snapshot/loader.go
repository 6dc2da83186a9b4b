package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/msubham193/iotdashboard/internal/model"
	"github.com/msubham193/iotdashboard/internal/store"
)

// FetchError is a failed snapshot retrieval: a non-2xx response (Status set)
// or a transport failure (Err set).
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("snapshot fetch failed: status %d", e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Loader retrieves the full event collection from the telemetry server's
// GET /getData endpoint.
type Loader struct {
	baseURL string
	client  *http.Client
}

// NewLoader creates a loader for the given telemetry server base URL.
func NewLoader(baseURL string, timeout time.Duration) *Loader {
	return &Loader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch issues one uncached read of the current event collection. Every
// failure is a *FetchError; the caller decides what to do with the store.
func (l *Loader) Fetch(ctx context.Context) ([]model.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/getData", nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Status: resp.StatusCode}
	}

	var snap model.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, &FetchError{Err: err}
	}

	log.Debug().Int("events", len(snap.Data)).Msg("Snapshot fetched")
	return snap.Data, nil
}

// LoadInto runs the startup snapshot against the store: the loading flag is
// set for the duration of the fetch and cleared in every outcome. A failure
// records a user-visible message and leaves the store contents untouched; a
// success merges the collection in.
func (l *Loader) LoadInto(ctx context.Context, st *store.Store) error {
	st.SetLoading(true)
	defer st.SetLoading(false)

	events, err := l.Fetch(ctx)
	if err != nil {
		st.SetError(err.Error())
		log.Error().Err(err).Msg("Snapshot load failed")
		return err
	}
	st.LoadSnapshot(events)
	return nil
}
