package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/r3labs/sse/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msubham193/iotdashboard/internal/config"
	"github.com/msubham193/iotdashboard/internal/feed"
	"github.com/msubham193/iotdashboard/internal/model"
	"github.com/msubham193/iotdashboard/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Dashboard: config.DashboardConfig{TotalStations: 100},
	}
}

func seedEvents(st *store.Store) {
	day := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	st.LoadSnapshot([]model.Event{
		{ID: "a", DeviceID: "D1", Date: "2024-02-20", Time: "08:00", TouchDetected: "YES", CreatedAt: day.Add(8 * time.Hour)},
		{ID: "b", DeviceID: "D1", Date: "2024-02-20", Time: "17:00", TouchDetected: "YES", CreatedAt: day.Add(17 * time.Hour)},
		{ID: "c", DeviceID: "D2", Date: "2024-02-21", Time: "09:15", TouchDetected: "NO", CreatedAt: day.AddDate(0, 0, 1).Add(9 * time.Hour)},
	})
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func newTestServer(t *testing.T, st *store.Store, connected bool) *httptest.Server {
	t.Helper()
	s := New(testConfig(), st, &sourceStub{connected: connected})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return srv
}

// sourceStub satisfies feed.Source for handler tests.
type sourceStub struct{ connected bool }

func (s *sourceStub) Start(ctx context.Context) error { return nil }
func (s *sourceStub) Connected() bool                 { return s.connected }
func (s *sourceStub) Close() error                    { return nil }

func TestSummary(t *testing.T) {
	st := store.New()
	seedEvents(st)
	srv := newTestServer(t, st, true)

	var got summaryResponse
	resp := getJSON(t, srv, "/api/summary", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, got.TotalEvents)
	assert.Equal(t, 2, got.ActiveDevices)
	assert.Equal(t, 100, got.TotalStations)
	assert.True(t, got.Connected)
	assert.False(t, got.Loading)
	assert.Empty(t, got.LastError)
}

func TestSummarySurfacesSnapshotFailure(t *testing.T) {
	st := store.New()
	st.SetError("snapshot fetch failed: status 500")
	srv := newTestServer(t, st, false)

	var got summaryResponse
	getJSON(t, srv, "/api/summary", &got)
	assert.Equal(t, 0, got.TotalEvents)
	assert.False(t, got.Connected)
	assert.Contains(t, got.LastError, "500")
}

func TestTimeSeries(t *testing.T) {
	st := store.New()
	seedEvents(st)
	srv := newTestServer(t, st, true)

	var got []store.DateCount
	getJSON(t, srv, "/api/timeseries", &got)
	// First-seen order over the descending collection.
	assert.Equal(t, []store.DateCount{
		{Date: "2/21/2024", Count: 1},
		{Date: "2/20/2024", Count: 2},
	}, got)

	var sorted []store.DateCount
	getJSON(t, srv, "/api/timeseries?sorted=1", &sorted)
	assert.Equal(t, []store.DateCount{
		{Date: "2/20/2024", Count: 2},
		{Date: "2/21/2024", Count: 1},
	}, sorted)
}

func TestCategories(t *testing.T) {
	st := store.New()
	seedEvents(st)
	srv := newTestServer(t, st, true)

	var got []store.CategoryCount
	getJSON(t, srv, "/api/categories", &got)
	total := 0
	for _, c := range got {
		total += c.Count
	}
	assert.Equal(t, 3, total)
}

func TestMonthlyActive(t *testing.T) {
	st := store.New()
	seedEvents(st)
	srv := newTestServer(t, st, true)

	var got []store.MonthCount
	getJSON(t, srv, "/api/monthly-active", &got)
	assert.Equal(t, []store.MonthCount{{Month: "2024-02", Devices: 2}}, got)
}

func TestEventsLimit(t *testing.T) {
	st := store.New()
	seedEvents(st)
	srv := newTestServer(t, st, true)

	var got []model.Event
	getJSON(t, srv, "/api/events?limit=2", &got)
	require.Len(t, got, 2)
	// Descending order: the newest event leads.
	assert.Equal(t, "c", got[0].ID)

	resp := getJSON(t, srv, "/api/events?limit=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDailyActivityEndpoint(t *testing.T) {
	st := store.New()
	seedEvents(st)
	srv := newTestServer(t, st, true)

	var got store.DailyActivity
	getJSON(t, srv, "/api/devices/D1/daily?date=2024-02-20", &got)
	assert.Equal(t, 2, got.TouchCount)
	assert.Equal(t, "17:00", got.FirstTouch)
	assert.Equal(t, "08:00", got.LastTouch)

	var miss store.DailyActivity
	getJSON(t, srv, "/api/devices/D9/daily?date=2024-02-20", &miss)
	assert.Equal(t, 0, miss.TouchCount)
	assert.Equal(t, store.TimeNotAvailable, miss.FirstTouch)

	resp := getJSON(t, srv, "/api/devices/D1/daily?date=20-02-2024", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndIndex(t *testing.T) {
	srv := newTestServer(t, store.New(), false)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
}

func TestRebroadcastOnIngest(t *testing.T) {
	st := store.New()
	srv := newTestServer(t, st, true)

	events := make(chan *sse.Event, 8)
	client := sse.NewClient(srv.URL + "/api/stream")
	require.NoError(t, client.SubscribeChan(feed.StreamName, events))
	defer client.Unsubscribe(events)

	st.Ingest(model.Event{
		ID: "live-1", DeviceID: "D5", Date: "2024-06-01", Time: "10:00",
		TouchDetected: "YES", CreatedAt: time.Now(),
	})

	select {
	case msg := <-events:
		assert.Equal(t, feed.EventName, string(msg.Event))
		var e model.Event
		require.NoError(t, json.Unmarshal(msg.Data, &e))
		assert.Equal(t, "live-1", e.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("rebroadcast event never arrived")
	}
}
