// Package testserver emulates the remote telemetry server for tests: the
// GET /getData snapshot endpoint and the /stream push channel.
package testserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"

	"github.com/msubham193/iotdashboard/internal/feed"
	"github.com/msubham193/iotdashboard/internal/model"
)

type Server struct {
	httpServer *httptest.Server
	stream     *sse.Server

	mu             sync.Mutex
	snapshot       []model.Event
	snapshotStatus int
}

func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		stream:         sse.New(),
		snapshotStatus: http.StatusOK,
	}
	s.stream.AutoReplay = false
	s.stream.CreateStream(feed.StreamName)

	r := chi.NewRouter()
	r.Get("/getData", s.handleSnapshot)
	r.Get("/stream", s.stream.ServeHTTP)

	s.httpServer = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// URL is the emulated server's base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// SetSnapshot sets the collection returned by /getData.
func (s *Server) SetSnapshot(events []model.Event) {
	s.mu.Lock()
	s.snapshot = events
	s.snapshotStatus = http.StatusOK
	s.mu.Unlock()
}

// FailSnapshot makes /getData answer with the given status code.
func (s *Server) FailSnapshot(status int) {
	s.mu.Lock()
	s.snapshotStatus = status
	s.mu.Unlock()
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.snapshotStatus
	events := s.snapshot
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.Snapshot{Data: events})
}

// Publish pushes one event over the stream as a new-data message.
func (s *Server) Publish(e model.Event) {
	data, _ := json.Marshal(e)
	s.stream.Publish(feed.StreamName, &sse.Event{
		Event: []byte(feed.EventName),
		Data:  data,
	})
}

// PublishRaw pushes an arbitrary payload as a new-data message, for
// exercising malformed-delivery handling.
func (s *Server) PublishRaw(data []byte) {
	s.stream.Publish(feed.StreamName, &sse.Event{
		Event: []byte(feed.EventName),
		Data:  data,
	})
}

func (s *Server) Close() {
	s.stream.Close()
	s.httpServer.Close()
}

// NewEvent builds an event fixture with a generated ID.
func NewEvent(device string, created time.Time, detected string) model.Event {
	return model.Event{
		ID:            uuid.New().String(),
		DeviceID:      device,
		Date:          created.Format("2006-01-02"),
		Time:          created.Format("15:04"),
		TouchDetected: detected,
		CreatedAt:     created,
	}
}
