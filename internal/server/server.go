package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/r3labs/sse/v2"
	"github.com/rs/zerolog/log"

	"github.com/msubham193/iotdashboard/internal/config"
	"github.com/msubham193/iotdashboard/internal/feed"
	"github.com/msubham193/iotdashboard/internal/model"
	"github.com/msubham193/iotdashboard/internal/store"
)

const defaultEventLimit = 50

// Server exposes the dashboard: the JSON API over the store's aggregate
// views, a rebroadcast stream for live page updates, and the embedded
// single-page view itself.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	source feed.Source
	stream *sse.Server
}

// New wires the server to the store. Accepted events are rebroadcast to
// attached dashboard pages over /api/stream.
func New(cfg *config.Config, st *store.Store, src feed.Source) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		source: src,
		stream: sse.New(),
	}
	s.stream.AutoReplay = false
	s.stream.CreateStream(feed.StreamName)

	st.OnEvent(s.rebroadcast)
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	r.Get("/health", healthCheck)
	r.Get("/", s.handleIndex)

	r.Get("/api/summary", s.handleSummary)
	r.Get("/api/timeseries", s.handleTimeSeries)
	r.Get("/api/categories", s.handleCategories)
	r.Get("/api/monthly-active", s.handleMonthlyActive)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/devices/{deviceID}/daily", s.handleDailyActivity)
	r.Get("/api/stream", s.stream.ServeHTTP)

	return r
}

// Close shuts the rebroadcast stream down.
func (s *Server) Close() {
	s.stream.Close()
}

// rebroadcast mirrors one accepted event to attached dashboard pages, using
// the same named-message shape as the upstream push channel.
func (s *Server) rebroadcast(e model.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("event_id", e.ID).Msg("Failed to encode rebroadcast event")
		return
	}
	s.stream.Publish(feed.StreamName, &sse.Event{
		Event: []byte(feed.EventName),
		Data:  data,
	})
}

type summaryResponse struct {
	TotalEvents   int    `json:"total_events"`
	ActiveDevices int    `json:"active_devices"`
	TotalStations int    `json:"total_stations"`
	Connected     bool   `json:"connected"`
	Loading       bool   `json:"loading"`
	LastError     string `json:"last_error,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	connected := false
	if s.source != nil {
		connected = s.source.Connected()
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalEvents:   s.store.Size(),
		ActiveDevices: s.store.ActiveDevices(),
		TotalStations: s.cfg.Dashboard.TotalStations,
		Connected:     connected,
		Loading:       s.store.Loading(),
		LastError:     s.store.LastError(),
	})
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("sorted") == "1" {
		writeJSON(w, http.StatusOK, s.store.TimeSeriesSorted())
		return
	}
	writeJSON(w, http.StatusOK, s.store.TimeSeries())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleMonthlyActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.MonthlyActive())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.store.Events(limit))
}

func (s *Server) handleDailyActivity(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	ref := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	writeJSON(w, http.StatusOK, s.store.DailyActivity(deviceID, ref))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
