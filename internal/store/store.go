package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/msubham193/iotdashboard/internal/model"
)

// TimeNotAvailable is reported by DailyActivity when a device has no
// matching touches on the requested day.
const TimeNotAvailable = "N/A"

// DateCount is one bucket of the time-series view.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CategoryCount is one bucket of the touch_detected distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// MonthCount is the distinct-device count for one calendar month.
type MonthCount struct {
	Month   string `json:"month"`
	Devices int    `json:"devices"`
}

// DailyActivity summarizes one device's positive touches on one calendar day.
// FirstTouch is the top entry of the descending-ordered collection and
// LastTouch the bottom one, mirroring how the dashboard labels the day's
// login/logout boundaries. There are no real session-boundary events, so this
// is a positional heuristic, not an actual pairing.
type DailyActivity struct {
	DeviceID   string `json:"device_id"`
	TouchCount int    `json:"touch_count"`
	FirstTouch string `json:"first_touch"`
	LastTouch  string `json:"last_touch"`
}

// Store owns the session's event collection and the aggregate views derived
// from it. Events are deduplicated by ID and kept in descending CreatedAt
// order; every accepted mutation recomputes all views in full before the
// mutating call returns. All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
	seen   map[string]struct{}

	timeSeries []DateCount
	categories []CategoryCount
	monthly    []MonthCount
	active     int

	loading   bool
	lastError string

	onEvent func(model.Event)
}

// New returns an empty store.
func New() *Store {
	return &Store{seen: make(map[string]struct{})}
}

// OnEvent registers a listener invoked after every accepted ingest, outside
// the store lock. Used to rebroadcast live events to attached dashboards.
// Must be called before the producers start.
func (s *Store) OnEvent(fn func(model.Event)) {
	s.onEvent = fn
}

// LoadSnapshot merges the snapshot into the store. Events already ingested
// from the live feed are kept, so a feed message racing ahead of the snapshot
// response is never lost; duplicates between the two paths collapse by ID.
// The collection is re-sorted and all views recomputed before returning.
func (s *Store) LoadSnapshot(events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, e := range events {
		if _, ok := s.seen[e.ID]; ok {
			continue
		}
		s.seen[e.ID] = struct{}{}
		s.events = append(s.events, e)
		added++
	}
	s.sortLocked()
	s.recomputeLocked()
	s.lastError = ""

	log.Info().Int("received", len(events)).Int("added", added).
		Int("total", len(s.events)).Msg("Snapshot loaded")
}

// Ingest inserts one event unless its ID is already present. Duplicate
// delivery is a no-op, not an update. On insert the collection is re-sorted
// descending and every aggregate view recomputed before Ingest returns.
func (s *Store) Ingest(e model.Event) {
	s.mu.Lock()
	if _, ok := s.seen[e.ID]; ok {
		s.mu.Unlock()
		log.Debug().Str("event_id", e.ID).Msg("Duplicate event ignored")
		return
	}
	s.seen[e.ID] = struct{}{}
	s.events = append(s.events, e)
	s.sortLocked()
	s.recomputeLocked()
	fn := s.onEvent
	s.mu.Unlock()

	if fn != nil {
		fn(e)
	}
}

func (s *Store) sortLocked() {
	sort.Slice(s.events, func(i, j int) bool {
		return s.events[i].CreatedAt.After(s.events[j].CreatedAt)
	})
}

// recomputeLocked rebuilds all aggregate views with one pass per view over
// the full collection. No delta maintenance: correctness over cleverness at
// dashboard scale.
func (s *Store) recomputeLocked() {
	s.timeSeries = s.timeSeries[:0]
	dateIdx := make(map[string]int)
	for _, e := range s.events {
		key := calendarDate(e.CreatedAt)
		if i, ok := dateIdx[key]; ok {
			s.timeSeries[i].Count++
			continue
		}
		dateIdx[key] = len(s.timeSeries)
		s.timeSeries = append(s.timeSeries, DateCount{Date: key, Count: 1})
	}

	s.categories = s.categories[:0]
	catIdx := make(map[string]int)
	for _, e := range s.events {
		if i, ok := catIdx[e.TouchDetected]; ok {
			s.categories[i].Count++
			continue
		}
		catIdx[e.TouchDetected] = len(s.categories)
		s.categories = append(s.categories, CategoryCount{Category: e.TouchDetected, Count: 1})
	}

	s.monthly = s.monthly[:0]
	monthIdx := make(map[string]int)
	monthDevices := make(map[string]map[string]struct{})
	for _, e := range s.events {
		key := fmt.Sprintf("%d-%02d", e.CreatedAt.Year(), int(e.CreatedAt.Month()))
		devices, ok := monthDevices[key]
		if !ok {
			devices = make(map[string]struct{})
			monthDevices[key] = devices
			monthIdx[key] = len(s.monthly)
			s.monthly = append(s.monthly, MonthCount{Month: key})
		}
		if _, ok := devices[e.DeviceID]; !ok {
			devices[e.DeviceID] = struct{}{}
			s.monthly[monthIdx[key]].Devices++
		}
	}

	activeDevices := make(map[string]struct{})
	for _, e := range s.events {
		if e.Date == model.PlaceholderDate {
			continue
		}
		activeDevices[e.DeviceID] = struct{}{}
	}
	s.active = len(activeDevices)
}

// calendarDate renders the timestamp's calendar day as M/D/YYYY in the
// timestamp's own location, matching how the dashboard labels its buckets.
// Timestamps are deliberately not normalized to UTC.
func calendarDate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%d/%d/%d", int(m), d, y)
}

// Size reports the number of events currently held.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Events returns a copy of the collection in descending CreatedAt order.
// A non-positive limit returns everything.
func (s *Store) Events(limit int) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Event, n)
	copy(out, s.events[:n])
	return out
}

// TimeSeries returns per-day event counts. Bucket order is first-seen order
// over the descending collection, which is how the source dashboard built its
// chart axis. TimeSeriesSorted is the chronological alternative.
func (s *Store) TimeSeries() []DateCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DateCount, len(s.timeSeries))
	copy(out, s.timeSeries)
	return out
}

// TimeSeriesSorted returns the time-series buckets in ascending calendar
// order instead of first-seen order.
func (s *Store) TimeSeriesSorted() []DateCount {
	out := s.TimeSeries()
	sort.Slice(out, func(i, j int) bool {
		ti, ei := parseCalendarDate(out[i].Date)
		tj, ej := parseCalendarDate(out[j].Date)
		if ei != nil || ej != nil {
			return out[i].Date < out[j].Date
		}
		return ti.Before(tj)
	})
	return out
}

func parseCalendarDate(s string) (time.Time, error) {
	return time.Parse("1/2/2006", s)
}

// Categories returns event counts grouped by literal touch_detected value.
func (s *Store) Categories() []CategoryCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CategoryCount, len(s.categories))
	copy(out, s.categories)
	return out
}

// MonthlyActive returns the distinct-device count per YYYY-MM month.
func (s *Store) MonthlyActive() []MonthCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MonthCount, len(s.monthly))
	copy(out, s.monthly)
	return out
}

// ActiveDevices reports the number of distinct devices with at least one
// event whose date field is not the placeholder sentinel.
func (s *Store) ActiveDevices() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// DailyActivity filters the store to positive touches by deviceID on the
// reference date's calendar day. Day equality compares each timestamp in its
// own location against ref in its own location. With no matches the count is
// zero and both boundary times carry the TimeNotAvailable sentinel.
func (s *Store) DailyActivity(deviceID string, ref time.Time) DailyActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refY, refM, refD := ref.Date()
	act := DailyActivity{
		DeviceID:   deviceID,
		FirstTouch: TimeNotAvailable,
		LastTouch:  TimeNotAvailable,
	}
	for _, e := range s.events {
		if e.DeviceID != deviceID || e.TouchDetected != model.TouchYes {
			continue
		}
		y, m, d := e.CreatedAt.Date()
		if y != refY || m != refM || d != refD {
			continue
		}
		if act.TouchCount == 0 {
			act.FirstTouch = e.Time
		}
		act.LastTouch = e.Time
		act.TouchCount++
	}
	return act
}

// SetLoading flips the snapshot-in-flight indicator.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Loading reports whether a snapshot fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetError records a user-visible failure message, shown as a banner by the
// dashboard. A successful snapshot load clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// LastError returns the current user-visible failure message, if any.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
