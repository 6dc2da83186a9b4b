package model

import "time"

// PlaceholderDate marks records the station sent before its clock was set.
// Events carrying it are excluded from the active-device tally.
const PlaceholderDate = "1970-01-01"

// TouchYes is the touch_detected value for a positive observation. The field
// is an open string enum; "YES" and "NO" are the values seen in practice.
const TouchYes = "YES"

// Event is one touch/no-touch observation reported by a station, in the wire
// shape used by both the snapshot endpoint and the push stream. Date and Time
// are display-formatted components supplied by the server, redundant with
// CreatedAt, which is the authoritative ordering key.
type Event struct {
	ID            string    `json:"_id"`
	DeviceID      string    `json:"device_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	TouchDetected string    `json:"touch_detected"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Snapshot is the envelope returned by GET /getData.
type Snapshot struct {
	Data []Event `json:"data"`
}
