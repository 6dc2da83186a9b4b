package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	payload := []byte(`{"_id":"a1","device_id":"D7","date":"2024-03-01","time":"14:05","touch_detected":"YES","createdAt":"2024-03-01T14:05:00+05:30"}`)

	e, err := decodeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "a1", e.ID)
	assert.Equal(t, "D7", e.DeviceID)
	assert.Equal(t, "YES", e.TouchDetected)
	assert.Equal(t, 2024, e.CreatedAt.Year())

	// Calendar components stay in the source offset, not UTC.
	assert.Equal(t, 14, e.CreatedAt.Hour())
}

func TestDecodeEventRejectsMalformed(t *testing.T) {
	_, err := decodeEvent([]byte(`{"_id":`))
	assert.Error(t, err)
}

func TestDecodeEventRejectsMissingID(t *testing.T) {
	_, err := decodeEvent([]byte(`{"device_id":"D7"}`))
	assert.Error(t, err)
}
