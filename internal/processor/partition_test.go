package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartitionPath(t *testing.T) {
	ts := time.Date(2024, 11, 3, 7, 45, 12, 0, time.UTC)
	assert.Equal(t, "raw/year=2024/month=11/day=03/hour=07/", partitionPath("raw/", ts))
}

func TestPartitionPathNormalizesToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 1, 1, 22, 0, 0, 0, est) // 2024-01-02T03:00Z
	assert.Equal(t, "raw/year=2024/month=01/day=02/hour=03/", partitionPath("raw/", ts))
}

func TestEventTimePrefersEmbeddedTimestamp(t *testing.T) {
	arrival := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		Data:    []byte(`{"timestamp":"2024-05-30T08:00:00Z"}`),
		Arrival: arrival,
	}
	got := eventTime(rec, time.Now)
	assert.Equal(t, time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC), got.UTC())
}

func TestEventTimeFallsBackToArrival(t *testing.T) {
	arrival := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		data string
	}{
		{"NoTimestamp", `{"value":1}`},
		{"Malformed", `{"timestamp":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eventTime(Record{Data: []byte(tt.data), Arrival: arrival}, time.Now)
			assert.Equal(t, arrival, got)
		})
	}
}

func TestEventTimeFallsBackToClock(t *testing.T) {
	now := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	got := eventTime(Record{Data: []byte(`{}`)}, fixedClock(now))
	assert.Equal(t, now, got)
}
