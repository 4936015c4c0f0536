package processor

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// partitionPath lays keys out Hive-style so Glue and Athena can prune
// on year/month/day/hour without scanning the whole zone.
func partitionPath(prefix string, ts time.Time) string {
	ts = ts.UTC()
	return fmt.Sprintf("%syear=%04d/month=%02d/day=%02d/hour=%02d/",
		prefix, ts.Year(), int(ts.Month()), ts.Day(), ts.Hour())
}

// eventTime picks the partition timestamp for a record: an embedded
// RFC3339 "timestamp" field wins, then the Kinesis arrival time, then
// the clock. Replayed records land in the partition of the event, not
// of the replay.
func eventTime(rec Record, now func() time.Time) time.Time {
	if field := gjson.GetBytes(rec.Data, "timestamp"); field.Exists() {
		if ts, err := time.Parse(time.RFC3339, field.String()); err == nil {
			return ts
		}
	}
	if !rec.Arrival.IsZero() {
		return rec.Arrival
	}
	return now()
}
