package influx

import (
	"context"
	"errors"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
)

// DefaultSeriesFields is queried when the caller names no fields.
var DefaultSeriesFields = []string{"u_batt_v", "i_batt_a", "speed_kmh"}

// SeriesRow is one sample of one field.
type SeriesRow struct {
	Time  time.Time   `json:"time"`
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// QueryService is the slice of the Influx query API the reader needs.
type QueryService interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// Reader translates API range requests into Flux queries.
type Reader struct {
	query  QueryService
	bucket string
}

// NewReader returns a reader over the given bucket.
func NewReader(query QueryService, bucket string) *Reader {
	return &Reader{query: query, bucket: bucket}
}

// Latest returns the most recent value of every field the device wrote within
// the window, flattened into one object keyed by field name plus a single
// "ts". Fields with divergent freshness collapse last-write-wins: this is an
// approximate latest, not a consistent snapshot.
func (r *Reader) Latest(ctx context.Context, device string, window time.Duration) (map[string]interface{}, error) {
	result, err := r.query.Query(ctx, latestFlux(r.bucket, device, window))
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	for result.Next() {
		rec := result.Record()
		mergeLatest(out, rec.Field(), rec.Value(), rec.Time())
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Series returns every matching sample of the requested fields, ascending by
// time. No downsampling is applied.
func (r *Reader) Series(ctx context.Context, device string, window time.Duration, fields []string) ([]SeriesRow, error) {
	if len(fields) == 0 {
		fields = DefaultSeriesFields
	}
	result, err := r.query.Query(ctx, seriesFlux(r.bucket, device, window, fields))
	if err != nil {
		return nil, err
	}
	rows := make([]SeriesRow, 0)
	for result.Next() {
		rec := result.Record()
		rows = append(rows, SeriesRow{
			Time:  rec.Time().UTC(),
			Field: rec.Field(),
			Value: rec.Value(),
		})
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ErrBadRange marks an unparsable range parameter.
var ErrBadRange = errors.New("influx: invalid range")

// ParseWindow validates a lookback window like "2h" or "15m", falling back to
// def when empty.
func ParseWindow(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, ErrBadRange
	}
	return d, nil
}

func mergeLatest(out map[string]interface{}, field string, value interface{}, ts time.Time) {
	if field == "" {
		return
	}
	out[field] = value
	out["ts"] = ts.UTC().Format(time.RFC3339)
}
