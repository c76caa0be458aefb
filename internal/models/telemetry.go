package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Measurement is the time-series measurement every point is written to.
const Measurement = "scooter"

// DefaultDeviceID is used when neither payload nor topic carry a device id.
const DefaultDeviceID = "unknown"

// DefaultFwSrc is used when the payload carries no firmware source.
const DefaultFwSrc = "unknown"

// Channels is the fixed set of numeric telemetry channels, in wire order.
var Channels = []string{
	"u_batt_v",
	"i_batt_a",
	"t_batt_c",
	"t_ctrl_c",
	"speed_kmh",
	"ax_ms2",
	"ay_ms2",
	"az_ms2",
}

// Record is one decoded telemetry message. Values holds only the channels
// that were present in the payload; absent channels are zero-filled later,
// depending on the write path.
type Record struct {
	DeviceID string
	FwSrc    string
	Ts       time.Time // zero when the payload carried no usable timestamp
	Seq      int64
	HasSeq   bool
	Values   map[string]float64
}

// Has reports whether the channel was present in the payload.
func (r *Record) Has(channel string) bool {
	_, ok := r.Values[channel]
	return ok
}

// Tags returns the point tag set.
func (r *Record) Tags() map[string]string {
	return map[string]string{"device_id": r.DeviceID}
}

// SparseFields returns only the channels present in the payload, plus the
// firmware source as a string field. Used on the bus-ingestion path.
func (r *Record) SparseFields() map[string]interface{} {
	fields := make(map[string]interface{}, len(r.Values)+1)
	for name, v := range r.Values {
		fields[name] = v
	}
	fields["fw_src"] = r.FwSrc
	return fields
}

// FullFields returns every channel, zero-filled when absent, plus the
// firmware source. Used on the manual-write path.
func (r *Record) FullFields() map[string]interface{} {
	fields := make(map[string]interface{}, len(Channels)+1)
	for _, name := range Channels {
		fields[name] = r.Values[name]
	}
	fields["fw_src"] = r.FwSrc
	return fields
}

// MarshalJSON renders the flat wire shape viewers receive.
func (r *Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(r.Values)+4)
	obj["device_id"] = r.DeviceID
	obj["fw_src"] = r.FwSrc
	if !r.Ts.IsZero() {
		obj["ts"] = r.Ts.UTC().Format(time.RFC3339)
	}
	if r.HasSeq {
		obj["seq"] = r.Seq
	}
	for name, v := range r.Values {
		obj[name] = v
	}
	return json.Marshal(obj)
}

// ErrNotObject is returned for payloads that parse but are not JSON objects.
var ErrNotObject = errors.New("telemetry: payload is not a JSON object")

// Decode parses a raw telemetry payload. fallbackDevice (usually the topic's
// device segment) is used when the payload has no device_id of its own.
//
// Two payload schemas are accepted: the flat scooter schema and the ESP8266
// firmware schema with nested motor/wifi/hall objects. Non-numeric channel
// values coerce to 0; a malformed payload is the only hard failure.
func Decode(payload []byte, fallbackDevice string) (*Record, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("telemetry: decode: %w", err)
	}
	if raw == nil {
		return nil, ErrNotObject
	}

	rec := &Record{
		DeviceID: DefaultDeviceID,
		FwSrc:    DefaultFwSrc,
		Values:   make(map[string]float64, len(Channels)),
	}
	if fallbackDevice != "" {
		rec.DeviceID = fallbackDevice
	}
	if s := toString(raw["device_id"]); s != "" {
		rec.DeviceID = s
	}
	if s := toString(raw["fw_src"]); s != "" {
		rec.FwSrc = s
	}
	if ts, ok := parseTimestamp(raw["ts"]); ok {
		rec.Ts = ts
	}
	if seq, ok := raw["seq"]; ok {
		rec.Seq = int64(toNumber(seq))
		rec.HasSeq = true
	}

	for _, name := range Channels {
		if v, ok := raw[name]; ok && v != nil {
			rec.Values[name] = toNumber(v)
		}
	}

	if isESP8266(raw) {
		normalizeESP8266(raw, rec)
	}
	return rec, nil
}

// isESP8266 detects payloads from the hall-sensor firmware, which nests
// motor/wifi/hall structures instead of flat channels.
func isESP8266(raw map[string]interface{}) bool {
	for _, key := range []string{"throttle_raw", "motor", "wifi", "hall"} {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

func normalizeESP8266(raw map[string]interface{}, rec *Record) {
	rec.FwSrc = "esp8266"

	if !rec.Has("t_batt_c") {
		if v, ok := raw["temp_c"]; ok && v != nil {
			rec.Values["t_batt_c"] = toNumber(v)
		}
	}
	// Speed proxy from hall pulse delta until real sensors are wired.
	if !rec.Has("speed_kmh") {
		if hall, ok := raw["hall"].(map[string]interface{}); ok {
			if v, ok := hall["delta"]; ok && v != nil {
				rec.Values["speed_kmh"] = toNumber(v) * 0.1
			}
		}
	}
}

// toNumber coerces an arbitrary JSON value to a finite float64. Anything
// non-numeric, NaN or infinite becomes 0.
func toNumber(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case json.Number:
		f, _ = val.Float64()
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// maxTimestampYear bounds epoch parsing: anything landing past it is not a
// plausible wall clock and the record falls back to ingestion time.
const maxTimestampYear = 9999

// parseTimestamp accepts ISO-8601 strings (with or without a UTC offset;
// offset-less strings are taken as UTC) and unix epochs in seconds or
// milliseconds, matching what older firmware sends.
func parseTimestamp(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339, val); err == nil {
			return ts, true
		}
		if ts, err := time.ParseInLocation("2006-01-02T15:04:05", val, time.UTC); err == nil {
			return ts, true
		}
	case float64:
		if val <= 0 {
			return time.Time{}, false
		}
		var ts time.Time
		if val > 2_000_000_000_000 {
			ts = time.UnixMilli(int64(val)).UTC()
		} else {
			ts = time.Unix(int64(val), 0).UTC()
		}
		if ts.Year() > maxTimestampYear {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}
