package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeScooterSchema(t *testing.T) {
	payload := []byte(`{
		"ts": "2025-09-26T12:00:05Z",
		"device_id": "m365-lis-01",
		"u_batt_v": 39.5,
		"i_batt_a": 2.1,
		"t_batt_c": 26.4,
		"t_ctrl_c": 28.9,
		"speed_kmh": 12.0,
		"ax_ms2": 0.05,
		"ay_ms2": -0.12,
		"az_ms2": 9.81,
		"fw_src": "synthetic",
		"seq": 42
	}`)

	rec, err := Decode(payload, "topic-device")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.DeviceID != "m365-lis-01" {
		t.Errorf("device id = %q, want payload value", rec.DeviceID)
	}
	if rec.FwSrc != "synthetic" {
		t.Errorf("fw_src = %q", rec.FwSrc)
	}
	want := time.Date(2025, 9, 26, 12, 0, 5, 0, time.UTC)
	if !rec.Ts.Equal(want) {
		t.Errorf("ts = %v, want %v", rec.Ts, want)
	}
	if !rec.HasSeq || rec.Seq != 42 {
		t.Errorf("seq = %d (has=%v), want 42", rec.Seq, rec.HasSeq)
	}
	if got := rec.Values["u_batt_v"]; got != 39.5 {
		t.Errorf("u_batt_v = %v, want 39.5", got)
	}
	if got := rec.Values["az_ms2"]; got != 9.81 {
		t.Errorf("az_ms2 = %v, want 9.81", got)
	}
	if len(rec.Values) != len(Channels) {
		t.Errorf("got %d channels, want %d", len(rec.Values), len(Channels))
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, payload := range []string{"not json", `"just a string"`, `[1,2,3]`, `null`, ``} {
		if _, err := Decode([]byte(payload), ""); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", payload)
		}
	}
}

func TestDecodeDefaults(t *testing.T) {
	rec, err := Decode([]byte(`{}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.DeviceID != "unknown" {
		t.Errorf("device id = %q, want unknown", rec.DeviceID)
	}
	if rec.FwSrc != "unknown" {
		t.Errorf("fw_src = %q, want unknown", rec.FwSrc)
	}
	if !rec.Ts.IsZero() {
		t.Errorf("ts = %v, want zero", rec.Ts)
	}
	if len(rec.Values) != 0 {
		t.Errorf("values = %v, want empty", rec.Values)
	}
}

func TestDecodeDeviceFallbackFromTopic(t *testing.T) {
	rec, err := Decode([]byte(`{"u_batt_v": 40.1}`), "m365-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.DeviceID != "m365-02" {
		t.Errorf("device id = %q, want topic fallback", rec.DeviceID)
	}
}

func TestDecodeCoercion(t *testing.T) {
	payload := []byte(`{
		"u_batt_v": "39.5",
		"i_batt_a": "garbage",
		"t_batt_c": null,
		"speed_kmh": true,
		"device_id": 123
	}`)
	rec, err := Decode(payload, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Values["u_batt_v"]; got != 39.5 {
		t.Errorf("numeric string coerced to %v, want 39.5", got)
	}
	if got := rec.Values["i_batt_a"]; got != 0 {
		t.Errorf("garbage string coerced to %v, want 0", got)
	}
	if rec.Has("t_batt_c") {
		t.Error("null channel should be treated as absent")
	}
	if got := rec.Values["speed_kmh"]; got != 1 {
		t.Errorf("true coerced to %v, want 1", got)
	}
	if rec.DeviceID != "unknown" {
		t.Errorf("non-string device id = %q, want unknown", rec.DeviceID)
	}
}

func TestDecodeUnixTimestamps(t *testing.T) {
	rec, err := Decode([]byte(`{"ts": 1758888005}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Ts.Unix() != 1758888005 {
		t.Errorf("seconds ts = %v", rec.Ts)
	}

	rec, err = Decode([]byte(`{"ts": 2758888005000}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Ts.UnixMilli() != 2758888005000 {
		t.Errorf("millis ts = %v", rec.Ts)
	}

	rec, err = Decode([]byte(`{"ts": "yesterday"}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Ts.IsZero() {
		t.Errorf("unparsable ts = %v, want zero", rec.Ts)
	}
}

func TestDecodeMillisecondEpochBelowThreshold(t *testing.T) {
	// A present-day millisecond epoch sits below the seconds/millis cutoff.
	// Read as seconds it would land tens of millennia out; that is not a
	// plausible wall clock, so the timestamp must fall back to zero.
	rec, err := Decode([]byte(`{"ts": 1788091200000}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Ts.IsZero() {
		t.Errorf("ts = %v, want zero for out-of-range epoch", rec.Ts)
	}
}

func TestDecodeOffsetlessISOTimestamp(t *testing.T) {
	rec, err := Decode([]byte(`{"ts": "2025-09-26T12:00:05"}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 9, 26, 12, 0, 5, 0, time.UTC)
	if !rec.Ts.Equal(want) {
		t.Errorf("ts = %v, want %v (offset-less string taken as UTC)", rec.Ts, want)
	}
}

func TestDecodeESP8266Schema(t *testing.T) {
	payload := []byte(`{
		"throttle_raw": 512,
		"motor": {"state": "RUN", "pwm": 180},
		"wifi": {"rssi": -61},
		"hall": {"pulses": 1200, "delta": 34},
		"temp_c": 31.5
	}`)
	rec, err := Decode(payload, "esp-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.FwSrc != "esp8266" {
		t.Errorf("fw_src = %q, want esp8266", rec.FwSrc)
	}
	if got := rec.Values["t_batt_c"]; got != 31.5 {
		t.Errorf("temp_c fallback = %v, want 31.5", got)
	}
	if got := rec.Values["speed_kmh"]; got != 3.4 {
		t.Errorf("hall speed proxy = %v, want 3.4", got)
	}
}

func TestDecodeESP8266DoesNotOverrideExplicitChannels(t *testing.T) {
	payload := []byte(`{"hall": {"delta": 34}, "speed_kmh": 7.5, "t_batt_c": 20.0, "temp_c": 31.5}`)
	rec, err := Decode(payload, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Values["speed_kmh"]; got != 7.5 {
		t.Errorf("speed = %v, want explicit 7.5", got)
	}
	if got := rec.Values["t_batt_c"]; got != 20.0 {
		t.Errorf("t_batt_c = %v, want explicit 20.0", got)
	}
}

func TestSparseFields(t *testing.T) {
	rec := &Record{
		DeviceID: "m365-01",
		FwSrc:    "unknown",
		Values:   map[string]float64{"u_batt_v": 39.5, "speed_kmh": 12.0},
	}
	fields := rec.SparseFields()
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3 (two channels + fw_src): %v", len(fields), fields)
	}
	if fields["u_batt_v"] != 39.5 || fields["speed_kmh"] != 12.0 {
		t.Errorf("unexpected channel values: %v", fields)
	}
	if fields["fw_src"] != "unknown" {
		t.Errorf("fw_src field = %v", fields["fw_src"])
	}
}

func TestFullFieldsZeroFill(t *testing.T) {
	rec := &Record{
		DeviceID: "m365-01",
		FwSrc:    "manual",
		Values:   map[string]float64{"u_batt_v": 39.5},
	}
	fields := rec.FullFields()
	if len(fields) != len(Channels)+1 {
		t.Fatalf("got %d fields, want %d", len(fields), len(Channels)+1)
	}
	for _, name := range Channels {
		v, ok := fields[name].(float64)
		if !ok {
			t.Fatalf("field %s is %T, want float64", name, fields[name])
		}
		if name == "u_batt_v" {
			if v != 39.5 {
				t.Errorf("u_batt_v = %v", v)
			}
		} else if v != 0 {
			t.Errorf("absent channel %s = %v, want 0", name, v)
		}
	}
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	rec, err := Decode([]byte(`{"device_id":"m365-01","ts":"2025-09-26T12:00:05Z","u_batt_v":39.5,"seq":7}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["device_id"] != "m365-01" {
		t.Errorf("device_id = %v", out["device_id"])
	}
	if out["ts"] != "2025-09-26T12:00:05Z" {
		t.Errorf("ts = %v", out["ts"])
	}
	if out["u_batt_v"] != 39.5 {
		t.Errorf("u_batt_v = %v", out["u_batt_v"])
	}
	if out["seq"] != float64(7) {
		t.Errorf("seq = %v", out["seq"])
	}
	if _, ok := out["speed_kmh"]; ok {
		t.Error("absent channel leaked into broadcast shape")
	}
}
