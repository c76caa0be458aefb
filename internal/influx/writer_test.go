package influx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/models"
)

type fakeAsyncAPI struct {
	mu      sync.Mutex
	points  []*write.Point
	flushed int
	errCh   chan error
}

func newFakeAsyncAPI() *fakeAsyncAPI {
	return &fakeAsyncAPI{errCh: make(chan error)}
}

func (f *fakeAsyncAPI) WritePoint(point *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, point)
}

func (f *fakeAsyncAPI) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed++
}

func (f *fakeAsyncAPI) Errors() <-chan error {
	return f.errCh
}

func (f *fakeAsyncAPI) pointCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points)
}

func (f *fakeAsyncAPI) pointAt(i int) *write.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.points[i]
}

type fakeBlockingAPI struct {
	mu     sync.Mutex
	points []*write.Point
	err    error
}

func (f *fakeBlockingAPI) WritePoint(_ context.Context, points ...*write.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.points = append(f.points, points...)
	return nil
}

func fieldMap(pt *write.Point) map[string]interface{} {
	fields := make(map[string]interface{})
	for _, f := range pt.FieldList() {
		fields[f.Key] = f.Value
	}
	return fields
}

func tagMap(pt *write.Point) map[string]string {
	tags := make(map[string]string)
	for _, tag := range pt.TagList() {
		tags[tag.Key] = tag.Value
	}
	return tags
}

func TestWritePointSparse(t *testing.T) {
	async := newFakeAsyncAPI()
	w := NewWriter(async, &fakeBlockingAPI{}, true, zap.NewNop())
	defer close(async.errCh)

	ts := time.Date(2025, 9, 26, 12, 0, 5, 0, time.UTC)
	w.WritePoint(&models.Record{
		DeviceID: "m365-01",
		FwSrc:    "synthetic",
		Ts:       ts,
		Values:   map[string]float64{"u_batt_v": 39.5, "speed_kmh": 12.0},
	})

	if async.pointCount() != 1 {
		t.Fatalf("got %d points, want 1", async.pointCount())
	}
	pt := async.pointAt(0)
	if pt.Name() != "scooter" {
		t.Errorf("measurement = %q", pt.Name())
	}
	if got := tagMap(pt)["device_id"]; got != "m365-01" {
		t.Errorf("device_id tag = %q", got)
	}
	fields := fieldMap(pt)
	if len(fields) != 3 {
		t.Errorf("got %d fields, want sparse 3: %v", len(fields), fields)
	}
	if fields["fw_src"] != "synthetic" {
		t.Errorf("fw_src field = %v", fields["fw_src"])
	}
	if !pt.Time().Equal(ts) {
		t.Errorf("point time = %v, want %v", pt.Time(), ts)
	}
}

func TestWritePointDisabled(t *testing.T) {
	async := newFakeAsyncAPI()
	w := NewWriter(async, &fakeBlockingAPI{}, false, zap.NewNop())
	defer close(async.errCh)

	w.WritePoint(&models.Record{DeviceID: "m365-01", Values: map[string]float64{"u_batt_v": 39.5}})
	if async.pointCount() != 0 {
		t.Fatalf("disabled writer wrote %d points", async.pointCount())
	}
}

func TestWriteSyncZeroFills(t *testing.T) {
	async := newFakeAsyncAPI()
	blocking := &fakeBlockingAPI{}
	w := NewWriter(async, blocking, true, zap.NewNop())
	defer close(async.errCh)

	err := w.WriteSync(context.Background(), &models.Record{
		DeviceID: "m365-01",
		FwSrc:    "unknown",
		Values:   map[string]float64{"u_batt_v": 39.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocking.points) != 1 {
		t.Fatalf("got %d blocking points", len(blocking.points))
	}
	fields := fieldMap(blocking.points[0])
	if len(fields) != len(models.Channels)+1 {
		t.Errorf("got %d fields, want full set: %v", len(fields), fields)
	}
	if fields["speed_kmh"] != float64(0) {
		t.Errorf("absent channel = %v, want 0", fields["speed_kmh"])
	}
}

func TestWriteSyncSurfacesError(t *testing.T) {
	async := newFakeAsyncAPI()
	blocking := &fakeBlockingAPI{err: errors.New("bucket not found")}
	w := NewWriter(async, blocking, true, zap.NewNop())
	defer close(async.errCh)

	err := w.WriteSync(context.Background(), &models.Record{DeviceID: "m365-01", Values: map[string]float64{}})
	if err == nil || err.Error() != "bucket not found" {
		t.Fatalf("err = %v, want store error passed through", err)
	}
}

func TestFlushDelegates(t *testing.T) {
	async := newFakeAsyncAPI()
	w := NewWriter(async, &fakeBlockingAPI{}, true, zap.NewNop())
	defer close(async.errCh)

	w.Flush()
	if async.flushed != 1 {
		t.Errorf("flushed %d times, want 1", async.flushed)
	}
}
