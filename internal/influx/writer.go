package influx

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/metrics"
	"github.com/sincl1t/m365-digital-twin/internal/models"
)

// AsyncAPI is the slice of api.WriteAPI the writer uses.
type AsyncAPI interface {
	WritePoint(point *write.Point)
	Flush()
	Errors() <-chan error
}

// BlockingAPI is the slice of api.WriteAPIBlocking the writer uses.
type BlockingAPI interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Writer persists telemetry points. The bus-ingestion path goes through the
// client's non-blocking write API (errors drained to the log, never surfaced);
// the manual-write path goes through the blocking API so a flush failure can
// become the caller's error.
type Writer struct {
	async    AsyncAPI
	blocking BlockingAPI
	enabled  bool
	logger   *zap.Logger
}

// NewWriter wires the two write APIs. enabled gates only the asynchronous
// ingestion path; a manual write is explicit intent and always goes through.
func NewWriter(async AsyncAPI, blocking BlockingAPI, enabled bool, logger *zap.Logger) *Writer {
	w := &Writer{
		async:    async,
		blocking: blocking,
		enabled:  enabled,
		logger:   logger,
	}
	go w.drainErrors()
	return w
}

// NewWriterFromClient is the production constructor.
func NewWriterFromClient(client influxdb2.Client, org, bucket string, enabled bool, logger *zap.Logger) *Writer {
	return NewWriter(client.WriteAPI(org, bucket), client.WriteAPIBlocking(org, bucket), enabled, logger)
}

// drainErrors logs asynchronous write failures. Telemetry loss on the live
// path is accepted; the counter is the only other trace it leaves.
func (w *Writer) drainErrors() {
	for err := range w.async.Errors() {
		metrics.StoreWriteErrors.Inc()
		w.logger.Warn("influx write failed", zap.Error(err))
	}
}

// WritePoint enqueues a sparse point for asynchronous write. No-op when
// ingestion writes are disabled.
func (w *Writer) WritePoint(rec *models.Record) {
	if !w.enabled {
		return
	}
	pt := influxdb2.NewPoint(models.Measurement, rec.Tags(), rec.SparseFields(), rec.Ts)
	w.async.WritePoint(pt)
}

// WriteSync writes a zero-filled point and does not return until the store
// accepted or rejected it.
func (w *Writer) WriteSync(ctx context.Context, rec *models.Record) error {
	pt := influxdb2.NewPoint(models.Measurement, rec.Tags(), rec.FullFields(), rec.Ts)
	return w.blocking.WritePoint(ctx, pt)
}

// Flush drains the asynchronous write buffer. Used during shutdown.
func (w *Writer) Flush() {
	w.async.Flush()
}
