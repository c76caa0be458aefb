package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/metrics"
	"github.com/sincl1t/m365-digital-twin/internal/models"
	"github.com/sincl1t/m365-digital-twin/internal/mqtt"
	"github.com/sincl1t/m365-digital-twin/internal/ws"
)

const registryTimeout = 3 * time.Second

// PointWriter is the asynchronous store sink.
type PointWriter interface {
	WritePoint(rec *models.Record)
}

// Broadcaster fans a serialized envelope out to live viewers.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// DeviceRegistry records device activity. May be absent.
type DeviceRegistry interface {
	Touch(ctx context.Context, deviceID, fwSrc string, seen time.Time) error
}

// Outcome says what happened to one bus message. It exists for observability
// only; ingestion is best-effort and no caller branches on it.
type Outcome struct {
	Accepted bool
	Reason   string
}

// Dropped builds a non-accepted outcome.
func Dropped(reason string) Outcome {
	return Outcome{Reason: reason}
}

var accepted = Outcome{Accepted: true, Reason: "accepted"}

// Pipeline turns raw bus messages into store points and viewer broadcasts.
type Pipeline struct {
	writer          PointWriter
	hub             Broadcaster
	registry        DeviceRegistry
	ignoreSynthetic bool
	logger          *zap.Logger
}

// NewPipeline wires the ingestion path. registry may be nil.
func NewPipeline(writer PointWriter, hub Broadcaster, registry DeviceRegistry, ignoreSynthetic bool, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		writer:          writer,
		hub:             hub,
		registry:        registry,
		ignoreSynthetic: ignoreSynthetic,
		logger:          logger,
	}
}

// Handle processes one bus message. Malformed payloads are dropped without a
// trace beyond the counter; store and registry failures never stop ingestion.
func (p *Pipeline) Handle(topic string, payload []byte) Outcome {
	rec, err := models.Decode(payload, mqtt.DeviceFromTopic(topic))
	if err != nil {
		metrics.IngestTotal.WithLabelValues("dropped_decode").Inc()
		p.logger.Debug("dropping undecodable payload", zap.String("topic", topic), zap.Error(err))
		return Dropped("decode")
	}

	if p.ignoreSynthetic && rec.FwSrc == "synthetic" {
		metrics.IngestTotal.WithLabelValues("dropped_synthetic").Inc()
		return Dropped("synthetic")
	}

	p.writer.WritePoint(rec)
	p.touchRegistry(rec)
	p.broadcast(rec)

	metrics.IngestTotal.WithLabelValues("accepted").Inc()
	return accepted
}

func (p *Pipeline) touchRegistry(rec *models.Record) {
	if p.registry == nil {
		return
	}
	seen := rec.Ts
	if seen.IsZero() {
		seen = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), registryTimeout)
	defer cancel()
	if err := p.registry.Touch(ctx, rec.DeviceID, rec.FwSrc, seen); err != nil {
		p.logger.Warn("registry touch failed", zap.String("device_id", rec.DeviceID), zap.Error(err))
	}
}

func (p *Pipeline) broadcast(rec *models.Record) {
	if p.hub == nil {
		return
	}
	envelope, err := ws.TelemetryMessage(rec)
	if err != nil {
		p.logger.Warn("failed to serialize broadcast", zap.Error(err))
		return
	}
	p.hub.Broadcast(envelope)
}
