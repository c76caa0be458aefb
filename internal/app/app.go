package app

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/config"
	httpserver "github.com/sincl1t/m365-digital-twin/internal/http"
	"github.com/sincl1t/m365-digital-twin/internal/http/handlers"
	"github.com/sincl1t/m365-digital-twin/internal/influx"
	"github.com/sincl1t/m365-digital-twin/internal/ingest"
	"github.com/sincl1t/m365-digital-twin/internal/metrics"
	"github.com/sincl1t/m365-digital-twin/internal/mqtt"
	"github.com/sincl1t/m365-digital-twin/internal/registry"
	"github.com/sincl1t/m365-digital-twin/internal/ws"
)

// App wires bridge dependencies.
type App struct {
	server   *httpserver.Server
	bus      *mqtt.Client
	influx   influxdb2.Client
	writer   *influx.Writer
	registry *registry.Store
	logger   *zap.Logger
}

// New constructs application components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	influxClient := influx.NewClient(cfg.Influx.URL, cfg.Influx.Token)
	writer := influx.NewWriterFromClient(influxClient, cfg.Influx.Org, cfg.Influx.Bucket, cfg.Influx.Write, logger)
	reader := influx.NewReader(influxClient.QueryAPI(cfg.Influx.Org), cfg.Influx.Bucket)

	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, logger)

	var store *registry.Store
	var deviceRegistry ingest.DeviceRegistry
	var deviceLister handlers.DeviceLister
	if cfg.Redis.Addr != "" {
		s, err := registry.NewStore(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			influxClient.Close()
			return nil, err
		}
		store = s
		deviceRegistry = s
		deviceLister = s
	}

	pipeline := ingest.NewPipeline(writer, hub, deviceRegistry, cfg.Ingest.IgnoreSynthetic, logger)
	bus := mqtt.NewClient(cfg.MQTT.URL, cfg.MQTT.ClientID, cfg.MQTT.Topic, logger, func(topic string, payload []byte) {
		pipeline.Handle(topic, payload)
	})

	routes := httpserver.Routes{
		Health:  handlers.NewHealthHandler(bus, hub),
		Latest:  handlers.NewLatestHandler(reader, logger),
		Series:  handlers.NewSeriesHandler(reader, logger),
		Write:   handlers.NewWriteHandler(writer, logger),
		Battery: handlers.NewBatteryHandler(reader, logger),
		Devices: handlers.NewDevicesHandler(deviceLister, logger),
		Live:    wsServer.HandleWS,
		Metrics: metrics.Handler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:   server,
		bus:      bus,
		influx:   influxClient,
		writer:   writer,
		registry: store,
		logger:   logger,
	}, nil
}

// Run connects the bus and serves HTTP requests until ctx is cancelled.
// A broker connection failure is logged; the API and viewers still work
// without live telemetry.
func (a *App) Run(ctx context.Context) error {
	if err := a.bus.Connect(); err != nil {
		a.logger.Error("mqtt connect failed, running without telemetry", zap.Error(err))
	}
	return a.server.Run(ctx)
}

// Close drains in order: stop accepting bus messages, flush pending points,
// release the store and registry connections.
func (a *App) Close() {
	a.bus.Close()
	a.writer.Flush()
	a.influx.Close()
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			a.logger.Warn("failed to close registry", zap.Error(err))
		}
	}
}
