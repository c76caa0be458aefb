package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// IngestTotal counts ingestion outcomes by reason ("accepted",
	// "dropped_decode", "dropped_synthetic").
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m365_ingest_total",
			Help: "Telemetry messages processed by outcome",
		},
		[]string{"outcome"},
	)

	// StoreWriteErrors counts asynchronous write batches rejected by the
	// time-series store.
	StoreWriteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "m365_store_write_errors_total",
			Help: "Asynchronous InfluxDB write errors",
		},
	)

	// BroadcastTotal counts per-viewer broadcast deliveries.
	BroadcastTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m365_broadcast_total",
			Help: "Per-viewer broadcast sends by result",
		},
		[]string{"result"},
	)

	// ViewersConnected tracks currently connected live viewers.
	ViewersConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "m365_viewers_connected",
			Help: "Currently connected WebSocket viewers",
		},
	)
)

func init() {
	prometheus.MustRegister(
		IngestTotal,
		StoreWriteErrors,
		BroadcastTotal,
		ViewersConnected,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
