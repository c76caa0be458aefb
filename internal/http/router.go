package httpserver

import "net/http"

// Routes defines HTTP endpoints.
type Routes struct {
	Health  http.Handler
	Latest  http.Handler
	Series  http.Handler
	Write   http.Handler
	Battery http.Handler
	Devices http.Handler
	Live    http.HandlerFunc
	Metrics http.Handler
}

// NewRouter sets up HTTP routing.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	if routes.Latest != nil {
		mux.Handle("GET /api/latest/{deviceID}", routes.Latest)
	}
	if routes.Series != nil {
		mux.Handle("GET /api/series/{deviceID}", routes.Series)
	}
	if routes.Write != nil {
		mux.Handle("POST /api/write", routes.Write)
	}
	if routes.Battery != nil {
		mux.Handle("GET /api/battery/{deviceID}", routes.Battery)
	}
	if routes.Devices != nil {
		mux.Handle("GET /api/devices", routes.Devices)
	}
	if routes.Live != nil {
		mux.Handle("GET /ws", routes.Live)
	}
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}
	return mux
}
