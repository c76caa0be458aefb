package handlers

import "net/http"

// BusStatus reports the message bus connection state.
type BusStatus interface {
	Connected() bool
}

// ViewerCounter reports the number of connected live viewers.
type ViewerCounter interface {
	Count() int
}

// NewHealthHandler returns the GET /health handler. Always 200; the body
// carries the bus and viewer state.
func NewHealthHandler(bus BusStatus, viewers ViewerCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected := false
		if bus != nil {
			connected = bus.Connected()
		}
		count := 0
		if viewers != nil {
			count = viewers.Count()
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":        true,
			"mqtt":      connected,
			"wsClients": count,
		})
	}
}
