package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/influx"
)

const defaultLatestWindow = 2 * time.Hour

// LatestReader serves the latest-by-device query.
type LatestReader interface {
	Latest(ctx context.Context, device string, window time.Duration) (map[string]interface{}, error)
}

// LatestHandler handles GET /api/latest/{deviceID}.
type LatestHandler struct {
	reader LatestReader
	logger *zap.Logger
}

// NewLatestHandler returns handler.
func NewLatestHandler(reader LatestReader, logger *zap.Logger) *LatestHandler {
	return &LatestHandler{reader: reader, logger: logger}
}

func (h *LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("deviceID")
	window, err := influx.ParseWindow(r.URL.Query().Get("range"), defaultLatestWindow)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}

	latest, err := h.reader.Latest(r.Context(), device, window)
	if err != nil {
		h.logger.Error("latest query failed", zap.String("device_id", device), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, latest)
}
