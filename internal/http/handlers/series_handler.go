package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/influx"
)

const defaultSeriesWindow = 60 * time.Minute

// SeriesReader serves the series-by-device query.
type SeriesReader interface {
	Series(ctx context.Context, device string, window time.Duration, fields []string) ([]influx.SeriesRow, error)
}

// SeriesHandler handles GET /api/series/{deviceID}.
type SeriesHandler struct {
	reader SeriesReader
	logger *zap.Logger
}

// NewSeriesHandler returns handler.
func NewSeriesHandler(reader SeriesReader, logger *zap.Logger) *SeriesHandler {
	return &SeriesHandler{reader: reader, logger: logger}
}

func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("deviceID")
	window, err := influx.ParseWindow(r.URL.Query().Get("range"), defaultSeriesWindow)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}

	rows, err := h.reader.Series(r.Context(), device, window, parseFields(r.URL.Query().Get("fields")))
	if err != nil {
		h.logger.Error("series query failed", zap.String("device_id", device), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// parseFields splits the comma-separated fields parameter. Unknown names are
// passed through; the store filter simply matches nothing for them.
func parseFields(raw string) []string {
	if raw == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
