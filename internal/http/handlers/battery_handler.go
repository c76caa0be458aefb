package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/battery"
	"github.com/sincl1t/m365-digital-twin/internal/influx"
)

const fullChargeRangeKm = 30.0

// BatteryHandler handles GET /api/battery/{deviceID}: a dashboard-grade SOC
// and remaining-range estimate from the latest voltage sample.
type BatteryHandler struct {
	reader LatestReader
	logger *zap.Logger
}

// NewBatteryHandler returns handler.
func NewBatteryHandler(reader LatestReader, logger *zap.Logger) *BatteryHandler {
	return &BatteryHandler{reader: reader, logger: logger}
}

func (h *BatteryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("deviceID")
	window, err := influx.ParseWindow(r.URL.Query().Get("range"), defaultLatestWindow)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}

	latest, err := h.reader.Latest(r.Context(), device, window)
	if err != nil {
		h.logger.Error("battery query failed", zap.String("device_id", device), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	voltage, ok := latest["u_batt_v"].(float64)
	if !ok {
		writeError(w, http.StatusNotFound, "no voltage samples in range")
		return
	}

	soc := battery.SOC(voltage)
	resp := map[string]interface{}{
		"device_id": device,
		"u_batt_v":  voltage,
		"soc":       soc,
		"range_km":  battery.EstimateRange(soc, fullChargeRangeKm),
	}
	if ts, ok := latest["ts"].(string); ok {
		resp["ts"] = ts
	}
	writeJSON(w, http.StatusOK, resp)
}
