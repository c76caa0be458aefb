package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/registry"
)

// DeviceLister lists recently seen devices.
type DeviceLister interface {
	Devices(ctx context.Context) ([]registry.Device, error)
}

// DevicesHandler handles GET /api/devices.
type DevicesHandler struct {
	lister DeviceLister
	logger *zap.Logger
}

// NewDevicesHandler returns handler. lister may be nil when the registry is
// not configured.
func NewDevicesHandler(lister DeviceLister, logger *zap.Logger) *DevicesHandler {
	return &DevicesHandler{lister: lister, logger: logger}
}

func (h *DevicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeError(w, http.StatusServiceUnavailable, "device registry disabled")
		return
	}

	devices, err := h.lister.Devices(r.Context())
	if err != nil {
		h.logger.Error("device listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if devices == nil {
		devices = []registry.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}
