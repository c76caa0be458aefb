package handlers

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sincl1t/m365-digital-twin/internal/models"
)

const maxWriteBody = 64 * 1024

// SyncWriter writes a point and returns only after the store accepted or
// rejected it.
type SyncWriter interface {
	WriteSync(ctx context.Context, rec *models.Record) error
}

// WriteHandler handles POST /api/write: a manual point write that is durable
// before the response goes out.
type WriteHandler struct {
	writer SyncWriter
	logger *zap.Logger
}

// NewWriteHandler returns handler.
func NewWriteHandler(writer SyncWriter, logger *zap.Logger) *WriteHandler {
	return &WriteHandler{writer: writer, logger: logger}
}

func (h *WriteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWriteBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	// The body is a partial record; every absent channel is zero-filled on
	// the manual path.
	rec, err := models.Decode(body, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.writer.WriteSync(r.Context(), rec); err != nil {
		h.logger.Error("manual write failed", zap.String("device_id", rec.DeviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
