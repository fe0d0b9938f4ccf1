package handler

import (
	"net/http"

	"sweatervote/internal/httputil"
	"sweatervote/internal/service"
	"sweatervote/internal/transport/http/middleware"
)

type DeviceHandler struct {
	source service.DataSource
}

func NewDeviceHandler(source service.DataSource) *DeviceHandler {
	return &DeviceHandler{source: source}
}

// Status handles GET /status
// Returns the device's has_uploaded and has_voted flags. Never fails.
func (h *DeviceHandler) Status(w http.ResponseWriter, r *http.Request) {
	deviceID, _ := middleware.GetDeviceIDFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, h.source.Status(r.Context(), deviceID))
}
