package upload

import (
	"net/http"
)

func (h *HandlerV1) GetStatusV1(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := h.uploadService.GetStatus(r.Context(), id.TenantID, sessionID)
	if err != nil {
		h.writeError(w, r, "error getting session status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toV1Status(status))
}
