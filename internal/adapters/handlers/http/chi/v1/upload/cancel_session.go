package upload

import (
	"net/http"
)

func (h *HandlerV1) CancelSessionV1(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.uploadService.CancelSession(r.Context(), id.TenantID, sessionID)
	if err != nil {
		h.writeError(w, r, "error cancelling session", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toV1Session(session))
}
