package upload

import (
	"net/http"
)

// V1PartURLResponse is a pre-signed url for one part
type V1PartURLResponse struct {
	Part  V1Part   `json:"part"`
	Grant *V1Grant `json:"grant"`
}

func (h *HandlerV1) GeneratePartURLV1(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	partNumber, err := partNumberParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	grant, err := h.uploadService.GeneratePartURL(r.Context(), id.TenantID, sessionID, partNumber)
	if err != nil {
		h.writeError(w, r, "error generating part url", err)
		return
	}
	h.writeJSON(w, http.StatusOK, V1PartURLResponse{Part: toV1Part(grant.Part), Grant: toV1Grant(grant.Grant)})
}
