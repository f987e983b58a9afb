package handlers

import (
	"net/http"

	"github.com/benx421/rapidpay/internal/api"
)

// GetCurrentFee handles GET /api/v1/fees
func (h *Handler) GetCurrentFee(w http.ResponseWriter, r *http.Request) {
	fee, err := h.feeService.CurrentFee(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.FeeResponse{Fee: formatMoney(fee)})
}
