package handlers

import (
	"net/http"

	"github.com/benx421/rapidpay/internal/api"
)

// PayWithCard handles POST /api/v1/cards/{cardNumber}/pay
func (h *Handler) PayWithCard(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := bindCardNumber(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeValidation, err.Error())
		return
	}

	var req api.PayRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeValidation, err.Error())
		return
	}

	txn, err := h.payService.Pay(r.Context(), cardNumber, req.Amount)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}
