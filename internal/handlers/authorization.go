package handlers

import (
	"net/http"

	"github.com/benx421/rapidpay/internal/api"
	"github.com/go-chi/chi/v5"
)

// AuthorizeCard handles POST /api/v1/cards/{cardNumber}/authorize.
// Every outcome other than a grant is reported as 400 with authorized=false.
// Malformed numbers still reach the engine so the attempt is recorded.
func (h *Handler) AuthorizeCard(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := bindCardNumber(r)
	if err != nil {
		cardNumber = chi.URLParam(r, "cardNumber")
	}

	if !h.authService.Authorize(r.Context(), cardNumber) {
		h.writeJSON(w, http.StatusBadRequest, api.AuthorizationResponse{Authorized: false})
		return
	}

	h.writeJSON(w, http.StatusOK, api.AuthorizationResponse{Authorized: true})
}
