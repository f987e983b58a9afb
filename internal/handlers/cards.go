package handlers

import (
	"net/http"

	"github.com/benx421/rapidpay/internal/api"
	"github.com/benx421/rapidpay/internal/models"
)

// CreateCard handles POST /api/v1/cards
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCardRequest
	if err := decodeBody(r, &req, true); err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeValidation, err.Error())
		return
	}

	issued, err := h.cardService.CreateCard(r.Context(), req.CreditLimit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, api.IssuedCardResponse{
		CardNumber:   issued.Number,
		CardResponse: toCardResponse(issued.Card),
	})
}

// GetCardBalance handles GET /api/v1/cards/{cardNumber}/balance
func (h *Handler) GetCardBalance(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := bindCardNumber(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeValidation, err.Error())
		return
	}

	card, err := h.cardService.GetBalance(r.Context(), cardNumber)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.BalanceResponse{
		Balance:     formatMoney(card.Balance),
		CreditLimit: optionalMoney(card.CreditLimit),
	})
}

// UpdateCard handles PUT /api/v1/cards/{cardNumber}
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := bindCardNumber(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeValidation, err.Error())
		return
	}

	var req api.UpdateCardRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeValidation, err.Error())
		return
	}

	card, err := h.cardService.UpdateCard(r.Context(), cardNumber, models.CardUpdate{
		Balance:     req.Balance,
		CreditLimit: req.CreditLimit,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// GetCardHistory handles GET /api/v1/cards/{cardNumber}/history
func (h *Handler) GetCardHistory(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := bindCardNumber(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeValidation, err.Error())
		return
	}

	history, err := h.cardService.GetHistory(r.Context(), cardNumber)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := api.CardHistoryResponse{
		Transactions:   make([]api.TransactionResponse, 0, len(history.Transactions)),
		Changes:        make([]api.CardChangeResponse, 0, len(history.Changes)),
		Authorizations: make([]api.AuthorizationAttemptResponse, 0, len(history.Authorizations)),
	}
	for i := range history.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(&history.Transactions[i]))
	}
	for _, c := range history.Changes {
		resp.Changes = append(resp.Changes, api.CardChangeResponse{
			ID:        c.ID,
			Field:     string(c.Field),
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
			ChangedAt: c.ChangedAt,
		})
	}
	for _, a := range history.Authorizations {
		resp.Authorizations = append(resp.Authorizations, api.AuthorizationAttemptResponse{
			ID:          a.ID,
			Authorized:  a.Granted,
			AttemptedAt: a.AttemptedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}
