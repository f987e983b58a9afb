package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/benx421/rapidpay/internal/api"
	"github.com/benx421/rapidpay/internal/models"
	"github.com/benx421/rapidpay/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

func bindCardNumber(r *http.Request) (string, error) {
	var cardNumber string
	err := runtime.BindStyledParameterWithOptions("simple", "cardNumber", chi.URLParam(r, "cardNumber"), &cardNumber,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter cardNumber: %w", err)
	}
	return cardNumber, nil
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code api.ErrorCode, message string) {
	h.writeJSON(w, status, api.ErrorResponse{Error: code, Message: message})
}

// handleServiceError maps service errors to HTTP responses
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	svcErr := extractServiceError(err)
	if svcErr == nil {
		h.logger.Error("unexpected error", "error", err)
		h.writeError(w, http.StatusInternalServerError, api.ErrorCodeInternalError, "internal error")
		return
	}

	status, code := mapServiceError(svcErr.Code)
	message := svcErr.Message
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	h.writeError(w, status, code, message)
}

func mapServiceError(code string) (int, api.ErrorCode) {
	switch code {
	case service.ErrCodeValidation:
		return http.StatusBadRequest, api.ErrorCodeValidation
	case service.ErrCodeCardNotAuthorized:
		return http.StatusBadRequest, api.ErrorCodeCardNotAuthorized
	case service.ErrCodeCardNotFound:
		return http.StatusNotFound, api.ErrorCodeCardNotFound
	case service.ErrCodeConflict:
		return http.StatusConflict, api.ErrorCodeConflict
	default:
		return http.StatusInternalServerError, api.ErrorCodeInternalError
	}
}

func extractServiceError(err error) *service.ServiceError {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := formatMoney(d.Decimal)
	return &s
}

func toTransactionResponse(txn *models.Transaction) api.TransactionResponse {
	return api.TransactionResponse{
		ID:         txn.ID,
		CardID:     txn.CardID,
		Amount:     formatMoney(txn.Amount),
		Fee:        formatMoney(txn.Fee),
		OccurredAt: txn.OccurredAt,
	}
}

func toCardResponse(card *models.Card) api.CardResponse {
	return api.CardResponse{
		ID:          card.ID,
		Balance:     formatMoney(card.Balance),
		CreditLimit: optionalMoney(card.CreditLimit),
		IsActive:    card.IsActive,
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}
}
