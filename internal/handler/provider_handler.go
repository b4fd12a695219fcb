package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
	"payment-transaction-manager/internal/usecase"
)

// ProviderHandler receives payment outcome callbacks from external
// providers once a submitted payment resolves.
type ProviderHandler struct {
	successful *usecase.HandleSuccessfulPayment
	failed     *usecase.HandleFailedPayment
}

func NewProviderHandler(successful *usecase.HandleSuccessfulPayment, failed *usecase.HandleFailedPayment) *ProviderHandler {
	return &ProviderHandler{
		successful: successful,
		failed:     failed,
	}
}

type ProviderCallbackRequest struct {
	TransactionID string `json:"transaction_id"`
	ProviderID    string `json:"provider_id"`
	Status        string `json:"status"`
}

func (h *ProviderHandler) PaymentResponse(w http.ResponseWriter, r *http.Request) {
	var req ProviderCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid transaction id").WithDetails(err.Error()))
		return
	}

	switch domain.ProviderStatus(req.Status) {
	case domain.ProviderSuccess:
		err = h.successful.Invoke(r.Context(), transactionID)
	case domain.ProviderFailed:
		err = h.failed.Invoke(r.Context(), transactionID)
	default:
		handleError(w, errors.NewValidationError(
			fmt.Sprintf("Invalid provider status %q for transaction %s", req.Status, transactionID)))
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransactionResponse{
		TransactionID: req.TransactionID,
		Status:        "processed",
	})
}
