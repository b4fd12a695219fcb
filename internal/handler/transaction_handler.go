package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
	"payment-transaction-manager/internal/usecase"
)

type TransactionHandler struct {
	billPayments *usecase.CreateBillPayment
	airtimeLoads *usecase.CreateAirtimeLoad
	repo         domain.TransactionRepo
}

func NewTransactionHandler(
	billPayments *usecase.CreateBillPayment,
	airtimeLoads *usecase.CreateAirtimeLoad,
	repo domain.TransactionRepo,
) *TransactionHandler {
	return &TransactionHandler{
		billPayments: billPayments,
		airtimeLoads: airtimeLoads,
		repo:         repo,
	}
}

type BillPaymentRequest struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	BillerCode    string `json:"biller_code"`
}

type AirtimeLoadRequest struct {
	ID              string `json:"id"`
	AccountNumber   string `json:"account_number"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	ProductCode     string `json:"product_code"`
	RecipientName   string `json:"recipient_name"`
	RecipientMobile string `json:"recipient_mobile"`
}

type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

func (h *TransactionHandler) CreateBillPayment(w http.ResponseWriter, r *http.Request) {
	var req BillPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	id, amount, accountNumber, err := parseCreation(req.ID, req.Amount, req.AccountNumber)
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := h.billPayments.Invoke(r.Context(), &usecase.BillPaymentRequest{
		ID:            id,
		AccountNumber: accountNumber,
		Amount:        amount,
		Currency:      req.Currency,
		BillerCode:    req.BillerCode,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{
		TransactionID: result.TransactionID.String(),
		Status:        string(result.TransactionStatus),
	})
}

func (h *TransactionHandler) CreateAirtimeLoad(w http.ResponseWriter, r *http.Request) {
	var req AirtimeLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	id, amount, accountNumber, err := parseCreation(req.ID, req.Amount, req.AccountNumber)
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := h.airtimeLoads.Invoke(r.Context(), &usecase.AirtimeLoadRequest{
		ID:              id,
		AccountNumber:   accountNumber,
		Amount:          amount,
		Currency:        req.Currency,
		Product:         req.ProductCode,
		RecipientName:   req.RecipientName,
		RecipientMobile: req.RecipientMobile,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{
		TransactionID: result.TransactionID.String(),
		Status:        string(result.TransactionStatus),
	})
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["transaction_id"])
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid transaction id").WithDetails(err.Error()))
		return
	}

	tx, err := h.repo.GetTransaction(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if tx == nil {
		handleError(w, &errors.TransactionNotFoundError{ID: id.String()})
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// parseCreation validates the wire-level fields shared by both creation
// endpoints. Business rules live in the use cases.
func parseCreation(rawID, rawAmount, rawAccountNumber string) (uuid.UUID, decimal.Decimal, domain.AccountNumber, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, decimal.Decimal{}, "", errors.NewAppError(errors.InvalidInput, "invalid transaction id").WithDetails(err.Error())
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return uuid.Nil, decimal.Decimal{}, "", errors.NewAppError(errors.InvalidInput, "invalid amount format").WithDetails(err.Error())
	}

	accountNumber, err := domain.NewAccountNumber(rawAccountNumber)
	if err != nil {
		return uuid.Nil, decimal.Decimal{}, "", err
	}

	return id, amount, accountNumber, nil
}
