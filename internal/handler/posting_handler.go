package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"payment-transaction-manager/internal/dispatch"
	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

// PostingHandler receives asynchronous posting-system responses over
// HTTP and hands them to the dispatcher. One endpoint per response
// kind; the payload shape is shared.
type PostingHandler struct {
	dispatcher *dispatch.Dispatcher
}

func NewPostingHandler(dispatcher *dispatch.Dispatcher) *PostingHandler {
	return &PostingHandler{dispatcher: dispatcher}
}

type PostingResponseRequest struct {
	RequestID     string `json:"request_id"`
	TransactionID string `json:"transaction_id"`
	BatchID       string `json:"batch_id"`
	BatchStatus   string `json:"batch_status"`
	Product       string `json:"product"`
	Provider      string `json:"provider"`
}

type PostingResponseAck struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

func (h *PostingHandler) ReservationResponse(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, dispatch.KindReservation)
}

func (h *PostingHandler) SettlementResponse(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, dispatch.KindSettlement)
}

func (h *PostingHandler) ReleaseResponse(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, dispatch.KindRelease)
}

func (h *PostingHandler) CustomerFeeResponse(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, dispatch.KindCustomerFee)
}

func (h *PostingHandler) VendorFeeResponse(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, dispatch.KindVendorFee)
}

func (h *PostingHandler) dispatch(w http.ResponseWriter, r *http.Request, kind dispatch.Kind) {
	var req PostingResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	if req.RequestID == "" {
		writeError(w, errors.NewAppError(errors.InvalidInput, "request_id is required"))
		return
	}
	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid transaction id").WithDetails(err.Error()))
		return
	}

	resp := &dispatch.Response{
		RequestID:     req.RequestID,
		TransactionID: transactionID,
		BatchID:       req.BatchID,
		BatchStatus:   dispatch.BatchStatus(req.BatchStatus),
		Product:       domain.TransactionType(req.Product),
		Provider:      req.Provider,
	}

	if err := h.dispatcher.Dispatch(r.Context(), kind, resp); err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PostingResponseAck{
		RequestID: req.RequestID,
		Status:    "processed",
	})
}
