package handler

import (
	"encoding/json"
	"net/http"

	"payment-transaction-manager/internal/errors"
)

type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

type Error struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Details    string   `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := Response{Data: data}
	json.NewEncoder(w).Encode(response)
}

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")

	statusCode := appErr.HTTPStatus()
	errResponse := Error{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Error: &errResponse})
}

// handleError maps domain errors onto the response envelope. Batched
// validation failures keep every violation; everything unrecognized is
// an internal error.
func handleError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *errors.ValidationError:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(e.HTTPStatus())
		json.NewEncoder(w).Encode(Response{Error: &Error{
			Code:       string(errors.ValidationFailed),
			Message:    "validation failed",
			Violations: e.Violations,
		}})

	case *errors.StepUpError:
		writeError(w, errors.NewAppErrorf(errors.StepUpRequired, "step-up approval required").
			WithDetails(e.Level))

	case *errors.InvalidProviderError:
		writeError(w, errors.NewAppErrorf(errors.InvalidProvider, "invalid provider found for %s", e.Code))

	case *errors.TransactionNotFoundError:
		writeError(w, errors.NewAppErrorf(errors.TransactionNotFound, "transaction %s not found", e.ID))

	case *errors.UnknownStatusError:
		writeError(w, errors.NewAppError(errors.UnknownStatus, e.Message))

	case *errors.AppError:
		writeError(w, e)

	default:
		writeError(w, errors.NewAppError(errors.InternalError, "an unexpected error occurred").
			WithDetails(err.Error()))
	}
}
