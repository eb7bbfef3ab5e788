package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors to HTTP status codes and a stable error code.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Error(), Code: "validation_error"})
		return
	}

	status, code, message := classify(err)

	// Services sometimes attach a more specific code and message; prefer it.
	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func classify(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", "invalid input"
	case errors.Is(err, domainErrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "unauthorized"
	case errors.Is(err, domainErrors.ErrPaymentFailed):
		return http.StatusPaymentRequired, "payment_failed", "payment failed"
	case errors.Is(err, domainErrors.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found", "ticket not found"
	case errors.Is(err, domainErrors.ErrSoldOut):
		return http.StatusConflict, "sold_out", "event is sold out"
	case errors.Is(err, domainErrors.ErrInvalidStateTransition):
		return http.StatusConflict, "invalid_transition", "invalid ticket state transition"
	case errors.Is(err, domainErrors.ErrInvalidEventData):
		return http.StatusUnprocessableEntity, "invalid_event_data", "event data is invalid"
	case errors.Is(err, domainErrors.ErrEventUnavailable):
		return http.StatusServiceUnavailable, "event_unavailable", "event service unavailable"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

// decodeAndValidate decodes the request body into dst and runs struct validation.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domainErrors.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	if err := validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			first := invalid[0]
			return &domainErrors.ValidationError{
				Field:   first.Field(),
				Message: fmt.Sprintf("failed on %q validation", first.Tag()),
			}
		}
		return &domainErrors.ValidationError{Field: "body", Message: "invalid request"}
	}
	return nil
}

// userIDFromRequest extracts the authenticated caller from the X-User-ID
// header placed by the upstream gateway.
func userIDFromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, &domainErrors.DomainError{
			Code:    "unauthorized",
			Message: "missing X-User-ID header",
			Err:     domainErrors.ErrUnauthorized,
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domainErrors.DomainError{
			Code:    "unauthorized",
			Message: "invalid X-User-ID header",
			Err:     domainErrors.ErrUnauthorized,
		}
	}
	return id, nil
}
