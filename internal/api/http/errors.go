package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"

	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Error            string                      `json:"error"`
	Violations       domain.ConstraintViolations `json:"violations,omitempty"`
	RateError        *domain.RateError           `json:"rate_error,omitempty"`
	CurrentStatus    domain.PaymentStatus        `json:"current_status,omitempty"`
	From             domain.ReservationStatus    `json:"from,omitempty"`
	To               domain.ReservationStatus    `json:"to,omitempty"`
	RoomID           int32                       `json:"room_id,omitempty"`
	ConflictingResID int32                       `json:"conflicting_reservation_id,omitempty"`
	Retryable        bool                        `json:"retryable,omitempty"`
	Fields           map[string]string           `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps a service error to its HTTP status and body.
func statusFor(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var (
		violations domain.ConstraintViolations
		rateErr    *domain.RateError
		transition *domain.InvalidTransitionError
		conflict   *domain.InventoryConflictError
		refund     *domain.RefundNotAllowedError
		invalid    validator.ValidationErrors
	)
	switch {
	case errors.As(err, &invalid):
		body.Error = "request validation failed"
		body.Fields = make(map[string]string, len(invalid))
		for _, fe := range invalid {
			body.Fields[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, body
	case errors.As(err, &violations):
		body.Violations = violations
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &rateErr):
		body.RateError = rateErr
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &transition):
		body.From, body.To = transition.From, transition.To
		return http.StatusConflict, body
	case errors.As(err, &conflict):
		body.RoomID = conflict.RoomID
		body.ConflictingResID = conflict.ConflictingReservationID
		body.Retryable = conflict.Retryable()
		return http.StatusConflict, body
	case errors.As(err, &refund):
		body.CurrentStatus = refund.CurrentStatus
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, domain.ErrOverrideRequiresConfirmation),
		errors.Is(err, domain.ErrRoomTypeInUse),
		errors.Is(err, domain.ErrNoShowTooEarly),
		errors.Is(err, domain.ErrRoomOutOfService),
		errors.Is(err, domain.ErrRoomInactive):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrRefundExceedsBalance):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrNoApplicableWeekday),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrReasonRequired):
		return http.StatusBadRequest, body
	}
	return http.StatusInternalServerError, errorBody{Error: "internal error"}
}

// writeError logs every failure with the path variables (reservation id
// among them); the request context adds the request id and acting user.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	args := []any{"route", routeKey(r), "status", status, "error", err}
	for k, v := range pathVars(r) {
		args = append(args, k, v)
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", args...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", args...)
	}
	writeJSON(w, status, body)
}
