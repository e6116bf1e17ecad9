package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/collaborator"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const retryAfterSeconds = "1"

var (
	ErrMalformedBody       = errors.New("request body is not valid JSON")
	ErrMissingQueryParam   = errors.New("query parameter is required")
	ErrMalformedQueryParam = errors.New("query parameter is malformed")
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`

	ReservationID             string        `json:"reservationId,omitempty"`
	DoctorID                  string        `json:"doctorId,omitempty"`
	Window                    *windowJSON   `json:"window,omitempty"`
	ConflictingReservationIDs []string      `json:"conflictingReservationIds,omitempty"`
	ExpectedVersion           *uint         `json:"expectedVersion,omitempty"`
	CurrentVersion            *uint         `json:"currentVersion,omitempty"`
	CurrentStatus             core.Status   `json:"currentStatus,omitempty"`
	AllowedTransitions        []core.Status `json:"allowedTransitions,omitempty"`
}

// errorStatus maps an error to its HTTP status and response body.
func errorStatus(err error) (int, errorResponse) {
	response := errorResponse{Message: err.Error()}

	var slotConflict core.SlotConflictError
	var versionConflict core.VersionConflictError
	var illegalTransition core.IllegalTransitionError

	switch {
	case errors.As(err, &slotConflict):
		window := toWindowJSON(slotConflict.Window)
		response.Error = "slot_conflict"
		response.DoctorID = slotConflict.DoctorID
		response.Window = &window
		response.ConflictingReservationIDs = slotConflict.ConflictingReservationIDs

		return http.StatusConflict, response

	case errors.As(err, &versionConflict):
		response.Error = "version_conflict"
		response.ReservationID = versionConflict.ReservationID
		response.ExpectedVersion = &versionConflict.ExpectedVersion
		response.CurrentVersion = &versionConflict.CurrentVersion

		return http.StatusConflict, response

	case errors.As(err, &illegalTransition):
		response.Error = "illegal_transition"
		response.ReservationID = illegalTransition.ReservationID
		response.CurrentStatus = illegalTransition.CurrentStatus
		response.AllowedTransitions = illegalTransition.AllowedTransitions

		return http.StatusConflict, response

	case errors.Is(err, core.ErrVersionConflict):
		response.Error = "version_conflict"
		return http.StatusConflict, response

	case errors.Is(err, core.ErrSlotConflict):
		response.Error = "slot_conflict"
		return http.StatusConflict, response

	case errors.Is(err, core.ErrIllegalTransition):
		response.Error = "illegal_transition"
		return http.StatusConflict, response

	case errors.Is(err, core.ErrDailyLimit):
		response.Error = "daily_limit"
		return http.StatusConflict, response

	case errors.Is(err, core.ErrNotFound):
		response.Error = "not_found"
		return http.StatusNotFound, response

	case errors.Is(err, core.ErrInvalidCommand),
		errors.Is(err, ErrMalformedBody),
		errors.Is(err, ErrMissingQueryParam),
		errors.Is(err, ErrMalformedQueryParam):

		response.Error = "invalid_request"
		return http.StatusBadRequest, response

	case errors.Is(err, collaborator.ErrPricingUnavailable):
		response.Error = "pricing_unavailable"
		return http.StatusBadGateway, response

	case errors.Is(err, eventstore.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):

		response.Error = "store_unavailable"
		return http.StatusServiceUnavailable, response

	default:
		response.Error = "internal_error"
		response.Message = http.StatusText(http.StatusInternalServerError)

		return http.StatusInternalServerError, response
	}
}
