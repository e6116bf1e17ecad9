package httpapi

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/projection"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/readapi"
)

type windowRequest struct {
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
}

type resourcesJSON struct {
	AccommodationID string `json:"accommodationId,omitempty"`
	TransferID      string `json:"transferId,omitempty"`
}

type moneyJSON struct {
	AmountMinor int64  `json:"amountMinor"`
	Currency    string `json:"currency"`
}

type createRequest struct {
	ReservationID string        `json:"reservationId,omitempty"`
	PatientID     string        `json:"patientId"`
	DoctorID      string        `json:"doctorId"`
	HospitalID    string        `json:"hospitalId"`
	Window        windowRequest `json:"window"`
	Resources     resourcesJSON `json:"resources"`
	Notes         string        `json:"notes,omitempty"`
}

type transitionRequest struct {
	ExpectedVersion core.VersionUint `json:"expectedVersion"`
	Reason          string           `json:"reason,omitempty"`
}

type rescheduleRequest struct {
	ExpectedVersion core.VersionUint `json:"expectedVersion"`
	Window          windowRequest    `json:"window"`
}

type refundRequest struct {
	ExpectedVersion core.VersionUint `json:"expectedVersion"`
	Amount          *moneyJSON       `json:"amount,omitempty"`
}

type windowJSON struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type reservationResponse struct {
	ReservationID      string        `json:"reservationId"`
	ReservationNumber  string        `json:"reservationNumber,omitempty"`
	PatientID          string        `json:"patientId"`
	DoctorID           string        `json:"doctorId"`
	HospitalID         string        `json:"hospitalId"`
	Window             windowJSON    `json:"window"`
	Resources          resourcesJSON `json:"resources"`
	Notes              string        `json:"notes,omitempty"`
	Status             core.Status   `json:"status"`
	Version            uint          `json:"version"`
	ConfirmedBy        string        `json:"confirmedBy,omitempty"`
	TotalPrice         *moneyJSON    `json:"totalPrice,omitempty"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	RefundReason       string        `json:"refundReason,omitempty"`
	RefundedAmount     *moneyJSON    `json:"refundedAmount,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	LastTransitionAt   time.Time     `json:"lastTransitionAt"`
}

type listResponse struct {
	Reservations []reservationResponse `json:"reservations"`
	Count        int                   `json:"count"`
}

type transitionsResponse struct {
	ReservationID      string        `json:"reservationId"`
	Status             core.Status   `json:"status"`
	AllowedTransitions []core.Status `json:"allowedTransitions"`
}

type availabilityResponse struct {
	DoctorID                  string     `json:"doctorId"`
	Window                    windowJSON `json:"window"`
	Available                 bool       `json:"available"`
	ConflictingReservationIDs []string   `json:"conflictingReservationIds"`
}

type statsResponse struct {
	HospitalID string              `json:"hospitalId"`
	Total      int                 `json:"total"`
	ByStatus   map[core.Status]int `json:"byStatus"`
}

func toReservationResponse(reservation core.Reservation, number string) reservationResponse {
	return reservationResponse{
		ReservationID:      reservation.ReservationID,
		ReservationNumber:  number,
		PatientID:          reservation.PatientID,
		DoctorID:           reservation.DoctorID,
		HospitalID:         reservation.HospitalID,
		Window:             toWindowJSON(reservation.Window),
		Resources:          resourcesJSON(reservation.Resources),
		Notes:              reservation.Notes,
		Status:             reservation.Status,
		Version:            reservation.Version,
		ConfirmedBy:        reservation.ConfirmedBy,
		TotalPrice:         toMoneyJSON(reservation.TotalPrice),
		CancellationReason: reservation.CancellationReason,
		RefundReason:       reservation.RefundReason,
		RefundedAmount:     toMoneyJSON(reservation.RefundedAmount),
		CreatedAt:          reservation.CreatedAt,
		LastTransitionAt:   reservation.LastTransitionAt,
	}
}

func toListResponse(views []projection.ReservationView) listResponse {
	reservations := make([]reservationResponse, 0, len(views))
	for _, view := range views {
		reservations = append(reservations, toReservationResponse(view.Reservation, view.ReservationNumber))
	}

	return listResponse{Reservations: reservations, Count: len(reservations)}
}

func toAvailabilityResponse(availability readapi.Availability) availabilityResponse {
	conflicts := availability.ConflictingReservationIDs
	if conflicts == nil {
		conflicts = []string{}
	}

	return availabilityResponse{
		DoctorID:                  availability.DoctorID,
		Window:                    toWindowJSON(availability.Window),
		Available:                 availability.Available,
		ConflictingReservationIDs: conflicts,
	}
}

func toWindowJSON(window core.Window) windowJSON {
	return windowJSON{Start: window.Start, End: window.End}
}

func toMoneyJSON(money core.Money) *moneyJSON {
	if money.IsZero() {
		return nil
	}

	return &moneyJSON{AmountMinor: money.AmountMinor, Currency: money.Currency}
}

// toWindow builds the window of a request. An explicit end wins over a duration,
// and without either the default slot duration applies.
func (w windowRequest) toWindow(defaultDuration time.Duration) (core.Window, error) {
	if w.End != nil {
		return core.BuildWindowFromBounds(w.Start, *w.End)
	}

	duration := defaultDuration
	if w.DurationMinutes != 0 {
		duration = time.Duration(w.DurationMinutes) * time.Minute
	}

	return core.BuildWindow(w.Start, duration)
}
