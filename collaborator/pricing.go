package collaborator

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

var ErrPricingUnavailable = errors.New("pricing service unavailable")

// QuoteRequest names what is being priced.
type QuoteRequest struct {
	ReservationID core.ReservationIDString
	HospitalID    core.HospitalIDString
	DoctorID      core.DoctorIDString
	Window        core.Window
}

// FixedPricing charges a base fee plus an hourly rate, optionally overridden per doctor.
// It stands in for the real pricing service in development setups and tests.
type FixedPricing struct {
	Currency        string
	BaseAmountMinor int64
	HourlyMinor     int64
	DoctorHourly    map[core.DoctorIDString]int64
}

// Quote returns the price for the requested window, prorated per started minute.
func (p FixedPricing) Quote(ctx context.Context, request QuoteRequest) (core.Money, error) {
	if err := ctx.Err(); err != nil {
		return core.Money{}, errors.Join(ErrPricingUnavailable, err)
	}

	hourly := p.HourlyMinor
	if override, ok := p.DoctorHourly[request.DoctorID]; ok {
		hourly = override
	}

	minutes := int64(request.Window.Duration().Minutes())

	return core.Money{
		AmountMinor: p.BaseAmountMinor + hourly*minutes/60,
		Currency:    p.Currency,
	}, nil
}
