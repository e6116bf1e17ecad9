// Package requestrefund implements the Request Refund use case.
//
// A refund can be requested for CONFIRMED, CANCELLED and NO_SHOW reservations.
package requestrefund
