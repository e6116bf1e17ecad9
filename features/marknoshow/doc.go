// Package marknoshow implements the Mark No-Show use case for CONFIRMED reservations whose patient did not appear.
package marknoshow
