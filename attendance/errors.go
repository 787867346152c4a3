package attendance

import (
	"errors"
	"fmt"
)

// Rejection reasons returned by the validator. Each gate failure is terminal
// for the request; the caller decides whether to resubmit.
var (
	ErrMissingFields          = errors.New("missing required fields")
	ErrExpired                = errors.New("QR code has expired. Please get a new QR from your teacher.")
	ErrDuplicateDevice        = errors.New("Attendance already marked from this device/IP. One entry per device allowed.")
	ErrTransactionUnconfirmed = errors.New("Transaction not confirmed")
)

// OutOfRangeError carries the measured distance so the student can see how
// far off they are.
type OutOfRangeError struct {
	DistanceMeters float64
	AllowedMeters  float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("You are %.0fm away. Must be within %.0fm of classroom.",
		e.DistanceMeters, e.AllowedMeters)
}
