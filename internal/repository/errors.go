// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting SQL
// errors: for example ErrClassFull means the conditional occupancy update
// matched no row, while ErrDuplicateReservation means the member already has
// an active booking for the class.
package repository

import "errors"

// ErrEmailExists is returned when registering with an email address that is
// already taken. Handlers translate this into a duplicate-account response.
var ErrEmailExists = errors.New("email already exists")

// ErrClassFull is returned when a booking attempt finds the class at
// max_capacity. The check is a single conditional UPDATE, so two racing
// bookings can never both pass it.
var ErrClassFull = errors.New("class is full")

// ErrDuplicateReservation is returned when the member already holds a
// non-cancelled reservation for the class.
var ErrDuplicateReservation = errors.New("duplicate reservation")

// ErrInvalidState is returned when a state transition is not allowed, such
// as cancelling an order that is no longer in the "placed" status.
var ErrInvalidState = errors.New("invalid state")

// ErrEmptyCart is returned when an order is submitted without line items.
var ErrEmptyCart = errors.New("cart is empty")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")
