// Package model holds the status vocabularies shared between handlers and
// repositories. The values are stored verbatim in the database, so they must
// match the enum columns of the schema.
package model

// Reservation status values. At most one non-cancelled reservation may exist
// per (member, class) pair.
const (
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// Order status values. Only a "placed" order can be cancelled; a "returned"
// rental becomes eligible for review.
const (
	OrderPlaced    = "placed"
	OrderCancelled = "cancelled"
	OrderReturned  = "returned"
)

// Payment status values.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)
