// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a class seat is booked. It
// carries enough context for downstream consumers to log or notify without
// querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	MemberID      uint64 `json:"member_id"`
	ClassID       uint64 `json:"class_id"`
	ClassName     string `json:"class_name"`
	CoachName     string `json:"coach_name"`
	ClassDate     string `json:"class_date"`
	StartTime     string `json:"start_time"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// OrderPlacedEvent is published after a rental order commits.
type OrderPlacedEvent struct {
	OrderID     uint64  `json:"order_id"`
	MemberID    uint64  `json:"member_id"`
	ItemCount   int     `json:"item_count"`
	TotalAmount float64 `json:"total_amount"`
	PlacedAt    string  `json:"placed_at"`
}

// PasswordResetEvent is published when a member requests a reset mail, so
// the audit trail survives even when SMTP delivery fails.
type PasswordResetEvent struct {
	Email       string `json:"email"`
	RequestedAt string `json:"requested_at"`
}
