package booking

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "travel.booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on TopicBookingEvents.
const (
	EventBookingCreated       = "booking.created"
	EventBookingConfirmed     = "booking.confirmed"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingRefReassigned = "booking.ref_reassigned"
)

// EventPaymentCaptured is consumed from TopicPaymentEvents.
const EventPaymentCaptured = "payment.captured"

// CreatedEvent is published when a new booking row is stored.
type CreatedEvent struct {
	BookingID   uuid.UUID     `json:"booking_id"`
	BookingRef  string        `json:"booking_ref"`
	UserID      uuid.UUID     `json:"user_id"`
	ServiceType ServiceType   `json:"service_type"`
	ItemName    string        `json:"item_name"`
	Price       int64         `json:"price"`
	Status      BookingStatus `json:"status"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// ConfirmedEvent is published when a booking moves to confirmed.
type ConfirmedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingRef      string    `json:"booking_ref"`
	UserID          uuid.UUID `json:"user_id"`
	ExternalOrderID string    `json:"external_order_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// CancelledEvent is published when a booking is cancelled.
type CancelledEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	UserID     uuid.UUID `json:"user_id"`
	Deduction  int64     `json:"deduction"`
	Refund     int64     `json:"refund"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RefReassignedEvent is published when a provider confirmation number
// replaces the booking reference.
type RefReassignedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     uuid.UUID `json:"user_id"`
	OldRef     string    `json:"old_ref"`
	NewRef     string    `json:"new_ref"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent is the payload of EventPaymentCaptured.
type PaymentCapturedEvent struct {
	BookingRef string    `json:"booking_ref"`
	UserID     uuid.UUID `json:"user_id"`
}
