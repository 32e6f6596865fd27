package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

const (
	// MaxBookingRefLength bounds caller-supplied references.
	MaxBookingRefLength = 64
	// MaxPassengers bounds a single booking.
	MaxPassengers = 9
	// DefaultPaymentMethod is used when the caller does not name one.
	DefaultPaymentMethod = "UPI"
)

// Draft carries the caller-supplied fields of a new booking.
type Draft struct {
	BookingRef     string
	UserID         uuid.UUID
	Itinerary      Itinerary
	PassengerCount int
	TravelerNames  []string
	Price          int64
	PaymentMethod  string
	Status         BookingStatus
	OfferID        string
	SourceTag      offer.SourceTag
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id              uuid.UUID
	bookingRef      string
	userID          uuid.UUID
	itinerary       Itinerary
	passengerCount  int
	travelerNames   []string
	price           int64
	paymentMethod   string
	status          BookingStatus
	offerID         string
	sourceTag       offer.SourceTag
	externalOrderID string
	confirmationRef string

	deductionAmount *int64
	refundAmount    *int64

	bookedAt    time.Time
	confirmedAt *time.Time
	cancelledAt *time.Time

	version   int64
	updatedAt time.Time
}

// ValidateBookingRef checks a caller-supplied reference.
func ValidateBookingRef(ref string) error {
	if ref == "" {
		return domain.NewValidationError("booking reference is required")
	}
	if len(ref) > MaxBookingRefLength {
		return domain.NewValidationError(fmt.Sprintf("booking reference must be at most %d characters", MaxBookingRefLength))
	}
	if strings.IndexFunc(ref, unicode.IsSpace) >= 0 {
		return domain.NewValidationError("booking reference must not contain spaces")
	}
	return nil
}

// NewBooking validates d and creates a Booking aggregate. The initial status
// is confirmed unless the caller asks for payment_pending.
func NewBooking(d Draft) (*Booking, error) {
	d.BookingRef = strings.TrimSpace(d.BookingRef)
	if err := ValidateBookingRef(d.BookingRef); err != nil {
		return nil, err
	}
	if d.UserID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}

	it := d.Itinerary
	serviceType, ok := ParseServiceType(string(it.ServiceType))
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid service type: %s", it.ServiceType))
	}
	it.ServiceType = serviceType
	it.ItemName = strings.TrimSpace(it.ItemName)
	it.FromPlace = strings.TrimSpace(it.FromPlace)
	it.ToPlace = strings.TrimSpace(it.ToPlace)
	if it.ItemName == "" {
		return nil, domain.NewValidationError("item name is required")
	}
	if it.ToPlace == "" {
		return nil, domain.NewValidationError("destination is required")
	}
	if it.FromPlace == "" && !serviceType.IsStay() {
		return nil, domain.NewValidationError("origin is required")
	}
	if strings.TrimSpace(it.TravelDate) == "" {
		return nil, domain.NewValidationError("travel date is required")
	}

	if d.PassengerCount == 0 {
		d.PassengerCount = 1
	}
	if d.PassengerCount < 1 || d.PassengerCount > MaxPassengers {
		return nil, domain.NewValidationError(fmt.Sprintf("passenger count must be between 1 and %d", MaxPassengers))
	}
	if d.Price <= 0 {
		return nil, domain.NewValidationError("price must be positive")
	}

	if d.Status == "" {
		d.Status = StatusConfirmed
	}
	if d.Status != StatusConfirmed && d.Status != StatusPaymentPending {
		return nil, domain.NewValidationError(fmt.Sprintf("a booking cannot start as %s", d.Status))
	}
	if strings.TrimSpace(d.PaymentMethod) == "" {
		d.PaymentMethod = DefaultPaymentMethod
	}
	if !d.SourceTag.IsValid() {
		d.SourceTag = offer.SourceSynthetic
	}

	now := time.Now().UTC()
	bk := &Booking{
		id:             uuid.New(),
		bookingRef:     d.BookingRef,
		userID:         d.UserID,
		itinerary:      it,
		passengerCount: d.PassengerCount,
		travelerNames:  SplitTravelerNames(JoinTravelerNames(d.TravelerNames)),
		price:          d.Price,
		paymentMethod:  strings.TrimSpace(d.PaymentMethod),
		status:         d.Status,
		offerID:        strings.TrimSpace(d.OfferID),
		sourceTag:      d.SourceTag,
		bookedAt:       now,
		version:        1,
		updatedAt:      now,
	}
	if bk.status == StatusConfirmed {
		bk.confirmedAt = &now
	}
	return bk, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingRef string,
	userID uuid.UUID,
	itinerary Itinerary,
	passengerCount int,
	travelerNames []string,
	price int64,
	paymentMethod string,
	status BookingStatus,
	offerID string,
	sourceTag offer.SourceTag,
	externalOrderID string,
	confirmationRef string,
	deductionAmount *int64,
	refundAmount *int64,
	bookedAt time.Time,
	confirmedAt *time.Time,
	cancelledAt *time.Time,
	version int64,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingRef:      bookingRef,
		userID:          userID,
		itinerary:       itinerary,
		passengerCount:  passengerCount,
		travelerNames:   travelerNames,
		price:           price,
		paymentMethod:   paymentMethod,
		status:          status,
		offerID:         offerID,
		sourceTag:       sourceTag,
		externalOrderID: externalOrderID,
		confirmationRef: confirmationRef,
		deductionAmount: deductionAmount,
		refundAmount:    refundAmount,
		bookedAt:        bookedAt,
		confirmedAt:     confirmedAt,
		cancelledAt:     cancelledAt,
		version:         version,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's surrogate identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingRef returns the unique booking reference.
func (b *Booking) BookingRef() string { return b.bookingRef }

// UserID returns the owning user's ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// Itinerary returns what was booked.
func (b *Booking) Itinerary() Itinerary { return b.itinerary }

// PassengerCount returns the number of travelers.
func (b *Booking) PassengerCount() int { return b.passengerCount }

// TravelerNames returns the traveler names.
func (b *Booking) TravelerNames() []string { return b.travelerNames }

// Price returns the booked price in whole currency units.
func (b *Booking) Price() int64 { return b.price }

// PaymentMethod returns the payment method label.
func (b *Booking) PaymentMethod() string { return b.paymentMethod }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// OfferID returns the id of the offer this booking was made from.
func (b *Booking) OfferID() string { return b.offerID }

// SourceTag returns the tier the booked offer came from.
func (b *Booking) SourceTag() offer.SourceTag { return b.sourceTag }

// ExternalOrderID returns the provider's order id, if an order was placed.
func (b *Booking) ExternalOrderID() string { return b.externalOrderID }

// ConfirmationRef returns the provider's confirmation number awaiting adoption
// as the booking reference.
func (b *Booking) ConfirmationRef() string { return b.confirmationRef }

// HasExternalOrder reports whether an upstream order was already placed.
func (b *Booking) HasExternalOrder() bool { return b.externalOrderID != "" }

// DeductionAmount returns the cancellation deduction, or nil if not cancelled.
func (b *Booking) DeductionAmount() *int64 { return b.deductionAmount }

// RefundAmount returns the cancellation refund, or nil if not cancelled.
func (b *Booking) RefundAmount() *int64 { return b.refundAmount }

// BookedAt returns the creation timestamp.
func (b *Booking) BookedAt() time.Time { return b.bookedAt }

// ConfirmedAt returns the confirmation time.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// CancelledAt returns the cancellation time.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy reports whether userID owns this booking.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool { return b.userID == userID }

// --- Behavior ---

// Confirm transitions the booking from payment_pending to confirmed.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel records the refund split and moves the booking to cancelled.
func (b *Booking) Cancel(quote RefundQuote) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	if quote.Deduction+quote.Refund != b.price {
		return fmt.Errorf("refund quote does not match booking price")
	}
	now := time.Now().UTC()
	deduction, refund := quote.Deduction, quote.Refund
	b.status = StatusCancelled
	b.deductionAmount = &deduction
	b.refundAmount = &refund
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// ReassignRef replaces the booking reference with a provider confirmation number.
func (b *Booking) ReassignRef(newRef, externalOrderID string) error {
	newRef = strings.TrimSpace(newRef)
	if err := ValidateBookingRef(newRef); err != nil {
		return err
	}
	if b.status.IsTerminal() {
		return domain.NewInvalidStateError(string(b.status), string(b.status))
	}
	b.bookingRef = newRef
	if externalOrderID != "" {
		b.externalOrderID = externalOrderID
	}
	b.updatedAt = time.Now().UTC()
	return nil
}

// RecordOrder keeps the upstream order id and confirmation number on a
// booking that is not yet confirmed. An order can be recorded once.
func (b *Booking) RecordOrder(orderID, confirmationRef string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.NewValidationError("order ID is required")
	}
	if b.status != StatusPaymentPending {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	if b.externalOrderID != "" && b.externalOrderID != orderID {
		return domain.NewConflictError(fmt.Sprintf("booking %s already holds order %s", b.bookingRef, b.externalOrderID))
	}
	b.externalOrderID = orderID
	b.confirmationRef = strings.TrimSpace(confirmationRef)
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
