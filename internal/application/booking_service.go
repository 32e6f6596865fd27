package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/bridge"
	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/common/kafka"
	bookingDomain "github.com/asrs-travel/service-booking/internal/domain/booking"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

const eventSource = "service-booking"

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// OfferCache keeps live offers between search and booking.
type OfferCache interface {
	Put(ctx context.Context, userID uuid.UUID, offers []offer.Offer) error
	Get(ctx context.Context, userID uuid.UUID, offerID string) (*offer.Offer, error)
}

// OrderPlacer places upstream orders for live flight offers.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, rawOffer json.RawMessage, travelers []bookingDomain.Traveler) (bridge.OrderResult, error)
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	BookingRef     string   `json:"booking_ref" binding:"required"`
	ServiceType    string   `json:"service_type" binding:"required"`
	ItemName       string   `json:"item_name" binding:"required"`
	FromPlace      string   `json:"from_place"`
	ToPlace        string   `json:"to_place"`
	TravelDate     string   `json:"travel_date"`
	SeatOrRoom     string   `json:"seat_or_room"`
	PassengerCount int      `json:"passenger_count"`
	TravelerNames  []string `json:"traveler_names"`
	ClassType      string   `json:"class_type"`
	Price          int64    `json:"price"`
	PaymentMethod  string   `json:"payment_method"`
	Status         string   `json:"status"`
	OfferID        string   `json:"offer_id"`
	SourceTag      string   `json:"source_tag"`
}

// UpdateStatusRequest moves a booking to a new status. Travelers are only used
// when confirming a live flight offer.
type UpdateStatusRequest struct {
	Status         string                   `json:"status" binding:"required"`
	ReplacementRef string                   `json:"replacement_ref"`
	OfferID        string                   `json:"offer_id"`
	Travelers      []bookingDomain.Traveler `json:"travelers"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID  `json:"id"`
	BookingRef      string     `json:"booking_ref"`
	UserID          uuid.UUID  `json:"user_id"`
	ServiceType     string     `json:"service_type"`
	ItemName        string     `json:"item_name"`
	FromPlace       string     `json:"from_place,omitempty"`
	ToPlace         string     `json:"to_place"`
	TravelDate      string     `json:"travel_date"`
	SeatOrRoom      string     `json:"seat_or_room,omitempty"`
	PassengerCount  int        `json:"passenger_count"`
	TravelerNames   []string   `json:"traveler_names,omitempty"`
	ClassType       string     `json:"class_type,omitempty"`
	Price           int64      `json:"price"`
	PaymentMethod   string     `json:"payment_method"`
	Status          string     `json:"status"`
	OfferID         string     `json:"offer_id,omitempty"`
	SourceTag       string     `json:"source_tag"`
	ExternalOrderID string     `json:"external_order_id,omitempty"`
	DeductionAmount *int64     `json:"deduction_amount,omitempty"`
	RefundAmount    *int64     `json:"refund_amount,omitempty"`
	BookedAt        time.Time  `json:"booked_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	Version         int64      `json:"version"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateBookingResult reports whether the call stored a new row.
type CreateBookingResult struct {
	Created bool       `json:"created"`
	Booking BookingDTO `json:"booking"`
}

// StatusUpdateResult carries the (possibly rewritten) reference and, when an
// upstream order was placed, its outcome.
type StatusUpdateResult struct {
	BookingRef string                     `json:"booking_ref"`
	Booking    BookingDTO                 `json:"booking"`
	Order      *bridge.OrderResult        `json:"order,omitempty"`
	Refund     *bookingDomain.RefundQuote `json:"refund,omitempty"`
}

// CancellationResult is the refund split recorded on cancellation.
type CancellationResult struct {
	Deduction int64      `json:"deduction"`
	Refund    int64      `json:"refund"`
	Booking   BookingDTO `json:"booking"`
}

// BookingSummaryDTO is a user's spend profile.
type BookingSummaryDTO struct {
	TotalSpent    int64            `json:"total_spent"`
	TotalBookings int64            `json:"total_bookings"`
	ByServiceType map[string]int64 `json:"by_service_type"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	policy    bookingDomain.CancellationPolicy
	offers    OfferCache
	orders    OrderPlacer
	publisher EventPublisher
	logger    *zap.Logger

	saveBackOff func() backoff.BackOff
}

// Local save retry bounds.
const (
	saveRetryInterval = 100 * time.Millisecond
	saveMaxRetries    = 3
)

func defaultSaveBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = saveRetryInterval
	return backoff.WithMaxRetries(policy, saveMaxRetries)
}

// NewBookingService creates a new BookingService. offers and orders may be
// nil, in which case confirmations never go upstream.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	policy bookingDomain.CancellationPolicy,
	offers OfferCache,
	orders OrderPlacer,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:        repo,
		policy:      policy,
		offers:      offers,
		orders:      orders,
		publisher:   publisher,
		logger:      logger,
		saveBackOff: defaultSaveBackOff,
	}
}

// CreateBooking stores a booking unless its reference already exists. A retry
// by the same user returns the stored row untouched; a reference held by
// another user is a conflict.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*CreateBookingResult, error) {
	var status bookingDomain.BookingStatus
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := bookingDomain.ParseBookingStatus(req.Status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		status = parsed
	}

	bk, err := bookingDomain.NewBooking(bookingDomain.Draft{
		BookingRef: req.BookingRef,
		UserID:     userID,
		Itinerary: bookingDomain.Itinerary{
			ServiceType: bookingDomain.ServiceType(req.ServiceType),
			ItemName:    req.ItemName,
			FromPlace:   req.FromPlace,
			ToPlace:     req.ToPlace,
			TravelDate:  req.TravelDate,
			SeatOrRoom:  strings.TrimSpace(req.SeatOrRoom),
			ClassType:   strings.TrimSpace(req.ClassType),
		},
		PassengerCount: req.PassengerCount,
		TravelerNames:  req.TravelerNames,
		Price:          req.Price,
		PaymentMethod:  req.PaymentMethod,
		Status:         status,
		OfferID:        req.OfferID,
		SourceTag:      offer.SourceTag(strings.ToLower(strings.TrimSpace(req.SourceTag))),
	})
	if err != nil {
		return nil, err
	}

	stored, created, err := s.repo.SaveIfAbsent(ctx, bk)
	if err != nil {
		return nil, err
	}
	if !created {
		if !stored.IsOwnedBy(userID) {
			return nil, domain.NewConflictError(fmt.Sprintf("booking reference %s is already in use", bk.BookingRef()))
		}
		s.logger.Debug("duplicate booking reference ignored", zap.String("booking_ref", stored.BookingRef()))
		return &CreateBookingResult{Created: false, Booking: toBookingDTO(stored)}, nil
	}

	s.publishEvent(ctx, bookingDomain.EventBookingCreated, bk.ID().String(), bookingDomain.CreatedEvent{
		BookingID:   bk.ID(),
		BookingRef:  bk.BookingRef(),
		UserID:      bk.UserID(),
		ServiceType: bk.Itinerary().ServiceType,
		ItemName:    bk.Itinerary().ItemName,
		Price:       bk.Price(),
		Status:      bk.Status(),
		OccurredAt:  time.Now().UTC(),
	})

	s.logger.Info("booking created",
		zap.String("booking_ref", bk.BookingRef()),
		zap.String("service_type", string(bk.Itinerary().ServiceType)),
		zap.String("status", bk.Status().String()),
	)
	return &CreateBookingResult{Created: true, Booking: toBookingDTO(bk)}, nil
}

// UpdateStatus transitions a booking owned by userID. Confirming a booking made
// from a cached live flight offer places the upstream order first and adopts
// its confirmation number as the new reference.
func (s *BookingService) UpdateStatus(ctx context.Context, userID uuid.UUID, ref string, req UpdateStatusRequest) (*StatusUpdateResult, error) {
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.repo.FindByRef(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	switch target {
	case bookingDomain.StatusCancelled:
		quote, err := s.cancel(ctx, bk)
		if err != nil {
			return nil, err
		}
		return &StatusUpdateResult{BookingRef: bk.BookingRef(), Booking: toBookingDTO(bk), Refund: &quote}, nil
	case bookingDomain.StatusConfirmed:
		return s.confirm(ctx, bk, req)
	default:
		return nil, domain.NewInvalidStateError(bk.Status().String(), target.String())
	}
}

// ConfirmPayment confirms a pending booking after payment capture. A booking
// that is already confirmed is left alone.
func (s *BookingService) ConfirmPayment(ctx context.Context, userID uuid.UUID, ref string) (*BookingDTO, error) {
	bk, err := s.repo.FindByRef(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if bk.Status() == bookingDomain.StatusConfirmed {
		result := toBookingDTO(bk)
		return &result, nil
	}

	res, err := s.confirm(ctx, bk, UpdateStatusRequest{Status: bookingDomain.StatusConfirmed.String()})
	if err != nil {
		return nil, err
	}
	return &res.Booking, nil
}

func (s *BookingService) confirm(ctx context.Context, bk *bookingDomain.Booking, req UpdateStatusRequest) (*StatusUpdateResult, error) {
	if !bk.Status().CanTransitionTo(bookingDomain.StatusConfirmed) {
		return nil, domain.NewInvalidStateError(bk.Status().String(), bookingDomain.StatusConfirmed.String())
	}

	oldRef := bk.BookingRef()
	order, err := s.placeOrder(ctx, bk, req)
	if err != nil {
		return nil, err
	}

	newRef := bk.ConfirmationRef()
	if newRef == "" {
		newRef = strings.TrimSpace(req.ReplacementRef)
	}
	if newRef != "" && newRef != oldRef {
		if err := bk.ReassignRef(newRef, ""); err != nil {
			return nil, err
		}
	}

	if err := bk.Confirm(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.save(ctx, bk); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if bk.BookingRef() != oldRef {
		s.publishEvent(ctx, bookingDomain.EventBookingRefReassigned, bk.ID().String(), bookingDomain.RefReassignedEvent{
			BookingID:  bk.ID(),
			UserID:     bk.UserID(),
			OldRef:     oldRef,
			NewRef:     bk.BookingRef(),
			OccurredAt: now,
		})
	}
	s.publishEvent(ctx, bookingDomain.EventBookingConfirmed, bk.ID().String(), bookingDomain.ConfirmedEvent{
		BookingID:       bk.ID(),
		BookingRef:      bk.BookingRef(),
		UserID:          bk.UserID(),
		ExternalOrderID: bk.ExternalOrderID(),
		OccurredAt:      now,
	})

	s.logger.Info("booking confirmed",
		zap.String("booking_ref", bk.BookingRef()),
		zap.String("previous_ref", oldRef),
	)
	return &StatusUpdateResult{BookingRef: bk.BookingRef(), Booking: toBookingDTO(bk), Order: order}, nil
}

// placeOrder goes upstream only for flight bookings whose offer is still
// cached as a live offer and that hold no recorded order yet. A placed order
// is saved on the booking before the caller confirms it, so a retried
// confirmation reuses it. A nil result means nothing was placed.
func (s *BookingService) placeOrder(ctx context.Context, bk *bookingDomain.Booking, req UpdateStatusRequest) (*bridge.OrderResult, error) {
	if bk.HasExternalOrder() {
		s.logger.Info("upstream order already recorded",
			zap.String("booking_ref", bk.BookingRef()),
			zap.String("order_id", bk.ExternalOrderID()),
		)
		return nil, nil
	}
	if s.offers == nil || s.orders == nil || bk.Itinerary().ServiceType != bookingDomain.ServiceFlight {
		return nil, nil
	}
	offerID := strings.TrimSpace(req.OfferID)
	if offerID == "" {
		offerID = bk.OfferID()
	}
	if offerID == "" {
		return nil, nil
	}

	cached, err := s.offers.Get(ctx, bk.UserID(), offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached offer: %w", err)
	}
	if cached == nil || cached.SourceTag != offer.SourceLive || len(cached.RawPayload) == 0 {
		return nil, nil
	}

	travelers := req.Travelers
	if len(travelers) == 0 {
		for _, name := range bk.TravelerNames() {
			travelers = append(travelers, bookingDomain.Traveler{Name: name})
		}
	}

	result, err := s.orders.PlaceOrder(ctx, cached.RawPayload, travelers)
	if err != nil {
		s.logger.Warn("upstream order failed, booking left pending",
			zap.String("booking_ref", bk.BookingRef()),
			zap.String("offer_id", offerID),
			zap.Error(err),
		)
		return nil, err
	}

	orderID := result.OrderID
	if orderID == "" {
		orderID = result.ConfirmationID
	}
	if orderID == "" {
		return &result, nil
	}
	if err := bk.RecordOrder(orderID, result.ConfirmationID); err != nil {
		return nil, err
	}
	bk.IncrementVersion()
	if err := s.save(ctx, bk); err != nil {
		s.logger.Error("upstream order placed but not recorded",
			zap.String("booking_ref", bk.BookingRef()),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to record upstream order %s: %w", orderID, err)
	}
	return &result, nil
}

// save updates the booking, retrying failures that are not business rule
// violations.
func (s *BookingService) save(ctx context.Context, bk *bookingDomain.Booking) error {
	op := func() error {
		err := s.repo.Update(ctx, bk)
		var de *domain.DomainError
		if errors.As(err, &de) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("booking save failed, retrying",
			zap.String("booking_ref", bk.BookingRef()),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(s.saveBackOff(), ctx), notify)
}

// QuoteCancellation returns the refund split without changing the booking.
func (s *BookingService) QuoteCancellation(ctx context.Context, userID uuid.UUID, ref string) (*bookingDomain.RefundQuote, error) {
	bk, err := s.repo.FindByRef(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if !bk.Status().CanBeCancelled() {
		return nil, domain.NewInvalidStateError(bk.Status().String(), bookingDomain.StatusCancelled.String())
	}
	quote, err := s.policy.Quote(bk.Price())
	if err != nil {
		return nil, fmt.Errorf("failed to quote cancellation: %w", err)
	}
	return &quote, nil
}

// CancelBooking records the refund split and cancels the booking.
func (s *BookingService) CancelBooking(ctx context.Context, userID uuid.UUID, ref string) (*CancellationResult, error) {
	bk, err := s.repo.FindByRef(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	quote, err := s.cancel(ctx, bk)
	if err != nil {
		return nil, err
	}
	return &CancellationResult{
		Deduction: quote.Deduction,
		Refund:    quote.Refund,
		Booking:   toBookingDTO(bk),
	}, nil
}

func (s *BookingService) cancel(ctx context.Context, bk *bookingDomain.Booking) (bookingDomain.RefundQuote, error) {
	if !bk.Status().CanBeCancelled() {
		return bookingDomain.RefundQuote{}, domain.NewInvalidStateError(bk.Status().String(), bookingDomain.StatusCancelled.String())
	}
	quote, err := s.policy.Quote(bk.Price())
	if err != nil {
		return bookingDomain.RefundQuote{}, fmt.Errorf("failed to quote cancellation: %w", err)
	}
	if err := bk.Cancel(quote); err != nil {
		return bookingDomain.RefundQuote{}, err
	}

	bk.IncrementVersion()
	if err := s.save(ctx, bk); err != nil {
		return bookingDomain.RefundQuote{}, err
	}

	s.publishEvent(ctx, bookingDomain.EventBookingCancelled, bk.ID().String(), bookingDomain.CancelledEvent{
		BookingID:  bk.ID(),
		BookingRef: bk.BookingRef(),
		UserID:     bk.UserID(),
		Deduction:  quote.Deduction,
		Refund:     quote.Refund,
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info("booking cancelled",
		zap.String("booking_ref", bk.BookingRef()),
		zap.Int64("refund", quote.Refund),
	)
	return quote, nil
}

// GetBooking retrieves a single booking owned by userID.
func (s *BookingService) GetBooking(ctx context.Context, userID uuid.UUID, ref string) (*BookingDTO, error) {
	bk, err := s.repo.FindByRef(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// LoadBooking returns the aggregate itself, for renderers that need more than
// the DTO.
func (s *BookingService) LoadBooking(ctx context.Context, userID uuid.UUID, ref string) (*bookingDomain.Booking, error) {
	return s.repo.FindByRef(ctx, userID, ref)
}

// ListBookings retrieves a user's bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// BookingSummary returns what a user has spent and how often each service
// type was booked.
func (s *BookingService) BookingSummary(ctx context.Context, userID uuid.UUID) (*BookingSummaryDTO, error) {
	summary, err := s.repo.SummarizeByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	byType := summary.ByServiceType
	if byType == nil {
		byType = map[string]int64{}
	}
	return &BookingSummaryDTO{
		TotalSpent:    summary.TotalSpent,
		TotalBookings: summary.TotalBookings,
		ByServiceType: byType,
	}, nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	it := bk.Itinerary()
	return BookingDTO{
		ID:              bk.ID(),
		BookingRef:      bk.BookingRef(),
		UserID:          bk.UserID(),
		ServiceType:     string(it.ServiceType),
		ItemName:        it.ItemName,
		FromPlace:       it.FromPlace,
		ToPlace:         it.ToPlace,
		TravelDate:      it.TravelDate,
		SeatOrRoom:      it.SeatOrRoom,
		PassengerCount:  bk.PassengerCount(),
		TravelerNames:   bk.TravelerNames(),
		ClassType:       it.ClassType,
		Price:           bk.Price(),
		PaymentMethod:   bk.PaymentMethod(),
		Status:          bk.Status().String(),
		OfferID:         bk.OfferID(),
		SourceTag:       string(bk.SourceTag()),
		ExternalOrderID: bk.ExternalOrderID(),
		DeductionAmount: bk.DeductionAmount(),
		RefundAmount:    bk.RefundAmount(),
		BookedAt:        bk.BookedAt(),
		ConfirmedAt:     bk.ConfirmedAt(),
		CancelledAt:     bk.CancelledAt(),
		Version:         bk.Version(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if s.publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, bookingDomain.TopicBookingEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", bookingDomain.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
