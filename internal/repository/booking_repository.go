package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	bookingDomain "github.com/asrs-travel/service-booking/internal/domain/booking"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingRef      string     `gorm:"uniqueIndex;not null;size:64"`
	UserID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	ServiceType     string     `gorm:"not null;size:10;index"`
	ItemName        string     `gorm:"not null;size:200"`
	FromPlace       string     `gorm:"size:120"`
	ToPlace         string     `gorm:"not null;size:120"`
	TravelDate      string     `gorm:"not null;size:20"`
	SeatOrRoom      string     `gorm:"size:50"`
	PassengerCount  int        `gorm:"not null;default:1"`
	TravelerNames   string     `gorm:"size:1000"`
	ClassType       string     `gorm:"size:60"`
	Price           int64      `gorm:"not null"`
	PaymentMethod   string     `gorm:"not null;size:30;default:'UPI'"`
	Status          string     `gorm:"not null;size:30;index"`
	OfferID         string     `gorm:"size:64"`
	SourceTag       string     `gorm:"not null;size:12;default:'synthetic'"`
	ExternalOrderID string     `gorm:"size:128"`
	ConfirmationRef string     `gorm:"size:64"`
	DeductionAmount *int64     `gorm:""`
	RefundAmount    *int64     `gorm:""`
	BookedAt        time.Time  `gorm:"not null;index"`
	ConfirmedAt     *time.Time `gorm:""`
	CancelledAt     *time.Time `gorm:""`
	Version         int64      `gorm:"not null;default:1"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByRef retrieves a booking by reference for its owner.
func (r *GormBookingRepository) FindByRef(ctx context.Context, userID uuid.UUID, ref string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).
		Where("booking_ref = ? AND user_id = ?", ref, userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", ref)
		}
		return nil, fmt.Errorf("failed to find booking by ref: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves a user's bookings, newest first, with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("booked_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// SummarizeByUserID returns spend and per-service counts for a user.
func (r *GormBookingRepository) SummarizeByUserID(ctx context.Context, userID uuid.UUID) (*bookingDomain.SpendSummary, error) {
	type serviceRow struct {
		ServiceType string
		Count       int64
		Spent       int64
	}
	var rows []serviceRow
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("service_type, count(*) AS count, coalesce(sum(price) FILTER (WHERE status <> ?), 0) AS spent",
			string(bookingDomain.StatusCancelled)).
		Where("user_id = ?", userID).
		Group("service_type").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize bookings: %w", err)
	}

	summary := &bookingDomain.SpendSummary{ByServiceType: make(map[string]int64, len(rows))}
	for _, row := range rows {
		summary.ByServiceType[row.ServiceType] = row.Count
		summary.TotalBookings += row.Count
		summary.TotalSpent += row.Spent
	}
	return summary, nil
}

// SaveIfAbsent inserts the booking unless its reference is taken, in which
// case the stored row is returned untouched.
func (r *GormBookingRepository) SaveIfAbsent(ctx context.Context, bk *bookingDomain.Booking) (*bookingDomain.Booking, bool, error) {
	model := toBookingModel(bk)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_ref"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to save booking: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return bk, true, nil
	}

	var existing BookingModel
	if err := r.db.WithContext(ctx).Where("booking_ref = ?", bk.BookingRef()).First(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("failed to load existing booking: %w", err)
	}
	stored, err := toDomainBooking(&existing)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion has already been called on the aggregate.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"booking_ref":       model.BookingRef,
			"status":            model.Status,
			"traveler_names":    model.TravelerNames,
			"external_order_id": model.ExternalOrderID,
			"confirmation_ref":  model.ConfirmationRef,
			"deduction_amount":  model.DeductionAmount,
			"refund_amount":     model.RefundAmount,
			"confirmed_at":      model.ConfirmedAt,
			"cancelled_at":      model.CancelledAt,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking reference is already in use")
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("booked_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	it := bk.Itinerary()
	return &BookingModel{
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
		TravelerNames:   bookingDomain.JoinTravelerNames(bk.TravelerNames()),
		ClassType:       it.ClassType,
		Price:           bk.Price(),
		PaymentMethod:   bk.PaymentMethod(),
		Status:          string(bk.Status()),
		OfferID:         bk.OfferID(),
		SourceTag:       string(bk.SourceTag()),
		ExternalOrderID: bk.ExternalOrderID(),
		ConfirmationRef: bk.ConfirmationRef(),
		DeductionAmount: bk.DeductionAmount(),
		RefundAmount:    bk.RefundAmount(),
		BookedAt:        bk.BookedAt(),
		ConfirmedAt:     bk.ConfirmedAt(),
		CancelledAt:     bk.CancelledAt(),
		Version:         bk.Version(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	serviceType, ok := bookingDomain.ParseServiceType(m.ServiceType)
	if !ok {
		return nil, fmt.Errorf("booking %s has unknown service type %q", m.BookingRef, m.ServiceType)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingRef,
		m.UserID,
		bookingDomain.Itinerary{
			ServiceType: serviceType,
			ItemName:    m.ItemName,
			FromPlace:   m.FromPlace,
			ToPlace:     m.ToPlace,
			TravelDate:  m.TravelDate,
			SeatOrRoom:  m.SeatOrRoom,
			ClassType:   m.ClassType,
		},
		m.PassengerCount,
		bookingDomain.SplitTravelerNames(m.TravelerNames),
		m.Price,
		m.PaymentMethod,
		status,
		m.OfferID,
		offer.SourceTag(m.SourceTag),
		m.ExternalOrderID,
		m.ConfirmationRef,
		m.DeductionAmount,
		m.RefundAmount,
		m.BookedAt,
		m.ConfirmedAt,
		m.CancelledAt,
		m.Version,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
