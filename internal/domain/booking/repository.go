package booking

import (
	"context"

	"github.com/google/uuid"
)

// SpendSummary aggregates a user's bookings.
type SpendSummary struct {
	TotalSpent    int64
	TotalBookings int64
	ByServiceType map[string]int64
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByRef retrieves a booking by reference, scoped to its owner. A
	// booking owned by someone else is reported as not found.
	FindByRef(ctx context.Context, userID uuid.UUID, ref string) (*Booking, error)

	// FindByUserID retrieves a user's bookings, newest first, with pagination.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// SummarizeByUserID returns spend and per-service counts for a user.
	SummarizeByUserID(ctx context.Context, userID uuid.UUID) (*SpendSummary, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// SaveIfAbsent inserts a new booking unless its reference already exists.
	// It returns the stored row and whether this call created it.
	SaveIfAbsent(ctx context.Context, booking *Booking) (*Booking, bool, error)

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
