//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	bookingDomain "github.com/asrs-travel/service-booking/internal/domain/booking"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/refdata"
	"github.com/asrs-travel/service-booking/internal/repository"
)

// TestPaymentCaptured_ConfirmsBooking verifies that a payment.captured event on
// payment.events confirms a pending booking and emits booking.confirmed.
func TestPaymentCaptured_ConfirmsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := uuid.New()
	created, err := stack.Service.CreateBooking(ctx, userID, pendingTrainBooking("ASRS-INT-1"))
	require.NoError(t, err)
	require.True(t, created.Created)
	assert.Equal(t, bookingDomain.StatusPaymentPending.String(), created.Booking.Status)

	// Start the consumer.
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, infra.KafkaBrokers, bookingDomain.TopicPaymentEvents, "ASRS-INT-1",
		"service-payment", bookingDomain.EventPaymentCaptured, bookingDomain.PaymentCapturedEvent{
			BookingRef: "ASRS-INT-1",
			UserID:     userID,
		})

	model := waitForBookingStatus(t, infra.DB, "ASRS-INT-1", "confirmed", 15*time.Second)
	assert.NotNil(t, model.ConfirmedAt)
	assert.Equal(t, int64(2), model.Version)

	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingDomain.TopicBookingEvents,
		bookingDomain.EventBookingConfirmed, 15*time.Second)

	var confirmed bookingDomain.ConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, "ASRS-INT-1", confirmed.BookingRef)
	assert.Equal(t, userID, confirmed.UserID)
}

// TestBookingRepository_Lifecycle exercises creation, retry, cancellation and
// the spend summary against PostgreSQL.
func TestBookingRepository_Lifecycle(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	ctx := context.Background()
	userID := uuid.New()

	req := pendingTrainBooking("ASRS-INT-2")
	req.Status = ""
	first, err := stack.Service.CreateBooking(ctx, userID, req)
	require.NoError(t, err)
	assert.True(t, first.Created)

	retry, err := stack.Service.CreateBooking(ctx, userID, req)
	require.NoError(t, err)
	assert.False(t, retry.Created)
	assert.Equal(t, first.Booking.ID, retry.Booking.ID)

	_, err = stack.Service.CreateBooking(ctx, uuid.New(), req)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	cancelled, err := stack.Service.CancelBooking(ctx, userID, "ASRS-INT-2")
	require.NoError(t, err)
	assert.Equal(t, int64(368), cancelled.Deduction)
	assert.Equal(t, int64(1472), cancelled.Refund)

	model := waitForBookingStatus(t, infra.DB, "ASRS-INT-2", "cancelled", time.Second)
	require.NotNil(t, model.RefundAmount)
	assert.Equal(t, int64(1472), *model.RefundAmount)

	summary, err := stack.Service.BookingSummary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalBookings)
	assert.Equal(t, int64(0), summary.TotalSpent)
}

// TestCatalog_SeededAndQueryable checks the seeded places, aliases and
// curated routes, and that seeding twice is harmless.
func TestCatalog_SeededAndQueryable(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	ctx := context.Background()
	places := repository.NewGormPlaceRepository(infra.DB)

	p, err := places.FindByKey(ctx, "bangalore")
	require.NoError(t, err)
	assert.Equal(t, "Bengaluru", p.CanonicalName)
	assert.Equal(t, "BLR", p.ShortCode)

	_, err = places.FindByKey(ctx, "atlantis")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	suggestions, err := places.SearchByPrefix(ctx, "ben", 10)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "bengaluru", suggestions[0].Key)

	routes, err := repository.NewGormCatalogRepository(infra.DB).FindRoutes(ctx, offer.ModeFlight, "DEL", "DXB")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "04:15", routes[0].Departure)

	hotels, err := repository.NewGormCatalogRepository(infra.DB).FindHotelsByCity(ctx, "delhi")
	require.NoError(t, err)
	require.NotEmpty(t, hotels)
	for i := 1; i < len(hotels); i++ {
		assert.GreaterOrEqual(t, hotels[i-1].Rating, hotels[i].Rating)
	}
	assert.NotEmpty(t, hotels[0].Amenities)

	data, err := refdata.Load()
	require.NoError(t, err)
	again, err := repository.NewSeeder(infra.DB, zap.NewNop()).Seed(ctx, data)
	require.NoError(t, err)

	var placeCount int64
	require.NoError(t, infra.DB.Model(&repository.PlaceModel{}).Count(&placeCount).Error)
	assert.Equal(t, int64(again.Places), placeCount)
}
