package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/application"
	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/common/kafka"
	bookingDomain "github.com/asrs-travel/service-booking/internal/domain/booking"
)

// PaymentConfirmer confirms a pending booking once its payment is captured.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, userID uuid.UUID, ref string) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and confirms pending bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentConfirmer
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentConfirmer,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, bookingDomain.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case bookingDomain.EventPaymentCaptured:
		return c.handlePaymentCaptured(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCaptured(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt bookingDomain.PaymentCapturedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCapturedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment captured event",
		zap.String("booking_ref", evt.BookingRef),
		zap.String("user_id", evt.UserID.String()),
	)

	booking, err := c.service.ConfirmPayment(ctx, evt.UserID, evt.BookingRef)
	switch {
	case err == nil:
	case domain.IsKind(err, domain.KindNotFound),
		domain.IsKind(err, domain.KindInvalidState),
		domain.IsKind(err, domain.KindValidation):
		// Redelivery cannot fix these.
		c.logger.Warn("payment captured for a booking that cannot be confirmed",
			zap.String("booking_ref", evt.BookingRef),
			zap.Error(err),
		)
		return nil
	default:
		c.logger.Error("failed to confirm booking after payment capture",
			zap.String("booking_ref", evt.BookingRef),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking confirmed after payment capture",
		zap.String("booking_ref", booking.BookingRef),
	)
	return nil
}
