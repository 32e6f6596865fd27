// Package bridge places confirmed bookings of live flight offers with the
// upstream airline booking API.
package bridge

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/amadeus"
	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/domain/booking"
)

// Traveler defaults used when the booking form leaves a field out.
const (
	DefaultTravelerAge = 30
	DefaultCountryCode = "91"
)

// OrderAPI creates flight orders upstream.
type OrderAPI interface {
	CreateFlightOrder(ctx context.Context, flightOffer json.RawMessage, travelers []amadeus.Traveler) (*amadeus.FlightOrder, error)
}

// OrderResult is the outcome of placing an order.
type OrderResult struct {
	Success        bool   `json:"success"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
	OrderID        string `json:"order_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Bridge maps bookings onto upstream flight orders.
type Bridge struct {
	api    OrderAPI
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Bridge.
func New(api OrderAPI, logger *zap.Logger) *Bridge {
	return &Bridge{api: api, logger: logger, now: time.Now}
}

// PlaceOrder submits the raw offer for the travelers. Every failure comes
// back as an unsuccessful OrderResult together with an external failure error.
func (b *Bridge) PlaceOrder(ctx context.Context, rawOffer json.RawMessage, travelers []booking.Traveler) (OrderResult, error) {
	if len(travelers) == 0 {
		return b.fail("at least one traveler is required")
	}

	mapped := make([]amadeus.Traveler, 0, len(travelers))
	for i, t := range travelers {
		mapped = append(mapped, b.mapTraveler(i+1, t))
	}

	order, err := b.api.CreateFlightOrder(ctx, rawOffer, mapped)
	if err != nil {
		b.logger.Warn("flight order rejected", zap.Error(err))
		return b.fail(err.Error())
	}

	b.logger.Info("flight order placed",
		zap.String("order_id", order.ID),
		zap.String("confirmation_id", order.ConfirmationID()),
	)
	return OrderResult{
		Success:        true,
		ConfirmationID: order.ConfirmationID(),
		OrderID:        order.ID,
	}, nil
}

func (b *Bridge) fail(msg string) (OrderResult, error) {
	return OrderResult{Success: false, Error: msg},
		domain.NewExternalFailureError("flight order could not be placed: " + msg)
}

func (b *Bridge) mapTraveler(n int, t booking.Traveler) amadeus.Traveler {
	first, last := SplitName(t.Name)
	out := amadeus.Traveler{
		ID:          strconv.Itoa(n),
		DateOfBirth: b.dateOfBirth(t.Age),
		Name:        amadeus.TravelerName{FirstName: first, LastName: last},
		Gender:      gender(t.Gender),
	}

	email := strings.ToLower(strings.TrimSpace(t.Email))
	code, number := SplitPhone(t.Phone)
	if email != "" || number != "" {
		out.Contact = &amadeus.Contact{EmailAddress: email}
		if number != "" {
			out.Contact.Phones = []amadeus.Phone{{
				DeviceType:         "MOBILE",
				CountryCallingCode: code,
				Number:             number,
			}}
		}
	}
	return out
}

// dateOfBirth infers a birth date from an age in whole years.
func (b *Bridge) dateOfBirth(age int) string {
	if age <= 0 {
		age = DefaultTravelerAge
	}
	return b.now().AddDate(-age, 0, 0).Format(time.DateOnly)
}

// SplitName returns upper-cased first and last names. A single word is used
// for both.
func SplitName(full string) (string, string) {
	parts := strings.Fields(strings.ToUpper(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// SplitPhone strips everything but digits and separates a leading country
// code from a ten-digit national number.
func SplitPhone(phone string) (string, string) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "", ""
	}
	if len(digits) > 10 {
		return digits[:len(digits)-10], digits[len(digits)-10:]
	}
	return DefaultCountryCode, digits
}

func gender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "m", "male":
		return "MALE"
	case "f", "female":
		return "FEMALE"
	}
	return ""
}
