package booking

import (
	"strings"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// ServiceType is the kind of travel product booked.
type ServiceType string

const (
	ServiceFlight ServiceType = ServiceType(offer.ModeFlight)
	ServiceTrain  ServiceType = ServiceType(offer.ModeTrain)
	ServiceBus    ServiceType = ServiceType(offer.ModeBus)
	ServiceHotel  ServiceType = ServiceType(offer.ModeHotel)
)

// ParseServiceType accepts a service type in any case.
func ParseServiceType(s string) (ServiceType, bool) {
	mode, err := offer.ParseMode(s)
	if err != nil {
		return "", false
	}
	return ServiceType(mode), true
}

// IsStay reports whether the booking is accommodation rather than transport.
func (t ServiceType) IsStay() bool {
	return t == ServiceHotel
}

// Itinerary is an immutable value object describing what was booked.
type Itinerary struct {
	ServiceType ServiceType `json:"service_type"`
	ItemName    string      `json:"item_name"`
	FromPlace   string      `json:"from_place"`
	ToPlace     string      `json:"to_place"`
	TravelDate  string      `json:"travel_date"`
	SeatOrRoom  string      `json:"seat_or_room"`
	ClassType   string      `json:"class_type"`
}

// Traveler is one passenger or guest as supplied at confirmation time.
type Traveler struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
}

// JoinTravelerNames renders names the way they are stored.
func JoinTravelerNames(names []string) string {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return strings.Join(cleaned, ", ")
}

// SplitTravelerNames is the inverse of JoinTravelerNames.
func SplitTravelerNames(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
