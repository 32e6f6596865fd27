package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// TravelerName is a traveler's given and family name.
type TravelerName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Phone is a traveler contact number.
type Phone struct {
	DeviceType         string `json:"deviceType"`
	CountryCallingCode string `json:"countryCallingCode"`
	Number             string `json:"number"`
}

// Contact is a traveler's contact block.
type Contact struct {
	EmailAddress string  `json:"emailAddress,omitempty"`
	Phones       []Phone `json:"phones,omitempty"`
}

// Traveler is one passenger on a flight order.
type Traveler struct {
	ID          string       `json:"id"`
	DateOfBirth string       `json:"dateOfBirth"`
	Name        TravelerName `json:"name"`
	Gender      string       `json:"gender,omitempty"`
	Contact     *Contact     `json:"contact,omitempty"`
}

// AssociatedRecord is an airline record locator attached to an order.
type AssociatedRecord struct {
	Reference string `json:"reference"`
}

// FlightOrder is a created order.
type FlightOrder struct {
	ID                string             `json:"id"`
	AssociatedRecords []AssociatedRecord `json:"associatedRecords"`
}

// ConfirmationID returns the airline record locator, or the order id when
// none was returned.
func (o *FlightOrder) ConfirmationID() string {
	for _, r := range o.AssociatedRecords {
		if r.Reference != "" {
			return r.Reference
		}
	}
	return o.ID
}

// CreateFlightOrder books a previously searched offer for the travelers.
func (c *Client) CreateFlightOrder(ctx context.Context, flightOffer json.RawMessage, travelers []Traveler) (*FlightOrder, error) {
	if len(flightOffer) == 0 {
		return nil, errors.New("amadeus: flight offer payload is empty")
	}
	if len(travelers) == 0 {
		return nil, errors.New("amadeus: at least one traveler is required")
	}

	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": []json.RawMessage{flightOffer},
			"travelers":    travelers,
		},
	}
	var resp struct {
		Data FlightOrder `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/booking/flight-orders", body, &resp); err != nil {
		return nil, fmt.Errorf("flight order failed: %w", err)
	}
	if resp.Data.ConfirmationID() == "" {
		return nil, errors.New("amadeus: flight order response carried no confirmation")
	}
	return &resp.Data, nil
}
