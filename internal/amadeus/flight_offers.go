package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SearchParams selects one-way flight offers.
type SearchParams struct {
	Origin        string
	Destination   string
	DepartureDate string // YYYY-MM-DD
	Adults        int
	Max           int
}

// FlightOffer is the part of a flight offer the service reads, plus the raw
// document needed to price and order it later.
type FlightOffer struct {
	ID              string
	CarrierCode     string
	FlightNumber    string
	DepartureAt     string
	ArrivalAt       string
	DurationMinutes int
	Stops           int
	GrandTotal      float64
	Currency        string
	Cabin           string
	Raw             json.RawMessage
}

type segment struct {
	Departure struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

type flightOfferDoc struct {
	ID    string `json:"id"`
	Price struct {
		GrandTotal string `json:"grandTotal"`
		Currency   string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Duration string    `json:"duration"`
		Segments []segment `json:"segments"`
	} `json:"itineraries"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	TravelerPricings       []struct {
		FareDetailsBySegment []struct {
			Cabin string `json:"cabin"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
}

// SearchFlightOffers queries the flight offers search API. Offers that cannot
// be priced are skipped.
func (c *Client) SearchFlightOffers(ctx context.Context, p SearchParams) ([]FlightOffer, error) {
	q := url.Values{}
	q.Set("originLocationCode", p.Origin)
	q.Set("destinationLocationCode", p.Destination)
	q.Set("departureDate", p.DepartureDate)
	q.Set("adults", strconv.Itoa(max(p.Adults, 1)))
	q.Set("currencyCode", c.cfg.Currency)
	q.Set("nonStop", "false")
	if p.Max > 0 {
		q.Set("max", strconv.Itoa(p.Max))
	}

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/shopping/flight-offers?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("flight offer search failed: %w", err)
	}

	offers := make([]FlightOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		o, ok := parseFlightOffer(raw)
		if !ok {
			continue
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func parseFlightOffer(raw json.RawMessage) (FlightOffer, bool) {
	var doc flightOfferDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FlightOffer{}, false
	}
	if len(doc.Itineraries) == 0 || len(doc.Itineraries[0].Segments) == 0 {
		return FlightOffer{}, false
	}
	total, err := strconv.ParseFloat(doc.Price.GrandTotal, 64)
	if err != nil || total <= 0 {
		return FlightOffer{}, false
	}

	outbound := doc.Itineraries[0]
	first := outbound.Segments[0]
	last := outbound.Segments[len(outbound.Segments)-1]

	carrier := first.CarrierCode
	if carrier == "" && len(doc.ValidatingAirlineCodes) > 0 {
		carrier = doc.ValidatingAirlineCodes[0]
	}
	minutes, err := ParseISODuration(outbound.Duration)
	if err != nil {
		return FlightOffer{}, false
	}

	o := FlightOffer{
		ID:              doc.ID,
		CarrierCode:     carrier,
		FlightNumber:    carrier + first.Number,
		DepartureAt:     first.Departure.At,
		ArrivalAt:       last.Arrival.At,
		DurationMinutes: minutes,
		Stops:           len(outbound.Segments) - 1,
		GrandTotal:      total,
		Currency:        doc.Price.Currency,
		Raw:             raw,
	}
	if len(doc.TravelerPricings) > 0 && len(doc.TravelerPricings[0].FareDetailsBySegment) > 0 {
		o.Cabin = doc.TravelerPricings[0].FareDetailsBySegment[0].Cabin
	}
	return o, true
}

// ParseISODuration converts an ISO 8601 duration such as "PT2H10M" or
// "P1DT3H" to minutes.
func ParseISODuration(s string) (int, error) {
	rest, ok := strings.CutPrefix(strings.ToUpper(s), "P")
	if !ok || rest == "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	minutes := 0
	inTime := false
	num := ""
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			if num == "" {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			n, _ := strconv.Atoi(num)
			num = ""
			switch {
			case r == 'D' && !inTime:
				minutes += n * 24 * 60
			case r == 'H' && inTime:
				minutes += n * 60
			case r == 'M' && inTime:
				minutes += n
			case r == 'S' && inTime:
			default:
				return 0, fmt.Errorf("invalid duration %q", s)
			}
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return minutes, nil
}
