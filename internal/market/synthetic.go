package market

import (
	"context"
	"fmt"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/refdata"
)

// idSet hands out identifiers that are unique within one result.
type idSet map[string]struct{}

func (s idSet) draw(gen func() string) string {
	for {
		id := gen()
		if _, taken := s[id]; !taken {
			s[id] = struct{}{}
			return id
		}
	}
}

// schedule draws a quarter-hour departure and derives the arrival.
func schedule(synth *Synthesizer, durationMinutes int) (string, string) {
	dep := synth.DepartureMinute()
	return ClockTime(dep), ClockTime(ArrivalMinute(dep, durationMinutes))
}

func gateTag(synth *Synthesizer) string {
	return fmt.Sprintf("Gate %c%d", 'A'+rune(synth.rnd.IntN(4)), synth.intBetween(1, 25))
}

func platformTag(synth *Synthesizer, category string) string {
	return fmt.Sprintf("PF %d · %s", synth.intBetween(1, 15), category)
}

func bayTag(synth *Synthesizer) string {
	return fmt.Sprintf("Bay %d", synth.intBetween(1, 20))
}

// SyntheticFlights fabricates flights from the airline pool. It never fails.
type SyntheticFlights struct {
	data  *refdata.Data
	synth *Synthesizer
}

// NewSyntheticFlights creates the last-resort flight source.
func NewSyntheticFlights(data *refdata.Data, synth *Synthesizer) *SyntheticFlights {
	return &SyntheticFlights{data: data, synth: synth}
}

func (s *SyntheticFlights) Name() string          { return "synthetic-flight" }
func (s *SyntheticFlights) Tier() offer.SourceTag { return offer.SourceSynthetic }

func (s *SyntheticFlights) Fetch(_ context.Context, c offer.Criteria) ([]offer.Offer, error) {
	ids := idSet{}
	offers := make([]offer.Offer, 0, FlightResultCap)
	for range FlightResultCap {
		q := s.synth.Flight(c.DistanceKm)
		dep, arr := schedule(s.synth, q.DurationMinutes)
		offers = append(offers, offer.Offer{
			ID: ids.draw(func() string {
				return fmt.Sprintf("FL-%d", s.synth.intBetween(100, 999))
			}),
			Mode:            offer.ModeFlight,
			DisplayName:     s.synth.pick(s.data.Airlines),
			DepartureTime:   dep,
			ArrivalTime:     arr,
			DurationMinutes: q.DurationMinutes,
			Price:           q.Price,
			Class:           s.synth.pick(s.data.Classes.Flight),
			Tag:             gateTag(s.synth),
			SourceTag:       offer.SourceSynthetic,
		})
	}
	return offers, nil
}

// SyntheticTrains fabricates trains from the train categories.
type SyntheticTrains struct {
	data  *refdata.Data
	synth *Synthesizer
}

// NewSyntheticTrains creates the last-resort train source.
func NewSyntheticTrains(data *refdata.Data, synth *Synthesizer) *SyntheticTrains {
	return &SyntheticTrains{data: data, synth: synth}
}

func (s *SyntheticTrains) Name() string          { return "synthetic-train" }
func (s *SyntheticTrains) Tier() offer.SourceTag { return offer.SourceSynthetic }

func (s *SyntheticTrains) Fetch(_ context.Context, c offer.Criteria) ([]offer.Offer, error) {
	ids := idSet{}
	offers := make([]offer.Offer, 0, TrainResultCap)
	for range TrainResultCap {
		train := s.data.TrainCategories[s.synth.rnd.IntN(len(s.data.TrainCategories))]
		q := s.synth.Train(c.DistanceKm, train.SpeedKmph)
		dep, arr := schedule(s.synth, q.DurationMinutes)
		offers = append(offers, offer.Offer{
			ID: ids.draw(func() string {
				return fmt.Sprintf("TRN-%d", s.synth.intBetween(10000, 99999))
			}),
			Mode:            offer.ModeTrain,
			DisplayName:     train.Name,
			DepartureTime:   dep,
			ArrivalTime:     arr,
			DurationMinutes: q.DurationMinutes,
			Price:           q.Price,
			Class:           s.synth.pick(s.data.Classes.Train),
			Tag:             platformTag(s.synth, train.Category),
			SourceTag:       offer.SourceSynthetic,
		})
	}
	return offers, nil
}

// SyntheticBuses fabricates buses from the operator pool.
type SyntheticBuses struct {
	data  *refdata.Data
	synth *Synthesizer
}

// NewSyntheticBuses creates the last-resort bus source.
func NewSyntheticBuses(data *refdata.Data, synth *Synthesizer) *SyntheticBuses {
	return &SyntheticBuses{data: data, synth: synth}
}

func (s *SyntheticBuses) Name() string          { return "synthetic-bus" }
func (s *SyntheticBuses) Tier() offer.SourceTag { return offer.SourceSynthetic }

func (s *SyntheticBuses) Fetch(_ context.Context, c offer.Criteria) ([]offer.Offer, error) {
	ids := idSet{}
	offers := make([]offer.Offer, 0, BusResultCap)
	for range BusResultCap {
		q := s.synth.Bus(c.DistanceKm)
		dep, arr := schedule(s.synth, q.DurationMinutes)
		offers = append(offers, offer.Offer{
			ID: ids.draw(func() string {
				return fmt.Sprintf("BUS-%d", s.synth.intBetween(100, 999))
			}),
			Mode:            offer.ModeBus,
			DisplayName:     s.synth.pick(s.data.BusOperators),
			DepartureTime:   dep,
			ArrivalTime:     arr,
			DurationMinutes: q.DurationMinutes,
			Price:           q.Price,
			Class:           s.synth.pick(s.data.Classes.Bus),
			Tag:             bayTag(s.synth),
			SourceTag:       offer.SourceSynthetic,
		})
	}
	return offers, nil
}

// SyntheticHotels fills the generic hotel bucket from the brand pool.
type SyntheticHotels struct {
	data  *refdata.Data
	synth *Synthesizer
}

// NewSyntheticHotels creates the last-resort hotel source.
func NewSyntheticHotels(data *refdata.Data, synth *Synthesizer) *SyntheticHotels {
	return &SyntheticHotels{data: data, synth: synth}
}

func (s *SyntheticHotels) Name() string          { return "synthetic-hotel" }
func (s *SyntheticHotels) Tier() offer.SourceTag { return offer.SourceSynthetic }

func (s *SyntheticHotels) Fetch(_ context.Context, _ offer.Criteria) ([]offer.Offer, error) {
	offers := make([]offer.Offer, 0, HotelResultCap)
	for i := range HotelResultCap {
		offers = append(offers, offer.Offer{
			ID:          hotelID(i),
			Mode:        offer.ModeHotel,
			DisplayName: s.synth.pick(s.data.HotelBrands),
			Price:       s.synth.Hotel(HotelSyntheticBase, HotelSyntheticVariance),
			Class:       s.synth.pick(s.data.HotelRoomTypes),
			SourceTag:   offer.SourceSynthetic,
			Rating:      s.synth.Rating(),
			Amenities:   s.synth.sample(s.data.HotelAmenities, HotelAmenityCount),
			ImageURL:    s.synth.pick(s.data.HotelImages),
		})
	}
	return offers, nil
}

func hotelID(i int) string {
	return fmt.Sprintf("HTL-%02d", i+1)
}
