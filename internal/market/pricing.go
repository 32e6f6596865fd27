package market

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Flight pricing bounds.
const (
	FlightRateMin     = 4.5
	FlightRateMax     = 9.0
	FlightBaseFare    = 1000
	FlightKmPerHour   = 800
	FlightMinHours    = 1
	FlightExtraMinMin = 5
	FlightExtraMinMax = 55
)

// Train pricing bounds. Fares scale with the category speed relative to
// TrainSpeedBaseline.
const (
	TrainRateMin       = 0.8
	TrainRateMax       = 2.8
	TrainBaseFare      = 200
	TrainSpeedBaseline = 100
	TrainMinHours      = 1
)

// Bus pricing bounds.
const (
	BusRateMin   = 0.6
	BusRateMax   = 1.2
	BusBaseFare  = 120
	BusMinHours  = 6
	BusKmPerHour = 50
)

// Hotel pricing bounds for the generic bucket.
const (
	HotelSyntheticBase     = 6000
	HotelSyntheticVariance = 3500
	HotelRatingMin         = 4.1
	HotelRatingMax         = 5.0
	HotelAmenityCount      = 3
)

// CatalogPriceJitter is the relative perturbation applied to curated prices.
const CatalogPriceJitter = 0.10

// quarterMinutes are the minute marks schedules are published on.
var quarterMinutes = [...]int{0, 15, 30, 45}

// Rand is the random source the synthesizer draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// DefaultRand returns the process-wide random source.
func DefaultRand() Rand {
	return globalRand{}
}

// Quote is a synthesized fare with its travel time.
type Quote struct {
	Price           int64
	DurationMinutes int
}

// Synthesizer produces plausible prices and durations from distance.
type Synthesizer struct {
	rnd Rand
}

// NewSynthesizer creates a synthesizer. A nil source falls back to DefaultRand.
func NewSynthesizer(rnd Rand) *Synthesizer {
	if rnd == nil {
		rnd = DefaultRand()
	}
	return &Synthesizer{rnd: rnd}
}

// Flight prices a flight over distanceKm.
func (s *Synthesizer) Flight(distanceKm int) Quote {
	d := float64(distanceKm)
	price := math.Floor(d*s.uniform(FlightRateMin, FlightRateMax) + FlightBaseFare)
	hours := max(FlightMinHours, distanceKm/FlightKmPerHour)
	return Quote{
		Price:           int64(price),
		DurationMinutes: hours*60 + s.intBetween(FlightExtraMinMin, FlightExtraMinMax),
	}
}

// Train prices a train of the given category speed over distanceKm.
func (s *Synthesizer) Train(distanceKm, speedKmph int) Quote {
	if speedKmph <= 0 {
		speedKmph = TrainSpeedBaseline
	}
	d := float64(distanceKm)
	speedFactor := float64(speedKmph) / TrainSpeedBaseline
	price := math.Floor(d*s.uniform(TrainRateMin, TrainRateMax)*speedFactor + TrainBaseFare)
	hours := max(TrainMinHours, int(math.Round(d/float64(speedKmph))))
	return Quote{
		Price:           int64(price),
		DurationMinutes: hours*60 + s.QuarterMinute(),
	}
}

// Bus prices a bus over distanceKm.
func (s *Synthesizer) Bus(distanceKm int) Quote {
	d := float64(distanceKm)
	price := math.Floor(d*s.uniform(BusRateMin, BusRateMax) + BusBaseFare)
	hours := max(BusMinHours, distanceKm/BusKmPerHour)
	return Quote{
		Price:           int64(price),
		DurationMinutes: hours * 60,
	}
}

// Hotel draws a nightly rate uniformly from [base-variance, base+variance].
func (s *Synthesizer) Hotel(base, variance int64) int64 {
	if variance <= 0 {
		return base
	}
	return base - variance + int64(s.rnd.IntN(int(2*variance+1)))
}

// Rating draws a hotel rating with one decimal.
func (s *Synthesizer) Rating() float64 {
	return math.Round(s.uniform(HotelRatingMin, HotelRatingMax)*10) / 10
}

// Jitter perturbs a curated price by at most CatalogPriceJitter either way.
func (s *Synthesizer) Jitter(price int64) int64 {
	factor := s.uniform(1-CatalogPriceJitter, 1+CatalogPriceJitter)
	return int64(math.Round(float64(price) * factor))
}

// QuarterMinute draws one of the quarter-hour minute marks.
func (s *Synthesizer) QuarterMinute() int {
	return quarterMinutes[s.rnd.IntN(len(quarterMinutes))]
}

// DepartureMinute draws a departure time as minutes after midnight on a
// quarter-hour mark.
func (s *Synthesizer) DepartureMinute() int {
	return s.rnd.IntN(24)*60 + s.QuarterMinute()
}

func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + s.rnd.Float64()*(hi-lo)
}

func (s *Synthesizer) intBetween(lo, hi int) int {
	return lo + s.rnd.IntN(hi-lo+1)
}

func (s *Synthesizer) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[s.rnd.IntN(len(pool))]
}

// sample draws n distinct elements of pool in random order.
func (s *Synthesizer) sample(pool []string, n int) []string {
	n = min(n, len(pool))
	work := append([]string(nil), pool...)
	for i := 0; i < n; i++ {
		j := i + s.rnd.IntN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:n]
}

// Shuffle permutes n elements in place through swap.
func (s *Synthesizer) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, s.rnd.IntN(i+1))
	}
}

// ClockTime renders minutes after midnight as HH:MM, wrapping past midnight.
func ClockTime(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ArrivalMinute adds duration to departure and rounds to the nearest quarter hour.
func ArrivalMinute(departure, durationMinutes int) int {
	return int(math.Round(float64(departure+durationMinutes)/15)) * 15
}
