package application

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/asrs-travel/service-booking/internal/bridge"
	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/common/kafka"
	bookingDomain "github.com/asrs-travel/service-booking/internal/domain/booking"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/domain/place"
	"github.com/asrs-travel/service-booking/internal/market"
)

// memoryBookings is an in-memory BookingRepository keyed by booking id. It
// stores and hands out copies so callers only change state through Update.
type memoryBookings struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]*bookingDomain.Booking
	updates    int
	updateErrs []error
}

func newMemoryBookings() *memoryBookings {
	return &memoryBookings{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

// failUpdates queues errors returned by the next Update calls in order. A nil
// entry lets that call through.
func (m *memoryBookings) failUpdates(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErrs = append(m.updateErrs, errs...)
}

func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		bk.ID(),
		bk.BookingRef(),
		bk.UserID(),
		bk.Itinerary(),
		bk.PassengerCount(),
		append([]string(nil), bk.TravelerNames()...),
		bk.Price(),
		bk.PaymentMethod(),
		bk.Status(),
		bk.OfferID(),
		bk.SourceTag(),
		bk.ExternalOrderID(),
		bk.ConfirmationRef(),
		bk.DeductionAmount(),
		bk.RefundAmount(),
		bk.BookedAt(),
		bk.ConfirmedAt(),
		bk.CancelledAt(),
		bk.Version(),
		bk.UpdatedAt(),
	)
}

// heldBy returns the stored booking holding ref, other than the one with id.
func (m *memoryBookings) heldBy(ref string, id uuid.UUID) *bookingDomain.Booking {
	for _, bk := range m.bookings {
		if bk.BookingRef() == ref && bk.ID() != id {
			return bk
		}
	}
	return nil
}

func (m *memoryBookings) FindByRef(_ context.Context, userID uuid.UUID, ref string) (*bookingDomain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bk := m.heldBy(ref, uuid.Nil)
	if bk == nil || !bk.IsOwnedBy(userID) {
		return nil, domain.NewNotFoundError("Booking", ref)
	}
	return cloneBooking(bk), nil
}

func (m *memoryBookings) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range m.bookings {
		if bk.IsOwnedBy(userID) {
			out = append(out, cloneBooking(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt().After(out[j].BookedAt()) })
	return out, int64(len(out)), nil
}

func (m *memoryBookings) SummarizeByUserID(_ context.Context, userID uuid.UUID) (*bookingDomain.SpendSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := &bookingDomain.SpendSummary{ByServiceType: map[string]int64{}}
	for _, bk := range m.bookings {
		if !bk.IsOwnedBy(userID) {
			continue
		}
		summary.TotalBookings++
		summary.ByServiceType[string(bk.Itinerary().ServiceType)]++
		if bk.Status().CountsAsSpend() {
			summary.TotalSpent += bk.Price()
		}
	}
	return summary, nil
}

func (m *memoryBookings) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*bookingDomain.Booking, 0, len(m.bookings))
	for _, bk := range m.bookings {
		out = append(out, cloneBooking(bk))
	}
	return out, int64(len(out)), nil
}

func (m *memoryBookings) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, bk := range m.bookings {
		counts[bk.Status().String()]++
	}
	return counts, nil
}

func (m *memoryBookings) SaveIfAbsent(_ context.Context, bk *bookingDomain.Booking) (*bookingDomain.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.heldBy(bk.BookingRef(), uuid.Nil); existing != nil {
		return cloneBooking(existing), false, nil
	}
	m.bookings[bk.ID()] = cloneBooking(bk)
	return bk, true, nil
}

func (m *memoryBookings) Update(_ context.Context, bk *bookingDomain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.updateErrs) > 0 {
		err := m.updateErrs[0]
		m.updateErrs = m.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	stored, ok := m.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.BookingRef())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	if m.heldBy(bk.BookingRef(), bk.ID()) != nil {
		return domain.NewConflictError("booking reference already in use")
	}
	m.bookings[bk.ID()] = cloneBooking(bk)
	m.updates++
	return nil
}

// recordingPublisher keeps every published event and its key.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	keys   []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) eventKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// memoryOffers is an in-memory OfferCache.
type memoryOffers struct {
	offers map[string]offer.Offer
	puts   int
}

func newMemoryOffers() *memoryOffers {
	return &memoryOffers{offers: make(map[string]offer.Offer)}
}

func (c *memoryOffers) Put(_ context.Context, userID uuid.UUID, offers []offer.Offer) error {
	c.puts++
	for _, o := range offers {
		if len(o.RawPayload) > 0 {
			c.offers[userID.String()+"/"+o.ID] = o
		}
	}
	return nil
}

func (c *memoryOffers) Get(_ context.Context, userID uuid.UUID, offerID string) (*offer.Offer, error) {
	o, ok := c.offers[userID.String()+"/"+offerID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// stubPlacer returns a canned order outcome.
type stubPlacer struct {
	result    bridge.OrderResult
	err       error
	raw       json.RawMessage
	travelers []bookingDomain.Traveler
	calls     int
}

func (p *stubPlacer) PlaceOrder(_ context.Context, raw json.RawMessage, travelers []bookingDomain.Traveler) (bridge.OrderResult, error) {
	p.calls++
	p.raw = raw
	p.travelers = travelers
	return p.result, p.err
}

// stubResolver resolves from a fixed table.
type stubResolver struct {
	places map[string]place.Place
	err    error
}

func (r *stubResolver) ResolvePair(_ context.Context, src, dst string, mode offer.Mode) (place.Place, place.Place, error) {
	if r.err != nil {
		return place.Place{}, place.Place{}, r.err
	}
	return r.places[place.NormalizeKey(src)], r.places[place.NormalizeKey(dst)], nil
}

// stubProvider returns a canned result and records the criteria.
type stubProvider struct {
	result   market.Result
	err      error
	criteria offer.Criteria
}

func (p *stubProvider) Search(_ context.Context, c offer.Criteria) (market.Result, error) {
	p.criteria = c
	return p.result, p.err
}

// memoryPlaces is an in-memory place.Repository.
type memoryPlaces struct {
	places []place.Place
}

func (m *memoryPlaces) FindByKey(_ context.Context, key string) (*place.Place, error) {
	for _, p := range m.places {
		if p.Key == key {
			found := p
			return &found, nil
		}
	}
	return nil, domain.NewNotFoundError("Place", key)
}

func (m *memoryPlaces) SearchByPrefix(_ context.Context, prefix string, limit int) ([]place.Place, error) {
	var out []place.Place
	for _, p := range m.places {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(p.Key, prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}
