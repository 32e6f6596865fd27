package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asrs-travel/service-booking/internal/domain/place"
	"github.com/asrs-travel/service-booking/internal/refdata"
)

// SeedCounts reports how many reference rows were written.
type SeedCounts struct {
	Places  int
	Aliases int
	Routes  int
	Hotels  int
}

// Seeder loads the embedded reference catalog into the database.
type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSeeder creates a new Seeder.
func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, logger: logger}
}

// Seed upserts places, aliases, curated routes and hotels in one transaction.
// Running it again rewrites the same rows.
func (s *Seeder) Seed(ctx context.Context, data *refdata.Data) (SeedCounts, error) {
	places, aliases := placeRows(data)
	routes := routeRows(data)
	hotels, err := hotelRows(data)
	if err != nil {
		return SeedCounts{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(places) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "lowercase_key"}},
				UpdateAll: true,
			}).CreateInBatches(places, 100).Error; err != nil {
				return fmt.Errorf("failed to seed places: %w", err)
			}
		}
		if len(aliases) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "alias"}},
				DoUpdates: clause.AssignmentColumns([]string{"place_key"}),
			}).CreateInBatches(aliases, 100).Error; err != nil {
				return fmt.Errorf("failed to seed place aliases: %w", err)
			}
		}
		if len(routes) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "mode"}, {Name: "origin_code"}, {Name: "destination_code"},
					{Name: "service_number"}, {Name: "class"},
				},
				DoUpdates: clause.AssignmentColumns([]string{
					"carrier", "departure", "arrival", "duration_minutes", "base_price",
				}),
			}).CreateInBatches(routes, 100).Error; err != nil {
				return fmt.Errorf("failed to seed catalog routes: %w", err)
			}
		}
		if len(hotels) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "name"}, {Name: "city"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"area", "price_min", "price_max", "rating", "category", "amenities", "image_url",
				}),
			}).CreateInBatches(hotels, 100).Error; err != nil {
				return fmt.Errorf("failed to seed catalog hotels: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}

	counts := SeedCounts{
		Places:  len(places),
		Aliases: len(aliases),
		Routes:  len(routes),
		Hotels:  len(hotels),
	}
	s.logger.Info("reference catalog seeded",
		zap.Int("places", counts.Places),
		zap.Int("aliases", counts.Aliases),
		zap.Int("routes", counts.Routes),
		zap.Int("hotels", counts.Hotels),
	)
	return counts, nil
}

// placeRows flattens the seed places. Aliases that collide with a place key
// or with an earlier alias are skipped.
func placeRows(data *refdata.Data) ([]PlaceModel, []PlaceAliasModel) {
	places := make([]PlaceModel, 0, len(data.Places))
	keys := make(map[string]bool, len(data.Places))
	for _, seed := range data.Places {
		p := seed.Place()
		if keys[p.Key] {
			continue
		}
		keys[p.Key] = true
		places = append(places, toPlaceModel(p))
	}

	var aliases []PlaceAliasModel
	seen := make(map[string]bool)
	for _, seed := range data.Places {
		target := place.NormalizeKey(seed.Name)
		for _, a := range seed.Aliases {
			key := place.NormalizeKey(a)
			if key == "" || keys[key] || seen[key] {
				continue
			}
			seen[key] = true
			aliases = append(aliases, PlaceAliasModel{Alias: key, PlaceKey: target})
		}
	}
	return places, aliases
}

func routeRows(data *refdata.Data) []CatalogRouteModel {
	rows := make([]CatalogRouteModel, 0, len(data.Routes))
	for _, r := range data.Routes {
		rows = append(rows, CatalogRouteModel{
			Mode:            r.Mode,
			OriginCode:      r.Origin,
			DestinationCode: r.Destination,
			Carrier:         r.Carrier,
			ServiceNumber:   r.ServiceNumber,
			Departure:       r.Departure,
			Arrival:         r.Arrival,
			DurationMinutes: r.DurationMinutes,
			BasePrice:       r.BasePrice,
			Class:           r.Class,
		})
	}
	return rows
}

func hotelRows(data *refdata.Data) ([]CatalogHotelModel, error) {
	rows := make([]CatalogHotelModel, 0, len(data.Hotels))
	for _, h := range data.Hotels {
		amenities, err := json.Marshal(h.Amenities)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal amenities of %s: %w", h.Name, err)
		}
		rows = append(rows, CatalogHotelModel{
			Name:      h.Name,
			City:      h.City,
			Area:      h.Area,
			PriceMin:  h.PriceMin,
			PriceMax:  h.PriceMax,
			Rating:    h.Rating,
			Category:  h.Category,
			Amenities: amenities,
			ImageURL:  h.ImageURL,
		})
	}
	return rows, nil
}
