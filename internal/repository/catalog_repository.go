package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/asrs-travel/service-booking/internal/domain/catalog"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// CatalogRouteModel is the GORM model for the catalog_routes table.
type CatalogRouteModel struct {
	ID              uint   `gorm:"primaryKey"`
	Mode            string `gorm:"not null;size:10;uniqueIndex:idx_catalog_route"`
	OriginCode      string `gorm:"not null;size:8;uniqueIndex:idx_catalog_route"`
	DestinationCode string `gorm:"not null;size:8;uniqueIndex:idx_catalog_route"`
	Carrier         string `gorm:"not null;size:120"`
	ServiceNumber   string `gorm:"not null;size:20;uniqueIndex:idx_catalog_route"`
	Departure       string `gorm:"not null;size:5"`
	Arrival         string `gorm:"not null;size:5"`
	DurationMinutes int    `gorm:"not null"`
	BasePrice       int64  `gorm:"not null"`
	Class           string `gorm:"not null;size:60;uniqueIndex:idx_catalog_route"`
}

// TableName returns the table name for the GORM model.
func (CatalogRouteModel) TableName() string {
	return "catalog_routes"
}

// CatalogHotelModel is the GORM model for the catalog_hotels table.
type CatalogHotelModel struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"not null;size:200;uniqueIndex:idx_catalog_hotel"`
	City      string          `gorm:"not null;size:120;uniqueIndex:idx_catalog_hotel"`
	Area      string          `gorm:"size:120"`
	PriceMin  int64           `gorm:"not null"`
	PriceMax  int64           `gorm:"not null"`
	Rating    float64         `gorm:"not null"`
	Category  string          `gorm:"size:60"`
	Amenities json.RawMessage `gorm:"type:jsonb;not null"`
	ImageURL  string          `gorm:"size:500"`
}

// TableName returns the table name for the GORM model.
func (CatalogHotelModel) TableName() string {
	return "catalog_hotels"
}

// GormCatalogRepository is the GORM-based implementation of catalog.Repository.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository.
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// FindRoutes returns curated services between two place codes, by departure.
func (r *GormCatalogRepository) FindRoutes(ctx context.Context, mode offer.Mode, originCode, destinationCode string) ([]catalog.Route, error) {
	var models []CatalogRouteModel
	if err := r.db.WithContext(ctx).
		Where("mode = ? AND origin_code = ? AND destination_code = ?", string(mode), originCode, destinationCode).
		Order("departure, id").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find catalog routes: %w", err)
	}

	routes := make([]catalog.Route, len(models))
	for i, m := range models {
		routes[i] = catalog.Route{
			ID:              m.ID,
			Mode:            offer.Mode(m.Mode),
			OriginCode:      m.OriginCode,
			DestinationCode: m.DestinationCode,
			Carrier:         m.Carrier,
			ServiceNumber:   m.ServiceNumber,
			Departure:       m.Departure,
			Arrival:         m.Arrival,
			DurationMinutes: m.DurationMinutes,
			BasePrice:       m.BasePrice,
			Class:           m.Class,
		}
	}
	return routes, nil
}

// FindHotelsByCity returns hotels whose city contains city, best rated first.
func (r *GormCatalogRepository) FindHotelsByCity(ctx context.Context, city string) ([]catalog.Hotel, error) {
	var models []CatalogHotelModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(city) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(strings.TrimSpace(city)))+"%").
		Order("rating DESC, name").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find catalog hotels: %w", err)
	}

	hotels := make([]catalog.Hotel, 0, len(models))
	for _, m := range models {
		var amenities []string
		if len(m.Amenities) > 0 {
			if err := json.Unmarshal(m.Amenities, &amenities); err != nil {
				return nil, fmt.Errorf("failed to unmarshal amenities of %s: %w", m.Name, err)
			}
		}
		hotels = append(hotels, catalog.Hotel{
			ID:        m.ID,
			Name:      m.Name,
			City:      m.City,
			Area:      m.Area,
			PriceMin:  m.PriceMin,
			PriceMax:  m.PriceMax,
			Rating:    m.Rating,
			Category:  m.Category,
			Amenities: amenities,
			ImageURL:  m.ImageURL,
		})
	}
	return hotels, nil
}
