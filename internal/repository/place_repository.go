package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/domain/place"
)

// PlaceModel is the GORM model for the places table.
type PlaceModel struct {
	LowercaseKey  string  `gorm:"primaryKey;size:120"`
	CanonicalName string  `gorm:"not null;size:120"`
	Region        string  `gorm:"size:120"`
	ShortCode     string  `gorm:"size:8;index"`
	StationCode   string  `gorm:"size:8"`
	Latitude      float64 `gorm:"not null"`
	Longitude     float64 `gorm:"not null"`
	Famous        string  `gorm:"size:300"`
	LocalFood     string  `gorm:"size:300"`
	BestTime      string  `gorm:"size:60"`
}

// TableName returns the table name for the GORM model.
func (PlaceModel) TableName() string {
	return "places"
}

// PlaceAliasModel maps an alternative name onto a catalog place.
type PlaceAliasModel struct {
	Alias    string `gorm:"primaryKey;size:120"`
	PlaceKey string `gorm:"not null;size:120;index"`
}

// TableName returns the table name for the GORM model.
func (PlaceAliasModel) TableName() string {
	return "place_aliases"
}

// GormPlaceRepository is the GORM-based implementation of place.Repository.
type GormPlaceRepository struct {
	db *gorm.DB
}

// NewGormPlaceRepository creates a new GormPlaceRepository.
func NewGormPlaceRepository(db *gorm.DB) *GormPlaceRepository {
	return &GormPlaceRepository{db: db}
}

// FindByKey looks a place up by key, then by alias.
func (r *GormPlaceRepository) FindByKey(ctx context.Context, key string) (*place.Place, error) {
	var model PlaceModel
	err := r.db.WithContext(ctx).Where("lowercase_key = ?", key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).
			Joins("JOIN place_aliases ON place_aliases.place_key = places.lowercase_key").
			Where("place_aliases.alias = ?", key).
			First(&model).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Place", key)
		}
		return nil, fmt.Errorf("failed to find place: %w", err)
	}
	p := toDomainPlace(&model)
	return &p, nil
}

// SearchByPrefix returns up to limit places whose key starts with prefix.
func (r *GormPlaceRepository) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]place.Place, error) {
	var models []PlaceModel
	if err := r.db.WithContext(ctx).
		Where("lowercase_key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Order("lowercase_key").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search places: %w", err)
	}

	places := make([]place.Place, len(models))
	for i := range models {
		places[i] = toDomainPlace(&models[i])
	}
	return places, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toPlaceModel(p place.Place) PlaceModel {
	return PlaceModel{
		LowercaseKey:  p.Key,
		CanonicalName: p.CanonicalName,
		Region:        p.Region,
		ShortCode:     p.ShortCode,
		StationCode:   p.StationCode,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Famous:        p.Notable.Famous,
		LocalFood:     p.Notable.LocalFood,
		BestTime:      p.Notable.BestTime,
	}
}

func toDomainPlace(m *PlaceModel) place.Place {
	return place.Place{
		CanonicalName: m.CanonicalName,
		Key:           m.LowercaseKey,
		Region:        m.Region,
		ShortCode:     m.ShortCode,
		StationCode:   m.StationCode,
		Latitude:      m.Latitude,
		Longitude:     m.Longitude,
		Notable: place.NotableInfo{
			Famous:    m.Famous,
			LocalFood: m.LocalFood,
			BestTime:  m.BestTime,
		},
	}
}
