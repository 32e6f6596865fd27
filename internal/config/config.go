package config

import (
	"time"

	"github.com/asrs-travel/service-booking/internal/common/config"
)

// AmadeusConfig holds the live flight API credentials.
type AmadeusConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Currency     string
}

// RailConfig holds the live train schedule API settings.
type RailConfig struct {
	BaseURL string
	APIKey  string
	APIHost string
}

// GeocoderConfig holds the place lookup API settings.
type GeocoderConfig struct {
	BaseURL     string
	UserAgent   string
	CountryCode string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	MigrationsDir string
	DBConfig      config.DatabaseConfig
	JWTConfig     config.JWTConfig
	KafkaConfig   config.KafkaConfig
	RedisConfig   config.RedisConfig

	Amadeus  AmadeusConfig
	Rail     RailConfig
	Geocoder GeocoderConfig

	// UpstreamTimeout overrides every client's own default when set.
	UpstreamTimeout time.Duration
	OfferCacheTTL   time.Duration
	TokenTTL        time.Duration
	TicketSecret    string
	SearchPerMinute int
	LivePerSecond   float64
	LiveBurst       int
}

// Load reads configuration from TRAVEL_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("TRAVEL")
	if err != nil {
		return nil, err
	}

	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("AMADEUS_BASE_URL", "https://test.api.amadeus.com")
	v.SetDefault("AMADEUS_CURRENCY", "INR")
	v.SetDefault("RAIL_API_BASE_URL", "https://irctc1.p.rapidapi.com")
	v.SetDefault("RAIL_API_HOST", "irctc1.p.rapidapi.com")
	v.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "asrs-travel/1.0")
	v.SetDefault("GEOCODER_COUNTRY_CODE", "in")
	v.SetDefault("TICKET_SECRET", "change-me-in-production")
	v.SetDefault("SEARCH_RATE_PER_MIN", 30)
	v.SetDefault("LIVE_RATE_PER_SEC", 2.0)
	v.SetDefault("LIVE_BURST", 4)

	return &ServiceConfig{
		Port:          config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:        config.GetAppEnv(v),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		DBConfig:      config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:     config.LoadJWTConfig(v),
		KafkaConfig:   config.LoadKafkaConfig(v),
		RedisConfig:   config.LoadRedisConfig(v),
		Amadeus: AmadeusConfig{
			BaseURL:      v.GetString("AMADEUS_BASE_URL"),
			ClientID:     v.GetString("AMADEUS_CLIENT_ID"),
			ClientSecret: v.GetString("AMADEUS_CLIENT_SECRET"),
			Currency:     v.GetString("AMADEUS_CURRENCY"),
		},
		Rail: RailConfig{
			BaseURL: v.GetString("RAIL_API_BASE_URL"),
			APIKey:  v.GetString("RAIL_API_KEY"),
			APIHost: v.GetString("RAIL_API_HOST"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:     v.GetString("GEOCODER_BASE_URL"),
			UserAgent:   v.GetString("GEOCODER_USER_AGENT"),
			CountryCode: v.GetString("GEOCODER_COUNTRY_CODE"),
		},
		UpstreamTimeout: v.GetDuration("UPSTREAM_TIMEOUT"),
		OfferCacheTTL:   config.GetDuration(v, "OFFER_CACHE_TTL", 20*time.Minute),
		TokenTTL:        config.GetDuration(v, "JWT_ACCESS_TTL", 24*time.Hour),
		TicketSecret:    v.GetString("TICKET_SECRET"),
		SearchPerMinute: v.GetInt("SEARCH_RATE_PER_MIN"),
		LivePerSecond:   v.GetFloat64("LIVE_RATE_PER_SEC"),
		LiveBurst:       v.GetInt("LIVE_BURST"),
	}, nil
}
