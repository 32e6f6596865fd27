// Package geocode resolves free-text place names through a Nominatim
// compatible search API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/asrs-travel/service-booking/internal/domain/place"
)

// DefaultTimeout bounds every lookup.
const DefaultTimeout = 5 * time.Second

// Config holds client settings.
type Config struct {
	BaseURL     string
	UserAgent   string
	CountryCode string
	Timeout     time.Duration
}

// Client looks up places by name.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client. Zero timeout means DefaultTimeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "travel-booking-service/1.0"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

type result struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Lookup returns the best match for name as a transient place, or nil when
// nothing matches.
func (c *Client) Lookup(ctx context.Context, name string) (*place.Place, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")
	if c.cfg.CountryCode != "" {
		q.Set("countrycodes", c.cfg.CountryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocode: status %d: %s", resp.StatusCode, string(body))
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad latitude %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad longitude %q: %w", r.Lon, err)
	}

	display := r.Name
	if display == "" {
		display, _, _ = strings.Cut(r.DisplayName, ",")
	}
	if display == "" {
		display = strings.TrimSpace(name)
	}
	return &place.Place{
		CanonicalName: display,
		Key:           place.NormalizeKey(display),
		Region:        r.Address.State,
		Latitude:      lat,
		Longitude:     lon,
		Transient:     true,
	}, nil
}
