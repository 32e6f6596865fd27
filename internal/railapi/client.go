// Package railapi reads live train schedules between two stations.
package railapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every call to the API.
const DefaultTimeout = 8 * time.Second

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("railapi: api key not configured")

// Config holds client settings.
type Config struct {
	BaseURL string
	APIKey  string
	APIHost string
	Timeout time.Duration
}

// Train is one scheduled service on the requested date.
type Train struct {
	Number          string
	Name            string
	Departure       string
	Arrival         string
	DurationMinutes int
	Classes         []string
	Raw             json.RawMessage
}

type trainDoc struct {
	TrainNumber string   `json:"train_number"`
	TrainName   string   `json:"train_name"`
	FromStd     string   `json:"from_std"`
	ToSta       string   `json:"to_sta"`
	Duration    string   `json:"duration"`
	ClassType   []string `json:"class_type"`
}

// Client calls the schedule API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client. Zero timeout means DefaultTimeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// TrainsBetweenStations lists trains from one station code to another on
// date (YYYY-MM-DD). Rows that cannot be read are skipped.
func (c *Client) TrainsBetweenStations(ctx context.Context, from, to, date string) ([]Train, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("fromStationCode", from)
	q.Set("toStationCode", to)
	q.Set("dateOfJourney", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/v3/trainBetweenStations?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("railapi: build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	if c.cfg.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("railapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("railapi: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("railapi: status %d: %s", resp.StatusCode, string(raw))
	}

	var body struct {
		Status  bool              `json:"status"`
		Message string            `json:"message"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("railapi: decode response: %w", err)
	}
	if !body.Status {
		return nil, fmt.Errorf("railapi: %s", body.Message)
	}

	trains := make([]Train, 0, len(body.Data))
	for _, row := range body.Data {
		var doc trainDoc
		if err := json.Unmarshal(row, &doc); err != nil || doc.TrainNumber == "" {
			continue
		}
		minutes, err := ParseClockDuration(doc.Duration)
		if err != nil {
			continue
		}
		trains = append(trains, Train{
			Number:          doc.TrainNumber,
			Name:            doc.TrainName,
			Departure:       doc.FromStd,
			Arrival:         doc.ToSta,
			DurationMinutes: minutes,
			Classes:         doc.ClassType,
			Raw:             row,
		})
	}
	return trains, nil
}

// ParseClockDuration converts "HH:MM" travel time to minutes.
func ParseClockDuration(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid travel time %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid travel time %q", s)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("invalid travel time %q", s)
	}
	return hours*60 + mins, nil
}
