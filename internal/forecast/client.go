package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/smithers-ai/smithers/internal/log"
)

const (
	// DefaultBaseURL is the Open-Meteo Marine API endpoint.
	DefaultBaseURL = "https://marine-api.open-meteo.com"

	defaultTimeout  = 10 * time.Second
	forecastDays    = 3
	maxResponseSize = 1 << 20 // marine responses are a few KB; 1MB is generous
)

// Config holds forecast client settings.
type Config struct {
	Logger log.Logger // Required

	// BaseURL overrides the Open-Meteo endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each API request (default: 10s).
	Timeout time.Duration
}

// Client fetches marine forecasts and condenses them into surf reports.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     log.Logger
	now        func() time.Time
}

// NewClient creates a forecast client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		logger:     cfg.Logger,
		now:        time.Now,
	}, nil
}

// Forecast returns the surf report for a named spot on the requested day.
// when accepts "today", "tomorrow", or a weekday name within the API's
// three-day window.
func (c *Client) Forecast(ctx context.Context, location, when string) (*Report, error) {
	spot, err := LookupSpot(location)
	if err != nil {
		return nil, err
	}

	marine, err := c.fetchMarine(ctx, spot)
	if err != nil {
		return nil, err
	}

	report, err := buildReport(spot, marine, when, c.now())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("surf forecast built",
		"spot", spot.Name,
		"date", report.Date,
		"sessions", len(report.Sessions),
	)
	return report, nil
}

// marineResponse mirrors the Open-Meteo Marine API hourly payload.
type marineResponse struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time           []string  `json:"time"`
		WaveHeight     []float64 `json:"wave_height"`
		WavePeriod     []float64 `json:"wave_period"`
		WaveDirection  []float64 `json:"wave_direction"`
		WindWaveHeight []float64 `json:"wind_wave_height"`
	} `json:"hourly"`
}

func (c *Client) fetchMarine(ctx context.Context, spot Spot) (*marineResponse, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", spot.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", spot.Longitude))
	q.Set("hourly", "wave_height,wave_period,wave_direction,wind_wave_height")
	q.Set("timezone", "auto")
	q.Set("forecast_days", fmt.Sprintf("%d", forecastDays))

	endpoint := c.baseURL + "/v1/marine?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build marine request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch marine forecast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read marine response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marine api returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var marine marineResponse
	if err := json.Unmarshal(body, &marine); err != nil {
		return nil, fmt.Errorf("decode marine response: %w", err)
	}
	if len(marine.Hourly.Time) == 0 || len(marine.Hourly.WaveHeight) == 0 {
		return nil, fmt.Errorf("marine api returned no hourly data for %s", spot.Name)
	}
	return &marine, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
