package tools

import (
	"context"
	"fmt"

	"github.com/smithers-ai/smithers/internal/forecast"
)

// SurfForecastName is the registered name of the surf forecast tool.
const SurfForecastName = "get_surf_forecast"

// Forecaster is the forecast service capability the tool needs.
type Forecaster interface {
	Forecast(ctx context.Context, location, when string) (*forecast.Report, error)
}

// ForecastInput is the model-facing argument schema for surf forecasts.
type ForecastInput struct {
	// Location is the surf spot name, e.g. "Bells Beach".
	Location string `json:"location"`
	// When selects the day: "today", "tomorrow", or a weekday name.
	When string `json:"when,omitempty"`
}

// NewSurfForecast builds the surf forecast tool over the marine weather
// client.
func NewSurfForecast(forecaster Forecaster) (*ExecutableTool, error) {
	return NewTool(
		SurfForecastName,
		"Get the surf forecast for a known surf spot, including wave height, "+
			"swell period, and a session-by-session quality rating. "+
			"Accepts a day: today, tomorrow, or a weekday name within the next three days.",
		func(ctx context.Context, input ForecastInput) (*forecast.Report, error) {
			if input.Location == "" {
				return nil, fmt.Errorf("location is required")
			}
			when := input.When
			if when == "" {
				when = "today"
			}

			report, err := forecaster.Forecast(ctx, input.Location, when)
			if err != nil {
				return nil, fmt.Errorf("surf forecast: %w", err)
			}
			return report, nil
		},
	)
}
