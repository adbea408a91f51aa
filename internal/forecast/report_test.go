package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMarine builds a three-day hourly series starting at start, with the
// same conditions every hour.
func fakeMarine(start time.Time, waveM, periodS, windWaveM float64) *marineResponse {
	m := &marineResponse{Timezone: "UTC"}
	for day := 0; day < forecastDays; day++ {
		for hour := 0; hour < 24; hour++ {
			ts := start.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
			m.Hourly.Time = append(m.Hourly.Time, ts.Format(hourlyTimeLayout))
			m.Hourly.WaveHeight = append(m.Hourly.WaveHeight, waveM)
			m.Hourly.WavePeriod = append(m.Hourly.WavePeriod, periodS)
			m.Hourly.WaveDirection = append(m.Hourly.WaveDirection, 210)
			m.Hourly.WindWaveHeight = append(m.Hourly.WindWaveHeight, windWaveM)
		}
	}
	return m
}

func TestBuildReport_SessionsAndConversion(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	spot := Spot{Name: "Bells Beach", Region: "Surf Coast, VIC"}
	marine := fakeMarine(now.Truncate(24*time.Hour), 1.5, 12, 0.2)

	report, err := buildReport(spot, marine, "today", now)
	require.NoError(t, err)

	assert.Equal(t, "Bells Beach", report.Spot)
	assert.Equal(t, "2026-03-14", report.Date)
	require.Len(t, report.Sessions, 3)
	assert.Equal(t, "morning", report.Sessions[0].Label)
	assert.Equal(t, "midday", report.Sessions[1].Label)
	assert.Equal(t, "afternoon", report.Sessions[2].Label)

	// 1.5m converts to 4.9ft.
	assert.InDelta(t, 4.9, report.Sessions[0].WaveHeightFeet, 0.01)
	assert.Equal(t, 12.0, report.Sessions[0].WavePeriodSec)
}

func TestBuildReport_ResolvesDays(t *testing.T) {
	// 2026-03-14 is a Saturday.
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	spot := Spot{Name: "Jan Juc"}
	marine := fakeMarine(now.Truncate(24*time.Hour), 1.0, 10, 0.2)

	tests := []struct {
		when     string
		wantDate string
		wantErr  bool
	}{
		{when: "today", wantDate: "2026-03-14"},
		{when: "", wantDate: "2026-03-14"},
		{when: "tomorrow", wantDate: "2026-03-15"},
		{when: "sunday", wantDate: "2026-03-15"},
		{when: "Monday", wantDate: "2026-03-16"},
		{when: "saturday", wantDate: "2026-03-14"},
		{when: "thursday", wantErr: true}, // outside the 3-day window
		{when: "someday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("when=%q", tt.when), func(t *testing.T) {
			report, err := buildReport(spot, marine, tt.when, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "forecast window")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, report.Date)
		})
	}
}

func TestBuildReport_NoDataForDate(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	// Series starts a week before now, so "today" is absent.
	marine := fakeMarine(now.AddDate(0, 0, -7), 1.0, 10, 0.2)

	_, err := buildReport(Spot{Name: "Anglesea"}, marine, "today", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no forecast data")
}

func TestRate(t *testing.T) {
	tests := []struct {
		name      string
		waveM     float64
		periodS   float64
		windWaveM float64
		wantMin   int
		wantMax   int
	}{
		{name: "clean overhead groundswell", waveM: 1.5, periodS: 14, windWaveM: 0.1, wantMin: 9, wantMax: 10},
		{name: "fun mid period", waveM: 1.2, periodS: 10, windWaveM: 0.4, wantMin: 6, wantMax: 7},
		{name: "small wind slop", waveM: 0.4, periodS: 6, windWaveM: 0.8, wantMin: 1, wantMax: 3},
		{name: "flat", waveM: 0.1, periodS: 5, windWaveM: 0.1, wantMin: 1, wantMax: 4},
		{name: "huge and stormy", waveM: 4.5, periodS: 9, windWaveM: 1.5, wantMin: 1, wantMax: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rate(tt.waveM, tt.periodS, tt.windWaveM)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
			assert.GreaterOrEqual(t, got, 1)
			assert.LessOrEqual(t, got, 10)
		})
	}
}

func TestRate_OrderingMakesSense(t *testing.T) {
	clean := rate(1.5, 14, 0.1)
	choppy := rate(1.5, 14, 1.0)
	assert.Greater(t, clean, choppy, "wind chop must lower the rating")

	ground := rate(1.2, 13, 0.2)
	windswell := rate(1.2, 6, 0.2)
	assert.Greater(t, ground, windswell, "longer period must raise the rating")
}

func TestToFeet(t *testing.T) {
	assert.InDelta(t, 3.3, toFeet(1.0), 0.01)
	assert.InDelta(t, 0.0, toFeet(0), 0.01)
	assert.InDelta(t, 6.6, toFeet(2.0), 0.01)
}

func TestSummarize(t *testing.T) {
	s := Session{Label: "morning", WaveHeightFeet: 4.9, WavePeriodSec: 12, Rating: 9}
	got := summarize(s)
	assert.Contains(t, got, "morning")
	assert.Contains(t, got, "4.9ft")
	assert.Contains(t, got, "firing")
}
