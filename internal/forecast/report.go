package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const feetPerMetre = 3.28084

// Report is a one-day surf forecast for a single spot.
type Report struct {
	Spot     string    `json:"spot"`
	Region   string    `json:"region"`
	Date     string    `json:"date"` // YYYY-MM-DD in spot-local time
	Timezone string    `json:"timezone"`
	Sessions []Session `json:"sessions"`
}

// Session is one surfable window of the day.
type Session struct {
	Label          string  `json:"label"` // morning, midday, afternoon
	Time           string  `json:"time"`  // HH:MM spot-local
	WaveHeightFeet float64 `json:"waveHeightFeet"`
	WavePeriodSec  float64 `json:"wavePeriodSec"`
	WaveDirection  float64 `json:"waveDirectionDeg"`
	WindWaveFeet   float64 `json:"windWaveFeet"`
	Rating         int     `json:"rating"` // 1 (flat or blown out) to 10 (firing)
	Summary        string  `json:"summary"`
}

// Session sample hours in spot-local time.
var sessionHours = []struct {
	label string
	hour  int
}{
	{"morning", 7},
	{"midday", 12},
	{"afternoon", 16},
}

// hourlyTimeLayout matches Open-Meteo's local timestamps.
const hourlyTimeLayout = "2006-01-02T15:04"

// buildReport selects the requested day's session hours from the hourly
// series and rates each one.
func buildReport(spot Spot, marine *marineResponse, when string, now time.Time) (*Report, error) {
	loc := spotLocation(marine.Timezone)
	date, err := resolveDay(when, now.In(loc))
	if err != nil {
		return nil, err
	}
	dateStr := date.Format("2006-01-02")

	// Index hourly samples for the selected date.
	index := make(map[string]int, 24)
	for i, ts := range marine.Hourly.Time {
		if strings.HasPrefix(ts, dateStr) {
			index[ts] = i
		}
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("no forecast data for %s on %s", spot.Name, dateStr)
	}

	report := &Report{
		Spot:     spot.Name,
		Region:   spot.Region,
		Date:     dateStr,
		Timezone: marine.Timezone,
	}

	hourly := marine.Hourly
	for _, sh := range sessionHours {
		ts := fmt.Sprintf("%sT%02d:00", dateStr, sh.hour)
		i, ok := index[ts]
		if !ok || i >= len(hourly.WaveHeight) {
			continue
		}

		session := Session{
			Label:          sh.label,
			Time:           fmt.Sprintf("%02d:00", sh.hour),
			WaveHeightFeet: toFeet(hourly.WaveHeight[i]),
			WavePeriodSec:  at(hourly.WavePeriod, i),
			WaveDirection:  at(hourly.WaveDirection, i),
			WindWaveFeet:   toFeet(at(hourly.WindWaveHeight, i)),
		}
		session.Rating = rate(hourly.WaveHeight[i], at(hourly.WavePeriod, i), at(hourly.WindWaveHeight, i))
		session.Summary = summarize(session)
		report.Sessions = append(report.Sessions, session)
	}

	if len(report.Sessions) == 0 {
		return nil, fmt.Errorf("no session data for %s on %s", spot.Name, dateStr)
	}
	return report, nil
}

// resolveDay maps "today", "tomorrow", or a weekday name onto a date
// within the three-day forecast window.
func resolveDay(when string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch key := strings.ToLower(strings.TrimSpace(when)); key {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	default:
		for offset := 0; offset < forecastDays; offset++ {
			day := today.AddDate(0, 0, offset)
			if strings.ToLower(day.Weekday().String()) == key {
				return day, nil
			}
		}
		return time.Time{}, fmt.Errorf("day %q is outside the %d-day forecast window", when, forecastDays)
	}
}

func spotLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// rate scores surf quality 1-10 from swell size, period and wind chop.
// Metric inputs as delivered by the API.
func rate(waveHeightM, periodS, windWaveM float64) int {
	score := 0

	// Period carries swell quality: long-period groundswell breaks cleaner.
	switch {
	case periodS >= 13:
		score += 4
	case periodS >= 10:
		score += 3
	case periodS >= 8:
		score += 2
	default:
		score += 1
	}

	// Size sweet spot is roughly head-high to double overhead.
	feet := waveHeightM * feetPerMetre
	switch {
	case feet >= 3 && feet <= 8:
		score += 3
	case feet >= 2 && feet <= 10:
		score += 2
	case feet >= 1:
		score += 1
	}

	// Wind waves on top of the swell mean chop.
	switch {
	case windWaveM < 0.3:
		score += 3
	case windWaveM < 0.6:
		score += 1
	}

	return min(max(score, 1), 10)
}

func summarize(s Session) string {
	var quality string
	switch {
	case s.Rating >= 8:
		quality = "firing"
	case s.Rating >= 6:
		quality = "fun"
	case s.Rating >= 4:
		quality = "surfable"
	default:
		quality = "poor"
	}
	return fmt.Sprintf("%s: %.1fft @ %.0fs, %s", s.Label, s.WaveHeightFeet, s.WavePeriodSec, quality)
}

func toFeet(metres float64) float64 {
	return math.Round(metres*feetPerMetre*10) / 10
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}
