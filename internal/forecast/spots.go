package forecast

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSpotNotFound indicates the requested location is not in the spot table.
var ErrSpotNotFound = errors.New("surf spot not found")

// Spot is a known surf break with fixed coordinates.
type Spot struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Victorian Surf Coast breaks. Coordinates point at the lineup, not the
// town, so the marine grid cell actually covers the break.
var spots = []Spot{
	{Name: "Bells Beach", Region: "Surf Coast, VIC", Latitude: -38.3667, Longitude: 144.2833},
	{Name: "Winkipop", Region: "Surf Coast, VIC", Latitude: -38.3650, Longitude: 144.2880},
	{Name: "Jan Juc", Region: "Surf Coast, VIC", Latitude: -38.3450, Longitude: 144.3000},
	{Name: "Torquay Point", Region: "Surf Coast, VIC", Latitude: -38.3392, Longitude: 144.3261},
	{Name: "Point Addis", Region: "Surf Coast, VIC", Latitude: -38.3900, Longitude: 144.2500},
	{Name: "Anglesea", Region: "Surf Coast, VIC", Latitude: -38.4080, Longitude: 144.1850},
	{Name: "Fairhaven", Region: "Surf Coast, VIC", Latitude: -38.4650, Longitude: 144.0890},
	{Name: "Lorne Point", Region: "Surf Coast, VIC", Latitude: -38.5400, Longitude: 143.9780},
	{Name: "Barwon Heads", Region: "Bellarine, VIC", Latitude: -38.2830, Longitude: 144.4880},
	{Name: "Thirteenth Beach", Region: "Bellarine, VIC", Latitude: -38.2920, Longitude: 144.4530},
	{Name: "Ocean Grove", Region: "Bellarine, VIC", Latitude: -38.2670, Longitude: 144.5330},
	{Name: "Woolamai", Region: "Phillip Island, VIC", Latitude: -38.5440, Longitude: 145.3380},
	{Name: "Smiths Beach", Region: "Phillip Island, VIC", Latitude: -38.5060, Longitude: 145.2640},
}

// aliases maps common shorthand to canonical spot names.
var aliases = map[string]string{
	"bells":      "Bells Beach",
	"winki":      "Winkipop",
	"torquay":    "Torquay Point",
	"lorne":      "Lorne Point",
	"13th beach": "Thirteenth Beach",
	"cape woolamai": "Woolamai",
}

// Spots returns the full spot table.
func Spots() []Spot {
	out := make([]Spot, len(spots))
	copy(out, spots)
	return out
}

// LookupSpot resolves a location name to a known spot. Matching is
// case-insensitive and tolerant of extra whitespace and common aliases.
func LookupSpot(name string) (Spot, error) {
	key := normalize(name)
	if key == "" {
		return Spot{}, fmt.Errorf("%w: empty location", ErrSpotNotFound)
	}

	if canonical, ok := aliases[key]; ok {
		key = normalize(canonical)
	}
	for _, spot := range spots {
		if normalize(spot.Name) == key {
			return spot, nil
		}
	}
	return Spot{}, fmt.Errorf("%w: %q (known spots: %s)", ErrSpotNotFound, name, spotNames())
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func spotNames() string {
	names := make([]string, len(spots))
	for i, spot := range spots {
		names[i] = spot.Name
	}
	return strings.Join(names, ", ")
}
