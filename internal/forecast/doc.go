// Package forecast provides surf forecasts from the Open-Meteo Marine API.
//
// Spots are resolved by name from a fixed table of Victorian surf breaks,
// so the model never has to produce coordinates. A forecast covers one day
// within the API's three-day window and is condensed into morning, midday
// and afternoon sessions, each with wave height (reported in feet, as
// surfers read it), swell period, and a 1-10 quality rating derived from
// swell size, period and wind chop.
package forecast
