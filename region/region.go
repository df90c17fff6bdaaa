// Package region maps device coordinates onto the Indian state used to pick
// local diet guidance.
package region

import "math"

// Default is reported when coordinates match no known state.
const Default = "Maharashtra"

type box struct {
	name           string
	minLat, maxLat float64
	minLng, maxLng float64
}

// Boxes overlap; the first match wins, so order matters.
var boxes = []box{
	{"Maharashtra", 18, 22, 72, 80},
	{"Karnataka", 12, 18, 74, 78},
	{"Tamil Nadu", 8, 13, 76, 80},
	{"Kerala", 8, 13, 74, 77},
	{"Gujarat", 20, 28, 68, 75},
	{"Madhya Pradesh", 23, 28, 75, 79},
	{"Uttar Pradesh", 25, 31, 77, 85},
	{"Chhattisgarh", 21, 27, 80, 88},
	{"Odisha", 20, 22, 83, 87},
	{"West Bengal", 22, 27, 86, 89},
	{"Bihar", 25, 27, 85, 88},
	{"Jharkhand", 21, 26, 83, 87},
	{"Andhra Pradesh", 13, 19, 76, 81},
	{"Goa", 15, 18, 73, 76},
	{"Punjab", 28, 33, 74, 77},
	{"Haryana", 28, 33, 76, 78},
	{"Rajasthan", 26, 31, 69, 76},
}

func (b box) contains(lat, lng float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lng >= b.minLng && lng <= b.maxLng
}

// Resolve returns the state whose bounding box contains the point, or Default.
func Resolve(lat, lng float64) string {
	for _, b := range boxes {
		if b.contains(lat, lng) {
			return b.name
		}
	}
	return Default
}

// Names lists every state Resolve can return, in lookup order.
func Names() []string {
	names := make([]string, len(boxes))
	for i, b := range boxes {
		names[i] = b.name
	}
	return names
}

// Location is the resolved position handed to the diet resolver. Detected is
// false when no coordinates were available and Region holds the default.
type Location struct {
	Region    string   `json:"region"`
	District  string   `json:"district,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Detected  bool     `json:"detected"`
}

func Fallback() Location {
	return Location{Region: Default}
}

// Locate resolves coordinates into a Location. Non-finite coordinates yield
// the fallback location.
func Locate(lat, lng float64) Location {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return Fallback()
	}
	return Location{
		Region:    Resolve(lat, lng),
		Latitude:  &lat,
		Longitude: &lng,
		Detected:  true,
	}
}

// Normalize completes a reported location. A nil location or one without
// region and coordinates becomes the fallback; coordinates without a region
// name are resolved.
func Normalize(l *Location) Location {
	switch {
	case l == nil:
		return Fallback()
	case l.Region != "":
		return *l
	case l.Latitude != nil && l.Longitude != nil:
		loc := Locate(*l.Latitude, *l.Longitude)
		loc.District = l.District
		return loc
	}
	return Fallback()
}
