package region

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		expected string
	}{
		{"Mumbai", 19.07, 72.87, "Maharashtra"},
		{"Nandurbar", 21.37, 74.24, "Maharashtra"},
		{"Bengaluru", 12.97, 77.59, "Karnataka"},
		{"Chennai", 13.08, 80.27, "Andhra Pradesh"},
		{"Madurai", 9.93, 78.12, "Tamil Nadu"},
		{"Kochi", 9.93, 76.26, "Tamil Nadu"},
		{"South-west coast", 8.52, 75.5, "Kerala"},
		{"Ahmedabad", 23.02, 72.57, "Gujarat"},
		{"Lucknow", 26.85, 80.95, "Uttar Pradesh"},
		{"Patna", 25.59, 85.14, "Chhattisgarh"},
		{"Kolkata", 22.57, 88.36, "West Bengal"},
		{"Chandigarh", 30.73, 76.78, "Punjab"},
		{"Jaipur", 26.91, 75.79, "Madhya Pradesh"},
		{"Jodhpur", 26.24, 73.02, "Gujarat"},
		{"Bikaner", 28.02, 73.31, "Rajasthan"},
		{"Box edge is inclusive", 22, 80, "Maharashtra"},
		{"Ocean", 0, 0, Default},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, Resolve(c.lat, c.lng))
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	require.Len(t, names, 17)
	require.Equal(t, "Maharashtra", names[0])
	require.Equal(t, "Rajasthan", names[16])
}

func TestLocate(t *testing.T) {
	t.Run("Detected", func(t *testing.T) {
		loc := Locate(12.97, 77.59)
		require.True(t, loc.Detected)
		require.Equal(t, "Karnataka", loc.Region)
		require.Equal(t, 12.97, *loc.Latitude)
		require.Equal(t, 77.59, *loc.Longitude)
	})
	t.Run("Not finite", func(t *testing.T) {
		require.Equal(t, Fallback(), Locate(math.NaN(), 77))
		require.Equal(t, Fallback(), Locate(19, math.Inf(1)))
	})
	t.Run("Fallback", func(t *testing.T) {
		loc := Fallback()
		require.False(t, loc.Detected)
		require.Equal(t, Default, loc.Region)
		require.Nil(t, loc.Latitude)
	})
}

func TestNormalize(t *testing.T) {
	lat, lng := 26.8, 80.9
	cases := map[string]struct {
		in       *Location
		region   string
		district string
		detected bool
	}{
		"Nil":              {nil, Default, "", false},
		"Empty":            {&Location{District: "Gaya"}, Default, "", false},
		"Named":            {&Location{Region: "Bihar", District: "Gaya"}, "Bihar", "Gaya", false},
		"Coordinates only": {&Location{Latitude: &lat, Longitude: &lng, District: "Lucknow"}, "Uttar Pradesh", "Lucknow", true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			loc := Normalize(c.in)
			require.Equal(t, c.region, loc.Region)
			require.Equal(t, c.district, loc.District)
			require.Equal(t, c.detected, loc.Detected)
		})
	}
}
