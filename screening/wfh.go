package screening

import (
	"errors"
	"fmt"
	"math"
)

// WeightReference supplies the expected weight for a child. Implementations
// must be safe for concurrent use.
type WeightReference interface {
	ExpectedWeight(sex Sex, ageMonths int, heightCm float64) (float64, bool)
}

type HeightBand struct {
	HeightCm float64 `yaml:"height_cm" json:"heightCm"`
	WeightKg float64 `yaml:"weight_kg" json:"weightKg"`
}

// BandTable is an approximate median weight per height band. It is not a WHO
// LMS z-score table and must not be treated as one: the classification below is
// a ratio against the band median.
type BandTable struct {
	Male   []HeightBand `yaml:"male" json:"male"`
	Female []HeightBand `yaml:"female" json:"female"`
}

// DefaultBandTable covers 65-110 cm in 5 cm steps.
var DefaultBandTable = BandTable{
	Male: []HeightBand{
		{65, 7.9}, {70, 8.7}, {75, 9.5}, {80, 10.2}, {85, 11.0},
		{90, 12.0}, {95, 13.1}, {100, 14.3}, {105, 15.5}, {110, 16.9},
	},
	Female: []HeightBand{
		{65, 7.4}, {70, 8.2}, {75, 9.0}, {80, 9.8}, {85, 10.6},
		{90, 11.5}, {95, 12.6}, {100, 13.9}, {105, 15.2}, {110, 16.6},
	},
}

// ExpectedWeight picks the band closest to heightCm. Bands are scanned in
// ascending order and the first minimum wins, so a height exactly between two
// bands resolves to the lower one. Age does not affect this table. Any sex other
// than male reads the female column.
func (t BandTable) ExpectedWeight(sex Sex, _ int, heightCm float64) (float64, bool) {
	bands := t.Female
	if sex == SexMale {
		bands = t.Male
	}
	if len(bands) == 0 {
		return 0, false
	}
	closest := bands[0]
	minDiff := math.Abs(heightCm - closest.HeightCm)
	for _, band := range bands[1:] {
		if diff := math.Abs(heightCm - band.HeightCm); diff < minDiff {
			minDiff = diff
			closest = band
		}
	}
	return closest.WeightKg, closest.WeightKg > 0
}

var ErrInvalidTable = errors.New("invalid weight-for-height table")

// Validate checks that both columns are non-empty, strictly ascending by height
// and carry positive weights.
func (t BandTable) Validate() error {
	for sex, bands := range map[Sex][]HeightBand{SexMale: t.Male, SexFemale: t.Female} {
		if len(bands) == 0 {
			return fmt.Errorf("%w: no bands for %s", ErrInvalidTable, sex)
		}
		for i, band := range bands {
			if band.WeightKg <= 0 {
				return fmt.Errorf("%w: %s band %v cm has weight %v", ErrInvalidTable, sex, band.HeightCm, band.WeightKg)
			}
			if i > 0 && band.HeightCm <= bands[i-1].HeightCm {
				return fmt.Errorf("%w: %s bands are not ascending at %v cm", ErrInvalidTable, sex, band.HeightCm)
			}
		}
	}
	return nil
}

// Weight-for-height ratio cut-offs.
const (
	RatioSevere   = 0.7
	RatioModerate = 0.8
	RatioMild     = 0.9
)

type WeightForHeightResult struct {
	Status           Status  `json:"status"`
	ZScoreApprox     int     `json:"zScoreApprox"`
	Label            string  `json:"label"`
	Ratio            float64 `json:"ratio"`
	ExpectedWeightKg float64 `json:"expectedWeightKg"`
}

// ClassifyWeightForHeight compares weightKg with the reference weight for the
// child's height. ZScoreApprox is an ordinal proxy (-3..0), not a z-score.
// It returns nil when a measurement is not finite or the reference has no
// usable entry. A nil ref uses DefaultBandTable.
func ClassifyWeightForHeight(ref WeightReference, sex Sex, ageMonths int, heightCm, weightKg float64) *WeightForHeightResult {
	if !finite(heightCm) || !finite(weightKg) {
		return nil
	}
	if ref == nil {
		ref = DefaultBandTable
	}
	expected, ok := ref.ExpectedWeight(sex, ageMonths, heightCm)
	if !ok || expected <= 0 {
		return nil
	}
	ratio := weightKg / expected
	result := &WeightForHeightResult{Ratio: ratio, ExpectedWeightKg: expected}
	switch {
	case ratio < RatioSevere:
		result.Status, result.ZScoreApprox, result.Label = StatusSAM, -3, "Severely Wasted"
	case ratio < RatioModerate:
		result.Status, result.ZScoreApprox, result.Label = StatusMAM, -2, "Moderately Wasted"
	case ratio < RatioMild:
		result.Status, result.ZScoreApprox, result.Label = StatusAtRisk, -1, "Mildly Wasted"
	default:
		result.Status, result.ZScoreApprox, result.Label = StatusNormal, 0, "Normal Weight"
	}
	return result
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
