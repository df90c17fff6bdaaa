package diet

import (
	"strings"
	"time"
)

type Season string

const (
	SeasonSummer  Season = "summer"
	SeasonMonsoon Season = "monsoon"
	SeasonAutumn  Season = "autumn"
	SeasonWinter  Season = "winter"
)

var Seasons = []Season{SeasonSummer, SeasonMonsoon, SeasonAutumn, SeasonWinter}

// DetectSeason maps a calendar month onto the Indian season it falls in.
func DetectSeason(month time.Month) Season {
	switch {
	case month >= time.March && month <= time.May:
		return SeasonSummer
	case month >= time.June && month <= time.September:
		return SeasonMonsoon
	case month >= time.October && month <= time.November:
		return SeasonAutumn
	}
	return SeasonWinter
}

func ParseSeason(s string) (Season, bool) {
	season := Season(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Seasons {
		if season == known {
			return season, true
		}
	}
	return "", false
}
