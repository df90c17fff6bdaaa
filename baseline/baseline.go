// Package baseline holds the NFHS-5 district and state nutrition indicators
// used to put a screening in its regional context.
package baseline

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// National is reported as the match when neither district nor state is known.
const National = "India"

var ErrInvalidTable = errors.New("invalid baseline table")

//go:embed data/nfhs.yaml
var embeddedTable []byte

type Concern string

const (
	ConcernCritical Concern = "Critical"
	ConcernHigh     Concern = "High"
	ConcernMedium   Concern = "Medium"
	ConcernLow      Concern = "Low"
)

// Stats are percentages of children under five.
type Stats struct {
	State       string  `yaml:"state,omitempty" json:"state,omitempty"`
	Stunting    float64 `yaml:"stunting" json:"stunting"`
	Wasting     float64 `yaml:"wasting" json:"wasting"`
	Underweight float64 `yaml:"underweight" json:"underweight"`
	Concern     Concern `yaml:"concern" json:"concern"`
	Notes       string  `yaml:"notes" json:"notes"`
}

type Table struct {
	National  Stats            `yaml:"national"`
	States    map[string]Stats `yaml:"states"`
	Districts map[string]Stats `yaml:"districts"`
}

type Level string

const (
	LevelDistrict Level = "district"
	LevelState    Level = "state"
	LevelNational Level = "national"
)

// Match is the most specific row found for a location. MatchedAs names the
// row: the district, the state or National.
type Match struct {
	Stats
	Level     Level  `json:"level"`
	MatchedAs string `json:"matchedAs"`
}

func Load(r io.Reader) (*Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode baseline table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Default returns a fresh copy of the embedded table.
func Default() *Table {
	var t Table
	if err := yaml.Unmarshal(embeddedTable, &t); err != nil {
		panic(fmt.Sprintf("embedded baseline table: %v", err))
	}
	return &t
}

func validStats(s Stats) bool {
	for _, v := range []float64{s.Stunting, s.Wasting, s.Underweight} {
		if v < 0 || v > 100 {
			return false
		}
	}
	switch s.Concern {
	case ConcernCritical, ConcernHigh, ConcernMedium, ConcernLow:
		return true
	}
	return false
}

// Validate requires a national row and in-range rows everywhere. A district
// must name its state.
func (t *Table) Validate() error {
	if !validStats(t.National) {
		return fmt.Errorf("%w: national row is missing or out of range", ErrInvalidTable)
	}
	for name, s := range t.States {
		if !validStats(s) {
			return fmt.Errorf("%w: state %q is out of range", ErrInvalidTable, name)
		}
	}
	for name, s := range t.Districts {
		if s.State == "" {
			return fmt.Errorf("%w: district %q has no state", ErrInvalidTable, name)
		}
		if !validStats(s) {
			return fmt.Errorf("%w: district %q is out of range", ErrInvalidTable, name)
		}
	}
	return nil
}

func lookup(rows map[string]Stats, name string) (string, Stats, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Stats{}, false
	}
	if s, ok := rows[name]; ok {
		return name, s, true
	}
	for key, s := range rows {
		if strings.EqualFold(key, name) {
			return key, s, true
		}
	}
	return "", Stats{}, false
}

// Lookup falls back from district to the state average and then to the
// national average. Names match case-insensitively.
func (t *Table) Lookup(district, state string) Match {
	if key, s, ok := lookup(t.Districts, district); ok {
		return Match{Stats: s, Level: LevelDistrict, MatchedAs: key}
	}
	if key, s, ok := lookup(t.States, state); ok {
		s.State = key
		return Match{Stats: s, Level: LevelState, MatchedAs: key}
	}
	s := t.National
	s.State = National
	return Match{Stats: s, Level: LevelNational, MatchedAs: National}
}
