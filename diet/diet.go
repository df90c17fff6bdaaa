// Package diet resolves local food and feeding guidance for a screened child
// from region, season and nutrition status.
package diet

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"cnis.health/nse/region"
	"cnis.health/nse/screening"
	"gopkg.in/yaml.v3"
)

// DefaultRegion holds the buckets used for regions without an entry.
const DefaultRegion = "default"

var ErrInvalidDatabase = errors.New("invalid diet database")

//go:embed data/diet.yaml
var embeddedDatabase []byte

type Food struct {
	Name      string `yaml:"name" json:"name"`
	Benefit   string `yaml:"benefit" json:"benefit"`
	Nutrients string `yaml:"nutrients,omitempty" json:"nutrients,omitempty"`
}

type Bucket struct {
	Foods []Food   `yaml:"foods" json:"foods"`
	Tips  []string `yaml:"tips" json:"tips"`
}

// Database is keyed by region name, then season.
type Database map[string]map[Season]Bucket

func LoadDatabase(r io.Reader) (Database, error) {
	var db Database
	if err := yaml.NewDecoder(r).Decode(&db); err != nil {
		return nil, fmt.Errorf("decode diet database: %w", err)
	}
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return db, nil
}

// DefaultDatabase returns a fresh copy of the embedded database.
func DefaultDatabase() Database {
	var db Database
	if err := yaml.Unmarshal(embeddedDatabase, &db); err != nil {
		panic(fmt.Sprintf("embedded diet database: %v", err))
	}
	return db
}

// Validate checks the fallbacks the resolver relies on: a default region and a
// summer bucket with foods in every region. Region names must differ in more
// than case.
func (db Database) Validate() error {
	if _, ok := db[DefaultRegion]; !ok {
		return fmt.Errorf("%w: missing %q region", ErrInvalidDatabase, DefaultRegion)
	}
	folded := make(map[string]string, len(db))
	for name, seasons := range db {
		if other, ok := folded[strings.ToLower(name)]; ok {
			return fmt.Errorf("%w: regions %q and %q differ only in case", ErrInvalidDatabase, name, other)
		}
		folded[strings.ToLower(name)] = name
		if _, ok := seasons[SeasonSummer]; !ok {
			return fmt.Errorf("%w: region %q has no summer bucket", ErrInvalidDatabase, name)
		}
		for season, bucket := range seasons {
			if _, ok := ParseSeason(string(season)); !ok {
				return fmt.Errorf("%w: region %q has unknown season %q", ErrInvalidDatabase, name, season)
			}
			if len(bucket.Foods) == 0 {
				return fmt.Errorf("%w: %s/%s has no foods", ErrInvalidDatabase, name, season)
			}
			for _, f := range bucket.Foods {
				if f.Name == "" {
					return fmt.Errorf("%w: %s/%s has a food without a name", ErrInvalidDatabase, name, season)
				}
			}
		}
	}
	return nil
}

// Recommendation is the guidance bundle for one child. UrgentAdvice and
// AdditionalFoods are only set for SAM and MAM.
type Recommendation struct {
	Region          string   `json:"region"`
	Season          Season   `json:"season"`
	ResolvedRegion  string   `json:"resolvedRegion"`
	Foods           []Food   `json:"foods"`
	Tips            []string `json:"tips"`
	UrgentAdvice    []string `json:"urgentAdvice,omitempty"`
	AdditionalFoods []Food   `json:"additionalFoods,omitempty"`
}

var samAdvice = []string{
	"URGENT: This child needs immediate medical attention",
	"Refer to nearest Nutrition Rehabilitation Center (NRC)",
	"Start therapeutic feeding as per CMAM protocol",
	"Ensure ORS is given if diarrhea is present",
	"Do NOT give regular food until medical assessment",
}

var samFoods = []Food{
	{Name: "Ready-to-Use Therapeutic Food (RUTF)", Benefit: "WHO-recommended for SAM treatment"},
	{Name: "F-75 Formula (clinical)", Benefit: "Initial stabilization phase formula"},
}

var mamAdvice = []string{
	"Child needs supplementary feeding program",
	"Weekly monitoring of weight and MUAC required",
	"Increase calorie-dense foods in diet",
	"Add eggs, milk, and nuts if available",
}

var mamFoods = []Food{
	{Name: "Energy-Dense Porridge (Sattu + Jaggery)", Benefit: "High calorie, locally available"},
	{Name: "Egg with every meal", Benefit: "Complete protein for catch-up growth"},
}

// Resolver looks up guidance in a read-only Database.
type Resolver struct {
	db Database
}

// NewResolver uses the embedded database when db is nil.
func NewResolver(db Database) *Resolver {
	if db == nil {
		db = DefaultDatabase()
	}
	return &Resolver{db: db}
}

// lookup matches a region name exactly, then trimmed and case-insensitively,
// and returns the database key it matched.
func (db Database) lookup(name string) (string, map[Season]Bucket, bool) {
	if seasons, ok := db[name]; ok {
		return name, seasons, true
	}
	name = strings.TrimSpace(name)
	for key, seasons := range db {
		if strings.EqualFold(key, name) {
			return key, seasons, true
		}
	}
	return "", nil, false
}

// Recommend returns the bucket for region and season. Region names match
// case-insensitively. Unknown regions use the default region; unknown seasons
// use the region's summer bucket. The returned slices are copies.
func (r *Resolver) Recommend(regionName string, season Season, status screening.Status) Recommendation {
	resolved, seasons, ok := r.db.lookup(regionName)
	if !ok {
		resolved = DefaultRegion
		seasons = r.db[DefaultRegion]
	}
	bucket, ok := seasons[season]
	if !ok {
		bucket = seasons[SeasonSummer]
	}

	rec := Recommendation{
		Region:         regionName,
		Season:         season,
		ResolvedRegion: resolved,
		Foods:          append([]Food{}, bucket.Foods...),
		Tips:           append([]string{}, bucket.Tips...),
	}
	switch status {
	case screening.StatusSAM:
		rec.UrgentAdvice = append([]string{}, samAdvice...)
		rec.AdditionalFoods = append([]Food{}, samFoods...)
	case screening.StatusMAM:
		rec.UrgentAdvice = append([]string{}, mamAdvice...)
		rec.AdditionalFoods = append([]Food{}, mamFoods...)
	}
	return rec
}

// RecommendFor resolves guidance for a located child.
func (r *Resolver) RecommendFor(loc region.Location, season Season, status screening.Status) Recommendation {
	return r.Recommend(loc.Region, season, status)
}

var defaultResolver = NewResolver(nil)

// GetDietRecommendations resolves against the embedded database.
func GetDietRecommendations(regionName string, season Season, status screening.Status) Recommendation {
	return defaultResolver.Recommend(regionName, season, status)
}
