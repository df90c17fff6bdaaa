// Package regional summarises recent screenings of a region and pairs them
// with the NFHS-5 baseline for that location.
package regional

import (
	"context"
	"strings"
	"time"

	"cnis.health/nse/baseline"
	"cnis.health/nse/records"
	"cnis.health/nse/region"
	"cnis.health/nse/screening"
)

const (
	// SpikeThreshold is the case count above which fever or diarrhea is
	// reported as a spike.
	SpikeThreshold = 5
	DefaultWindow  = 30 * 24 * time.Hour
	// MaxRecords bounds how many of the newest records one summary reads.
	MaxRecords = 1000
)

type Summary struct {
	Region   string    `json:"region"`
	Since    time.Time `json:"since"`
	Total    int       `json:"total"`
	Fever    int       `json:"fever"`
	Diarrhea int       `json:"diarrhea"`
	SAM      int       `json:"sam"`
}

func (s Summary) FeverOutbreak() bool {
	return s.Fever > SpikeThreshold
}

func (s Summary) DiarrheaSpike() bool {
	return s.Diarrhea > SpikeThreshold
}

func (s Summary) SAMAlert() bool {
	return s.SAM > 0
}

// Summarize counts the records of regionName created at or after since.
// Region names match case-insensitively.
func Summarize(regionName string, since time.Time, list []*records.Record) Summary {
	sum := Summary{Region: regionName, Since: since}
	for _, r := range list {
		if r.CreatedAt.Before(since) || !strings.EqualFold(r.Location.Region, regionName) {
			continue
		}
		sum.Total++
		if r.Result.MedicalFlags.Fever {
			sum.Fever++
		}
		if r.Result.MedicalFlags.Diarrhea {
			sum.Diarrhea++
		}
		if r.Result.OverallStatus == screening.StatusSAM {
			sum.SAM++
		}
	}
	return sum
}

// Context is what the assistant is told about where the question comes from.
type Context struct {
	Location region.Location `json:"location"`
	Baseline baseline.Match  `json:"baseline"`
	Summary  Summary         `json:"summary"`
}

type Builder struct {
	Store     records.Store
	Baselines *baseline.Table
	Window    time.Duration
	Now       func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Build reads the newest records from the store and summarises those of
// loc's region within the window.
func (b *Builder) Build(ctx context.Context, loc region.Location) (Context, error) {
	window := b.Window
	if window <= 0 {
		window = DefaultWindow
	}
	table := b.Baselines
	if table == nil {
		table = baseline.Default()
	}
	list, err := b.Store.List(ctx, "", MaxRecords)
	if err != nil {
		return Context{}, err
	}
	return Context{
		Location: loc,
		Baseline: table.Lookup(loc.District, loc.Region),
		Summary:  Summarize(loc.Region, b.now().Add(-window), list),
	}, nil
}
