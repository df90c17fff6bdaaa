// Package records persists screening outcomes together with the submission
// they were computed from.
package records

import (
	"time"

	"cnis.health/nse/diet"
	"cnis.health/nse/region"
	"cnis.health/nse/screening"
	"cnis.health/nse/utils"
	"github.com/google/uuid"
)

// Submission is a screening request as sent by a field worker. RequestID is
// chosen by the client and makes resubmission idempotent.
type Submission struct {
	RequestID string             `json:"requestId,omitempty"`
	ChildName string             `json:"childName"`
	UserID    string             `json:"userId"`
	Location  *region.Location   `json:"location,omitempty"`
	Season    string             `json:"season,omitempty"`
	Input     screening.RawInput `json:"input"`
}

// Fingerprint identifies a submission for deduplication. Submissions without a
// RequestID are never deduplicated.
func (s Submission) Fingerprint() string {
	if s.RequestID == "" {
		return ""
	}
	return utils.Fingerprint(s.UserID, s.RequestID)
}

// ResolveLocation falls back to the default region when the device did not
// report a position.
func (s Submission) ResolveLocation() region.Location {
	return region.Normalize(s.Location)
}

// ResolveSeason uses the reported season when it is known, otherwise the
// season of now.
func (s Submission) ResolveSeason(now time.Time) diet.Season {
	if season, ok := diet.ParseSeason(s.Season); ok {
		return season
	}
	return diet.DetectSeason(now.Month())
}

// Record is immutable once stored.
type Record struct {
	ID          string              `json:"id"`
	ChildName   string              `json:"childName"`
	UserID      string              `json:"userId"`
	Location    region.Location     `json:"location"`
	Season      diet.Season         `json:"season"`
	CreatedAt   time.Time           `json:"createdAt"`
	Input       screening.RawInput  `json:"input"`
	Result      screening.Result    `json:"result"`
	Diet        diet.Recommendation `json:"diet"`
	Fingerprint string              `json:"fingerprint,omitempty"`
}

func New(sub Submission, result screening.Result, rec diet.Recommendation, now time.Time) *Record {
	return &Record{
		ID:          uuid.NewString(),
		ChildName:   sub.ChildName,
		UserID:      sub.UserID,
		Location:    sub.ResolveLocation(),
		Season:      rec.Season,
		CreatedAt:   now.UTC(),
		Input:       sub.Input,
		Result:      result,
		Diet:        rec,
		Fingerprint: sub.Fingerprint(),
	}
}

// Assessor runs a submission through the screening aggregator and the diet
// resolver.
type Assessor struct {
	Screener *screening.Screener
	Resolver *diet.Resolver
	Now      func() time.Time
}

func (a *Assessor) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Assessor) Assess(sub Submission) *Record {
	now := a.now()
	result := a.Screener.Screen(screening.ParseInput(sub.Input))
	loc := sub.ResolveLocation()
	rec := a.Resolver.RecommendFor(loc, sub.ResolveSeason(now), result.OverallStatus)
	return New(sub, result, rec, now)
}
