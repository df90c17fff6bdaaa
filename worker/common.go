package worker

import (
	"cnis.health/nse/records"
	"cnis.health/nse/screening"
)

// Event is published to the results queue for every persisted screening,
// including redelivered submissions that were already stored.
type Event struct {
	RecordID      string             `json:"recordId"`
	UserID        string             `json:"userId"`
	OverallStatus screening.Status   `json:"overallStatus"`
	Zone          screening.Zone     `json:"zone"`
	Severity      screening.Severity `json:"severity"`
	Referral      bool               `json:"referral"`
	InputsMissing bool               `json:"inputsMissing"`
}

func NewEvent(r *records.Record) Event {
	return Event{
		RecordID:      r.ID,
		UserID:        r.UserID,
		OverallStatus: r.Result.OverallStatus,
		Zone:          r.Result.Zone,
		Severity:      r.Result.Severity,
		Referral:      r.Result.Recommendations.Referral,
		InputsMissing: r.Result.InputsMissing,
	}
}
