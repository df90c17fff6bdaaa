// Package screening classifies acute malnutrition risk from anthropometric
// measurements and medical history.
//
// Every function in this package is a pure transformation: no logging, no I/O
// and no shared mutable state, so screenings may run concurrently.
package screening

type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Status is a nutrition tier. StatusAtRisk is only produced by the
// weight-for-height estimator and never becomes an overall status.
type Status string

const (
	StatusSAM    Status = "SAM"
	StatusMAM    Status = "MAM"
	StatusAtRisk Status = "At Risk"
	StatusNormal Status = "Normal"
)

// Severity maps a status onto the tier order used by the aggregator.
// Anything that is not SAM or MAM counts as normal.
func (s Status) Severity() Severity {
	switch s {
	case StatusSAM:
		return SeveritySevere
	case StatusMAM:
		return SeverityModerate
	}
	return SeverityNormal
}

type Zone string

const (
	ZoneRed    Zone = "red"
	ZoneOrange Zone = "orange"
	ZoneGreen  Zone = "green"
)

// Severity orders tiers; higher is worse.
type Severity int

const (
	SeverityNormal   Severity = 1
	SeverityModerate Severity = 2
	SeveritySevere   Severity = 3
)

func (s Severity) Zone() Zone {
	switch {
	case s >= SeveritySevere:
		return ZoneRed
	case s == SeverityModerate:
		return ZoneOrange
	}
	return ZoneGreen
}

// Condition is a medical-history tag.
type Condition string

const (
	ConditionEdema    Condition = "edema"
	ConditionLethargy Condition = "lethargy"
	ConditionDiarrhea Condition = "diarrhea"
	ConditionFever    Condition = "fever"
	ConditionCough    Condition = "cough"
)

// Overrides reports whether the condition forces the SAM tier on its own.
func (c Condition) Overrides() bool {
	return c == ConditionEdema || c == ConditionLethargy
}

// History is the set of medical-history tags reported for a child. Tags outside
// the tracked vocabulary are kept but never produce a signal.
type History []Condition

func (h History) Has(c Condition) bool {
	for _, tag := range h {
		if tag == c {
			return true
		}
	}
	return false
}

type MedicalFlags struct {
	Edema    bool `json:"edema"`
	Lethargy bool `json:"lethargy"`
	Diarrhea bool `json:"diarrhea"`
	Fever    bool `json:"fever"`
	Cough    bool `json:"cough"`
}

func (h History) Flags() MedicalFlags {
	return MedicalFlags{
		Edema:    h.Has(ConditionEdema),
		Lethargy: h.Has(ConditionLethargy),
		Diarrhea: h.Has(ConditionDiarrhea),
		Fever:    h.Has(ConditionFever),
		Cough:    h.Has(ConditionCough),
	}
}
