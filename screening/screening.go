package screening

import "time"

type Recommendations struct {
	Action   string `json:"action"`
	Feeding  string `json:"feeding"`
	FollowUp string `json:"followUp"`
	Referral bool   `json:"referral"`
}

// RecommendationsFor returns the action plan for a final zone.
func RecommendationsFor(zone Zone) Recommendations {
	switch zone {
	case ZoneRed:
		return Recommendations{
			Action:   "URGENT: Refer to nearest health facility immediately",
			Feeding:  "Therapeutic feeding (F-75/F-100 as per protocol)",
			FollowUp: "Daily monitoring required",
			Referral: true,
		}
	case ZoneOrange:
		return Recommendations{
			Action:   "Enroll in supplementary feeding program",
			Feeding:  "High-energy, nutrient-dense foods with increased frequency",
			FollowUp: "Weekly monitoring and weight check",
		}
	default:
		return Recommendations{
			Action:   "Continue regular nutrition and growth monitoring",
			Feeding:  "Age-appropriate balanced diet",
			FollowUp: "Monthly growth monitoring",
		}
	}
}

// Result is an immutable screening outcome. InputsMissing is set when neither
// MUAC nor weight-for-height produced a signal; the tier is then Normal only
// because nothing was measured.
type Result struct {
	OverallStatus   Status                 `json:"overallStatus"`
	Zone            Zone                   `json:"zone"`
	Severity        Severity               `json:"severity"`
	MuacResult      *MuacResult            `json:"muacResult"`
	WfhResult       *WeightForHeightResult `json:"wfhResult"`
	DangerSigns     []DangerSign           `json:"dangerSigns"`
	MedicalFlags    MedicalFlags           `json:"medicalFlags"`
	Recommendations Recommendations        `json:"recommendations"`
	InputsMissing   bool                   `json:"inputsMissing"`
	Timestamp       time.Time              `json:"timestamp"`
}

// Screener aggregates the individual classifiers. The zero value uses
// DefaultBandTable and the wall clock.
type Screener struct {
	Reference WeightReference
	Now       func() time.Time
}

func NewScreener(ref WeightReference) *Screener {
	return &Screener{Reference: ref}
}

// Screen merges MUAC, weight-for-height and danger-sign overrides into one
// result using the worst-case rule. It accepts any input and never fails.
func (s *Screener) Screen(in Input) Result {
	var muac *MuacResult
	if in.MuacCm != nil {
		muac = ClassifyByMUAC(*in.MuacCm)
	}
	var wfh *WeightForHeightResult
	if in.AgeMonths != nil && in.HeightCm != nil && in.WeightKg != nil {
		wfh = ClassifyWeightForHeight(s.Reference, in.Sex, *in.AgeMonths, *in.HeightCm, *in.WeightKg)
	}

	candidates := make([]Assessment, 0, 4)
	if muac != nil {
		candidates = append(candidates, muac.assessment())
	}
	if wfh != nil {
		candidates = append(candidates, wfh.assessment())
	}
	for _, c := range []Condition{ConditionEdema, ConditionLethargy} {
		if in.MedicalHistory.Has(c) {
			candidates = append(candidates, criticalAssessment)
		}
	}
	overall := Worst(candidates...)

	signs := GetDangerSigns(in.MedicalHistory)
	if muac != nil && muac.Urgent {
		signs = append(signs, MuacWarning)
	}

	return Result{
		OverallStatus:   overall.Status,
		Zone:            overall.Zone,
		Severity:        overall.Severity,
		MuacResult:      muac,
		WfhResult:       wfh,
		DangerSigns:     signs,
		MedicalFlags:    in.MedicalHistory.Flags(),
		Recommendations: RecommendationsFor(overall.Zone),
		InputsMissing:   muac == nil && wfh == nil,
		Timestamp:       s.now(),
	}
}

func (s *Screener) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var defaultScreener = &Screener{}

// PerformScreening screens in against DefaultBandTable.
func PerformScreening(in Input) Result {
	return defaultScreener.Screen(in)
}
