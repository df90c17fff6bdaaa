package screening

type DangerSeverity string

const (
	DangerCritical DangerSeverity = "critical"
	DangerHigh     DangerSeverity = "high"
	DangerMedium   DangerSeverity = "medium"
)

type DangerSign struct {
	Code     string         `json:"code"`
	Sign     string         `json:"sign"`
	Action   string         `json:"action"`
	Severity DangerSeverity `json:"severity"`
}

// dangerCatalog is evaluated in order; the order is part of the output contract.
var dangerCatalog = []struct {
	condition Condition
	sign      DangerSign
}{
	{ConditionEdema, DangerSign{
		Code:     "warning_edema",
		Sign:     "Bilateral Pitting Edema",
		Action:   "Immediate referral to hospital - sign of Kwashiorkor",
		Severity: DangerCritical,
	}},
	{ConditionLethargy, DangerSign{
		Code:     "warning_lethargy",
		Sign:     "Severe Lethargy / Unconsciousness",
		Action:   "Emergency referral - child may need IV fluids",
		Severity: DangerCritical,
	}},
	{ConditionDiarrhea, DangerSign{
		Code:     "warning_diarrhea",
		Sign:     "Persistent Diarrhea",
		Action:   "Give ORS. If blood in stool or >14 days, refer immediately",
		Severity: DangerHigh,
	}},
	{ConditionFever, DangerSign{
		Code:     "warning_fever",
		Sign:     "High Fever",
		Action:   "Monitor temperature. If >102°F with convulsions, refer",
		Severity: DangerHigh,
	}},
	{ConditionCough, DangerSign{
		Code:     "warning_cough",
		Sign:     "Persistent Cough",
		Action:   "Check for pneumonia signs (fast breathing, chest indrawing)",
		Severity: DangerMedium,
	}},
}

// MuacWarning is the advisory appended when MUAC alone is in the red zone. It
// never changes the overall tier.
var MuacWarning = DangerSign{
	Code:     "warning_muac",
	Sign:     "MUAC below 11.5 cm",
	Action:   "Refer for SAM assessment at the nearest health facility",
	Severity: DangerHigh,
}

// GetDangerSigns returns one sign per tracked condition present in history,
// in catalog order. Unknown tags are ignored.
func GetDangerSigns(history History) []DangerSign {
	signs := make([]DangerSign, 0, len(dangerCatalog))
	for _, entry := range dangerCatalog {
		if history.Has(entry.condition) {
			signs = append(signs, entry.sign)
		}
	}
	return signs
}
