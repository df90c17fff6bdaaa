package screening

import "math"

// MUAC cut-offs in centimetres. Below MuacSevereCm is SAM; up to and including
// MuacModerateMaxCm is MAM.
const (
	MuacSevereCm      = 11.5
	MuacModerateMaxCm = 12.5
)

type MuacResult struct {
	Status    Status   `json:"status"`
	Zone      Zone     `json:"zone"`
	Label     string   `json:"label"`
	ZoneLabel string   `json:"zoneLabel"`
	Severity  Severity `json:"severity"`
	Urgent    bool     `json:"urgent"`
}

// ClassifyByMUAC returns nil when muacCm is not a finite number; callers must
// treat nil as a missing signal rather than a normal reading.
func ClassifyByMUAC(muacCm float64) *MuacResult {
	if math.IsNaN(muacCm) || math.IsInf(muacCm, 0) {
		return nil
	}
	switch {
	case muacCm < MuacSevereCm:
		return &MuacResult{
			Status:    StatusSAM,
			Zone:      ZoneRed,
			Label:     "sam",
			ZoneLabel: "red_zone",
			Severity:  SeveritySevere,
			Urgent:    true,
		}
	case muacCm <= MuacModerateMaxCm:
		return &MuacResult{
			Status:    StatusMAM,
			Zone:      ZoneOrange,
			Label:     "mam",
			ZoneLabel: "orange_zone",
			Severity:  SeverityModerate,
		}
	default:
		return &MuacResult{
			Status:    StatusNormal,
			Zone:      ZoneGreen,
			Label:     "normal",
			ZoneLabel: "green_zone",
			Severity:  SeverityNormal,
		}
	}
}
