package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"cnis.health/nse/records"
	"cnis.health/nse/region"
	"cnis.health/nse/regional"
)

const screeningRole = " You support community health workers screening children for acute malnutrition." +
	" Do not prescribe medicine doses. Advise referral whenever danger signs are present."

// ScreeningPrompt builds a system prompt that grounds follow-up questions in a
// stored screening and, when rc is set, in its regional context.
func ScreeningPrompt(r *records.Record, rc *regional.Context) string {
	var b strings.Builder
	b.WriteString(DefaultSystemPrompt)
	b.WriteString(screeningRole)
	b.WriteString("\n\n")

	res := r.Result
	fmt.Fprintf(&b, "Latest screening for %s: status %s, %s zone.\n", childName(r), res.OverallStatus, res.Zone)
	if res.MuacResult != nil && r.Input.MuacCm != "" {
		fmt.Fprintf(&b, "MUAC: %s cm (%s).\n", r.Input.MuacCm, res.MuacResult.Status)
	}
	if res.WfhResult != nil {
		fmt.Fprintf(&b, "Weight-for-height: %s.\n", res.WfhResult.Label)
	}
	if res.InputsMissing {
		b.WriteString("No usable measurements were recorded; the status is not a finding.\n")
	}
	if len(res.DangerSigns) > 0 {
		signs := make([]string, len(res.DangerSigns))
		for i, s := range res.DangerSigns {
			signs[i] = s.Sign
		}
		fmt.Fprintf(&b, "Danger signs: %s.\n", strings.Join(signs, "; "))
	}
	fmt.Fprintf(&b, "Recommended action: %s\n", res.Recommendations.Action)
	fmt.Fprintf(&b, "Region: %s. Season: %s.", r.Location.Region, r.Season)
	if rc != nil {
		b.WriteString(RegionalContext(*rc))
	}
	return b.String()
}

// RegionalPrompt grounds a general question in the asker's region.
func RegionalPrompt(rc regional.Context) string {
	return DefaultSystemPrompt + screeningRole + RegionalContext(rc)
}

// RegionalContext renders the NFHS-5 baseline and the recent screening counts
// of rc as a block to append to a system prompt.
func RegionalContext(rc regional.Context) string {
	var b strings.Builder
	label := locationLabel(rc.Location)
	source := "default"
	if rc.Location.Detected {
		source = "GPS detected"
	}
	m := rc.Baseline
	s := rc.Summary

	b.WriteString("\n\nRegional health context:\n")
	fmt.Fprintf(&b, "User location: %s (%s).\n", label, source)
	fmt.Fprintf(&b, "NFHS-5 data for %s: stunting %s%%, wasting %s%%, underweight %s%%, risk level %s. %s\n",
		m.MatchedAs, percent(m.Stunting), percent(m.Wasting), percent(m.Underweight), m.Concern, m.Notes)
	fmt.Fprintf(&b, "Children screened in %s since %s: %d.\n", s.Region, s.Since.Format("2 Jan 2006"), s.Total)
	if s.FeverOutbreak() {
		fmt.Fprintf(&b, "ALERT fever outbreak: %d fever cases in %s.\n", s.Fever, label)
	}
	if s.DiarrheaSpike() {
		fmt.Fprintf(&b, "ALERT diarrhea spike: %d cases in %s. Recommend ORS and zinc.\n", s.Diarrhea, label)
	}
	if s.SAMAlert() {
		fmt.Fprintf(&b, "ALERT: %d severe acute malnutrition cases in %s.\n", s.SAM, label)
	}
	fmt.Fprintf(&b, "Mention %s by name, cite the NFHS-5 figures and highlight any alert.", label)
	return b.String()
}

func locationLabel(loc region.Location) string {
	if loc.District != "" {
		return fmt.Sprintf("%s District, %s", loc.District, loc.Region)
	}
	return fmt.Sprintf("%s (State Level)", loc.Region)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func childName(r *records.Record) string {
	if r.ChildName == "" {
		return "the child"
	}
	return r.ChildName
}
