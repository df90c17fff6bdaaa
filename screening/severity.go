package screening

// Assessment is one candidate tier considered by the aggregator.
type Assessment struct {
	Status   Status
	Zone     Zone
	Severity Severity
}

var (
	normalAssessment   = Assessment{StatusNormal, ZoneGreen, SeverityNormal}
	criticalAssessment = Assessment{StatusSAM, ZoneRed, SeveritySevere}
)

// Worst folds candidates onto the Normal baseline, keeping a candidate only when
// it is strictly more severe than the current one. Ties keep the earlier
// candidate, so evaluation order decides between equal tiers.
func Worst(candidates ...Assessment) Assessment {
	worst := normalAssessment
	for _, c := range candidates {
		if c.Severity > worst.Severity {
			worst = c
		}
	}
	return worst
}

func (r *MuacResult) assessment() Assessment {
	return Assessment{r.Status, r.Zone, r.Severity}
}

// Weight-for-height carries no zone of its own; it is derived from severity.
func (r *WeightForHeightResult) assessment() Assessment {
	severity := r.Status.Severity()
	return Assessment{r.Status, severity.Zone(), severity}
}
