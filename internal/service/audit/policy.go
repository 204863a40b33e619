package audit

import (
	"time"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

// Evaluate classifies facts against policy at the moment now.
// Comparisons are made on UTC calendar dates; time of day is ignored.
func Evaluate(facts entities.CertificateFacts, policy entities.Policy, now time.Time) entities.Tags {
	var tags entities.Tags

	if !calendarDate(facts.NotBefore).After(calendarDate(policy.Deadline)) &&
		policy.IsFlaggedIssuer(facts.IssuerOrg) {
		tags = tags.Add(entities.TagFlaggedCA)
	}
	if calendarDate(facts.NotAfter).Before(calendarDate(now)) {
		tags = tags.Add(entities.TagExpired)
	}

	return tags
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
