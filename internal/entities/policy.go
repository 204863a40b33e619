package entities

import "time"

// Policy is the compliance policy a run is evaluated against.
// It is immutable once built and carries no credentials.
type Policy struct {
	Deadline       time.Time
	flaggedIssuers map[string]struct{}
	excludedNames  map[string]struct{}
}

// NewPolicy returns Policy for the passed deadline, flagged issuer
// organizations and excluded common names. Matching is exact.
func NewPolicy(deadline time.Time, flaggedIssuers, excludedNames []string) Policy {
	return Policy{
		Deadline:       deadline,
		flaggedIssuers: toSet(flaggedIssuers),
		excludedNames:  toSet(excludedNames),
	}
}

// IsFlaggedIssuer returns true if org is subject to the deadline rule.
func (p Policy) IsFlaggedIssuer(org string) bool {
	_, ok := p.flaggedIssuers[org]
	return ok
}

// IsExcluded returns true if the common name must be skipped.
func (p Policy) IsExcluded(commonName string) bool {
	_, ok := p.excludedNames[commonName]
	return ok
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
