package audit

import (
	"regexp"
	"strings"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

// Verdict is the result of the hostname gate.
type Verdict int

// Possible gate verdicts.
const (
	Proceed Verdict = iota
	Excluded
	Invalid
)

// String returns string representation of the Verdict.
func (v Verdict) String() string {
	switch v {
	case Proceed:
		return "proceed"
	case Excluded:
		return "excluded"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// hostnamePattern accepts dot separated labels of alphanumerics and
// hyphens, optionally prefixed with a wildcard marker.
var hostnamePattern = regexp.MustCompile(`^(\*\.?)?[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)*$`)

// FilterHostname decides whether a common name enters the audit.
// Exclusion is checked first so excluded names never cost a lookup.
func FilterHostname(name string, policy entities.Policy) Verdict {
	if policy.IsExcluded(name) {
		return Excluded
	}
	if !hostnamePattern.MatchString(name) {
		return Invalid
	}

	return Proceed
}

func isWildcard(name string) bool {
	return strings.HasPrefix(name, "*")
}
