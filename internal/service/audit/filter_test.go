package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

func TestFilterHostname(t *testing.T) {
	t.Parallel()

	policy := entities.NewPolicy(time.Time{}, nil, []string{"skip.example.com", "not a hostname"})

	for name, want := range map[string]Verdict{
		"skip.example.com":      Excluded,
		"not a hostname":        Excluded,
		"good.example.com":      Proceed,
		"localhost":             Proceed,
		"xn--bcher-kva.example": Proceed,
		"*.example.com":         Proceed,
		"*example.com":          Proceed,
		"*.wild card!":          Invalid,
		"":                      Invalid,
		"*":                     Invalid,
		".example.com":          Invalid,
		"example.com.":          Invalid,
		"a..example.com":        Invalid,
		"under_score.com":       Invalid,
		"Skip.example.com":      Proceed,
	} {
		require.Equal(t, want, FilterHostname(name, policy), name)
	}
}

func TestVerdictString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "proceed", Proceed.String())
	require.Equal(t, "excluded", Excluded.String())
	require.Equal(t, "invalid", Invalid.String())
}
