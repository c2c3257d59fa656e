package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

func TestScoreScenario(t *testing.T) {
	stats := map[string]interface{}{
		"passYds":             300,
		"passTD":              3,
		"interceptions":       1,
		"rushYds":             50,
		"rushTD":              0,
		"receptions":          5,
		"recYds":              60,
		"recTD":               1,
		"fumblesLost":         0,
		"twoPointConversions": 0,
	}
	got := Score(stats)
	require.Equal(t, provider.Fantasy{Standard: 39.00, HalfPPR: 41.50, PPR: 44.00}, got)
	require.Equal(t, got, Score(stats), "score must be deterministic")
}

func TestScoreIgnoresMissingAndNonNumeric(t *testing.T) {
	got := Score(map[string]interface{}{
		"passYds":    "DNP",
		"rushYds":    "12",
		"recYds":     31,
		"receptions": 3.0,
	})
	require.Equal(t, provider.Fantasy{Standard: 3.1, HalfPPR: 4.6, PPR: 6.1}, got)
	require.Equal(t, provider.Fantasy{}, Score(nil))
}

func TestScoreNegative(t *testing.T) {
	got := Score(map[string]interface{}{"interceptions": 2, "fumblesLost": 1, "twoPointConversions": 1})
	require.Equal(t, -4.0, got.Standard)
}

func TestRound2HalfEven(t *testing.T) {
	require.Equal(t, 0.12, Round2(0.125))
	require.Equal(t, 0.38, Round2(0.375))
	require.Equal(t, 2.67, Round2(2.675))
	require.Equal(t, 12.04, Round2(301.0/25))
	require.Equal(t, -1.5, Round2(-1.5))
}

func TestOverrides(t *testing.T) {
	keys := DefaultKeys().WithOverrides(map[string]string{
		"passYds": "Yds",
		"rushYds": "ruYds",
		"bogus":   "x",
	})
	require.Equal(t, "Yds", keys.PassYds)
	require.Equal(t, "ruYds", keys.RushYds)
	require.Equal(t, "passTD", keys.PassTD)

	got := New(keys).Score(map[string]interface{}{"Yds": 250, "ruYds": 20})
	require.Equal(t, 12.0, got.Standard)
}
