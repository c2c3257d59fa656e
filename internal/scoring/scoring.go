// Package scoring computes fantasy points from a normalized stat map.
package scoring

import (
	"strconv"

	"github.com/albapepper/scoracle-gamelogs/internal/provider"
)

// Keys names the canonical stats each scoring input is read from.
type Keys struct {
	PassYds       string
	PassTD        string
	Interceptions string
	RushYds       string
	RushTD        string
	Receptions    string
	RecYds        string
	RecTD         string
	FumblesLost   string
	TwoPoint      string
}

// DefaultKeys returns the stat names used when nothing is configured.
func DefaultKeys() Keys {
	return Keys{
		PassYds:       "passYds",
		PassTD:        "passTD",
		Interceptions: "interceptions",
		RushYds:       "rushYds",
		RushTD:        "rushTD",
		Receptions:    "receptions",
		RecYds:        "recYds",
		RecTD:         "recTD",
		FumblesLost:   "fumblesLost",
		TwoPoint:      "twoPointConversions",
	}
}

// WithOverrides returns a copy of k where every override whose key is a
// default stat name ("passYds", "rushTD", ...) replaces that input's source.
// Unknown override keys are ignored.
func (k Keys) WithOverrides(overrides map[string]string) Keys {
	def := DefaultKeys()
	fields := map[string]*string{
		def.PassYds:       &k.PassYds,
		def.PassTD:        &k.PassTD,
		def.Interceptions: &k.Interceptions,
		def.RushYds:       &k.RushYds,
		def.RushTD:        &k.RushTD,
		def.Receptions:    &k.Receptions,
		def.RecYds:        &k.RecYds,
		def.RecTD:         &k.RecTD,
		def.FumblesLost:   &k.FumblesLost,
		def.TwoPoint:      &k.TwoPoint,
	}
	for name, source := range overrides {
		if f, ok := fields[name]; ok && source != "" {
			*f = source
		}
	}
	return k
}

// Engine scores stat maps. The zero value is not usable; use New.
type Engine struct {
	keys Keys
}

// New returns an engine reading inputs from keys.
func New(keys Keys) Engine {
	return Engine{keys: keys}
}

// Score returns the standard, half-PPR and PPR totals rounded to two
// decimals. Missing and non-numeric inputs contribute zero.
func (e Engine) Score(stats map[string]interface{}) provider.Fantasy {
	g := func(key string) float64 {
		v, _ := provider.ExtractValue(stats[key])
		return v
	}

	std := g(e.keys.PassYds)/25 + g(e.keys.PassTD)*4 - g(e.keys.Interceptions)*2 +
		g(e.keys.RushYds)/10 + g(e.keys.RushTD)*6 +
		g(e.keys.RecYds)/10 + g(e.keys.RecTD)*6 +
		g(e.keys.TwoPoint)*2 - g(e.keys.FumblesLost)*2
	rec := g(e.keys.Receptions)

	return provider.Fantasy{
		Standard: Round2(std),
		HalfPPR:  Round2(std + rec*0.5),
		PPR:      Round2(std + rec*1.0),
	}
}

// Score scores stats with DefaultKeys.
func Score(stats map[string]interface{}) provider.Fantasy {
	return New(DefaultKeys()).Score(stats)
}

// Round2 rounds to two decimals, ties to even on the exact binary value
// (strconv's shortest-correct formatting), so 0.125 → 0.12 and 2.675 → 2.67.
func Round2(x float64) float64 {
	s := strconv.FormatFloat(x, 'f', 2, 64)
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
