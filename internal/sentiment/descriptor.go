// Package sentiment derives display facts from a sentiment snapshot: a
// qualitative descriptor for the average score, normalized breakdown
// percentages and per-article badges. Every function here is pure.
package sentiment

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Descriptor is the qualitative reading of an average sentiment score.
// Level runs from -3 (strongly negative) to +3 (strongly positive).
type Descriptor struct {
	Label string
	Copy  string
	Level int
}

// band maps the half-open score range [min, max) to a descriptor.
type band struct {
	min, max   float64
	descriptor Descriptor
}

// descriptorBands is ordered and covers the whole real line.
var descriptorBands = []band{
	{math.Inf(-1), -0.4, Descriptor{
		Label: "Strongly Negative Bias",
		Copy:  "Decisively bearish tone with risk-off headlines dominating coverage.",
		Level: -3,
	}},
	{-0.4, -0.15, Descriptor{
		Label: "Negative Bias",
		Copy:  "Bearish undertone is showing across the latest reporting.",
		Level: -2,
	}},
	{-0.15, -0.025, Descriptor{
		Label: "Slightly Negative Bias",
		Copy:  "Mildly bearish sentiment with a modest tilt toward caution.",
		Level: -1,
	}},
	{-0.025, 0.025, Descriptor{
		Label: "Neutral Bias",
		Copy:  "Balanced tone with bullish and bearish narratives offsetting each other.",
		Level: 0,
	}},
	{0.025, 0.15, Descriptor{
		Label: "Slightly Positive Bias",
		Copy:  "Subtle bullish lean emerging in the recent headlines.",
		Level: 1,
	}},
	{0.15, 0.4, Descriptor{
		Label: "Positive Bias",
		Copy:  "Constructive sentiment with risk-on narratives gaining traction.",
		Level: 2,
	}},
	{0.4, math.Inf(1), Descriptor{
		Label: "Strongly Positive Bias",
		Copy:  "Decisively bullish momentum fueled by upbeat coverage.",
		Level: 3,
	}},
}

// ResolveDescriptor returns the descriptor of the first band with
// min <= score < max. A score that matches no band (NaN, +Inf) resolves to
// the last band.
func ResolveDescriptor(score float64) Descriptor {
	for _, b := range descriptorBands {
		if score >= b.min && score < b.max {
			return b.descriptor
		}
	}
	return descriptorBands[len(descriptorBands)-1].descriptor
}

// Descriptors returns the full band table in order, lowest band first.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptorBands))
	for i, b := range descriptorBands {
		out[i] = b.descriptor
	}
	return out
}

// FormatScore renders score with two decimals, rounding half away from zero.
func FormatScore(score float64) string {
	switch {
	case math.IsNaN(score):
		return "NaN"
	case math.IsInf(score, 1):
		return "+Inf"
	case math.IsInf(score, -1):
		return "-Inf"
	}
	// decimal works from the shortest representation of score, so 1.005
	// rounds to 1.01 rather than falling to the binary value below it.
	return decimal.NewFromFloat(score).StringFixed(2)
}

// roundHalfUp rounds half toward positive infinity (-0.5 -> 0, 0.5 -> 1).
// Non-finite input yields 0.
func roundHalfUp(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}

func formatPercent(n int) string {
	return strconv.Itoa(n) + "%"
}
