package sentiment

import (
	"strings"

	"marketpulse/pkg/marketpulse"
)

// Badge is the per-article qualitative label plus a confidence percentage.
type Badge struct {
	Name       string
	Class      Class
	Confidence int
}

// String renders the chip text, e.g. "Bullish | 87%".
func (b Badge) String() string {
	return b.Name + " | " + formatPercent(b.Confidence)
}

var badgeNames = map[Class]string{
	Positive: "Bullish",
	Neutral:  "Neutral",
	Negative: "Bearish",
}

// ClassOf maps a free-form sentiment label to a class, case-insensitively.
// Unknown labels map to Neutral.
func ClassOf(label string) Class {
	c := Class(strings.ToLower(label))
	if _, ok := badgeNames[c]; ok {
		return c
	}
	return Neutral
}

// MapBadge resolves the badge for an article's label and score. Confidence is
// round(score*100) with no clamping, so out-of-range scores show as-is.
func MapBadge(label string, score float64) Badge {
	c := ClassOf(label)
	return Badge{
		Name:       badgeNames[c],
		Class:      c,
		Confidence: roundHalfUp(score * 100),
	}
}

// ArticleBadge is MapBadge applied to a scored article.
func ArticleBadge(a marketpulse.Article) Badge {
	return MapBadge(a.SentimentLabel, a.SentimentScore)
}
