package sentiment

import (
	"strings"
	"time"

	"marketpulse/pkg/marketpulse"
)

// overallThreshold is the distance from zero the average must exceed before
// the overall label leaves "neutral".
const overallThreshold = 0.05

var labelWeights = map[Class]float64{
	Positive: 1,
	Neutral:  0,
	Negative: -1,
}

// modelLabels maps raw classifier labels onto the three classes.
var modelLabels = map[string]Class{
	"positive": Positive,
	"neutral":  Neutral,
	"negative": Negative,
	"label_0":  Negative,
	"label_1":  Neutral,
	"label_2":  Positive,
}

// NormalizeLabel maps a raw classifier label onto a class. Unrecognised
// labels become Neutral.
func NormalizeLabel(raw string) Class {
	if c, ok := modelLabels[strings.ToLower(raw)]; ok {
		return c
	}
	return Neutral
}

// OverallLabel classifies an average score as positive, negative or neutral.
func OverallLabel(average float64) Class {
	switch {
	case average > overallThreshold:
		return Positive
	case average < -overallThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Aggregate builds a snapshot from already-scored articles. Labels are
// normalized, each article contributes weight(label) * score to the average,
// and the breakdown counts articles per class. Article order is preserved.
func Aggregate(articles []marketpulse.Article, asOf time.Time) marketpulse.Snapshot {
	snap := marketpulse.Snapshot{
		AsOf:         marketpulse.NewTimestamp(asOf),
		OverallLabel: string(Neutral),
		Articles:     make([]marketpulse.Article, 0, len(articles)),
	}
	if len(articles) == 0 {
		return snap
	}

	var total float64
	for _, a := range articles {
		c := NormalizeLabel(a.SentimentLabel)
		a.SentimentLabel = string(c)
		switch c {
		case Positive:
			snap.Breakdown.Positive++
		case Negative:
			snap.Breakdown.Negative++
		default:
			snap.Breakdown.Neutral++
		}
		total += labelWeights[c] * a.SentimentScore
		snap.Articles = append(snap.Articles, a)
	}

	snap.AverageScore = total / float64(len(articles))
	snap.OverallLabel = string(OverallLabel(snap.AverageScore))
	return snap
}
