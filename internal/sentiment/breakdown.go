package sentiment

import "marketpulse/pkg/marketpulse"

// Class is one of the three fixed sentiment classes.
type Class string

const (
	Positive Class = "positive"
	Neutral  Class = "neutral"
	Negative Class = "negative"
)

// Title returns the capitalized class name used in headings.
func (c Class) Title() string {
	switch c {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return "Neutral"
	}
}

// Segment is one class of a normalized breakdown.
type Segment struct {
	Class   Class
	Label   string // display name, e.g. "Positive"
	Count   int
	Percent int
}

// PercentLabel renders Percent as "33%".
func (s Segment) PercentLabel() string {
	return formatPercent(s.Percent)
}

// Normalize converts breakdown counts into segments in the fixed order
// positive, neutral, negative. Each percent is round(count/total*100),
// rounded independently, so the three need not sum to 100. A zero total
// yields zero percents.
func Normalize(b marketpulse.Breakdown) []Segment {
	total := b.Total()
	segs := []Segment{
		{Class: Positive, Label: Positive.Title(), Count: b.Positive},
		{Class: Neutral, Label: Neutral.Title(), Count: b.Neutral},
		{Class: Negative, Label: Negative.Title(), Count: b.Negative},
	}
	if total == 0 {
		return segs
	}
	for i := range segs {
		segs[i].Percent = roundHalfUp(float64(segs[i].Count) / float64(total) * 100)
	}
	return segs
}

// NonZero returns the segments with a positive count, preserving order.
func NonZero(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Count > 0 {
			out = append(out, s)
		}
	}
	return out
}
