package marketpulse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is one point-in-time sentiment result for a filter. It is treated
// as immutable once decoded: a new fetch produces a new Snapshot.
type Snapshot struct {
	AsOf         Timestamp `json:"as_of"`
	OverallLabel string    `json:"overall_label"`
	AverageScore float64   `json:"average_score"`
	Breakdown    Breakdown `json:"breakdown"`
	Articles     []Article `json:"articles" validate:"dive"`
}

// wireSnapshot is the decoding form of Snapshot. Every top-level field must
// be present, so a null or foreign body fails validation instead of decoding
// into a zero Snapshot.
type wireSnapshot struct {
	AsOf         *Timestamp `json:"as_of" validate:"required"`
	OverallLabel *string    `json:"overall_label" validate:"required"`
	AverageScore *float64   `json:"average_score" validate:"required"`
	Breakdown    *Breakdown `json:"breakdown" validate:"required"`
	Articles     []Article  `json:"articles" validate:"required,dive"`
}

func (w *wireSnapshot) snapshot() *Snapshot {
	return &Snapshot{
		AsOf:         *w.AsOf,
		OverallLabel: *w.OverallLabel,
		AverageScore: *w.AverageScore,
		Breakdown:    *w.Breakdown,
		Articles:     w.Articles,
	}
}

// Breakdown counts articles per sentiment class.
type Breakdown struct {
	Positive int `json:"positive" validate:"gte=0"`
	Neutral  int `json:"neutral" validate:"gte=0"`
	Negative int `json:"negative" validate:"gte=0"`
}

// Total returns the sum of all three classes.
func (b Breakdown) Total() int {
	return b.Positive + b.Neutral + b.Negative
}

// Article is a news article scored by the backend. URL doubles as the
// article's identity in lists.
type Article struct {
	Title          string     `json:"title" validate:"required"`
	Description    string     `json:"description,omitempty"`
	URL            string     `json:"url" validate:"required"`
	Source         string     `json:"source,omitempty"`
	PublishedAt    *Timestamp `json:"published_at,omitempty"`
	SentimentLabel string     `json:"sentiment_label"`
	SentimentScore float64    `json:"sentiment_score"`
}

// zonelessLayout matches naive ISO-8601 datetimes, which are read as UTC.
const zonelessLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is an ISO-8601 instant. It accepts RFC 3339 with or without
// fractional seconds, and zone-less values which are taken to be UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp parses an ISO-8601 timestamp as sent by the sentiment API.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(zonelessLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
