package fetcher

import (
	"log/slog"
	"strings"
	"time"

	"marketpulse/pkg/marketpulse"
)

// Key identifies one logical query: a normalized symbol filter, or no filter.
// The zero Key is Unfiltered.
type Key struct {
	symbol string
}

// Unfiltered is the key of the default snapshot.
var Unfiltered = Key{}

// NormalizeFilter turns user input into a Key. Surrounding whitespace is
// trimmed; blank input means no filter. Case is preserved.
func NormalizeFilter(filter string) Key {
	return Key{symbol: strings.TrimSpace(filter)}
}

// Symbol returns the filter value sent to the API, "" when unfiltered.
func (k Key) Symbol() string { return k.symbol }

// IsUnfiltered reports whether k requests the default snapshot.
func (k Key) IsUnfiltered() bool { return k.symbol == "" }

// String returns the cache key, "sentiment" or "sentiment:<symbol>".
func (k Key) String() string {
	if k.symbol == "" {
		return "sentiment"
	}
	return "sentiment:" + k.symbol
}

// LogValue implements slog.LogValuer.
func (k Key) LogValue() slog.Value {
	return slog.StringValue(k.String())
}

// Status is the observable phase of the active key.
type Status int

const (
	// StatusIdle means no filter has been selected yet.
	StatusIdle Status = iota
	// StatusLoading means the first fetch for the key is in flight.
	StatusLoading
	// StatusRefreshing means a fetch is in flight while earlier data for the
	// same key is still shown.
	StatusRefreshing
	// StatusSuccess means a snapshot is available.
	StatusSuccess
	// StatusError means the last fetch for the key failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusRefreshing:
		return "refreshing"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is what the presentation layer renders. Snapshot is set only for
// StatusSuccess and StatusRefreshing; Err only for StatusError.
type State struct {
	Key       Key
	Status    Status
	Snapshot  *marketpulse.Snapshot
	Err       error
	FetchedAt time.Time
}

// Busy reports whether a fetch for the key is in flight.
func (s State) Busy() bool {
	return s.Status == StatusLoading || s.Status == StatusRefreshing
}

// HasData reports whether derived values may be rendered from Snapshot.
func (s State) HasData() bool {
	return s.Snapshot != nil && (s.Status == StatusSuccess || s.Status == StatusRefreshing)
}
