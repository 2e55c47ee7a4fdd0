// Package fetcher retrieves sentiment snapshots per filter key and tracks the
// state the dashboard renders: idle, loading, refreshing, success or error.
//
// Requests are split in three steps so that a UI event loop can run the
// network call off its own goroutine:
//
//	st, req := f.Select("AAPL") // or f.Refresh()
//	if req != nil {
//		res := f.Run(ctx, *req) // blocking
//		st, _ = f.Apply(res)
//	}
//
// Apply caches every result under its own key but only the active key's
// results change what State reports, so a late response for a filter the user
// already left is never displayed.
package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"marketpulse/internal/util"
	"marketpulse/pkg/marketpulse"
)

// Source fetches one snapshot. *marketpulse.Client satisfies it.
type Source interface {
	GetSentiment(ctx context.Context, symbol string) (*marketpulse.Snapshot, error)
}

// Request is a fetch the caller must run. Seq orders requests for one key.
type Request struct {
	Key Key
	Seq uint64
}

// Result is the outcome of running a Request.
type Result struct {
	Key       Key
	Seq       uint64
	Snapshot  *marketpulse.Snapshot
	Err       error
	FetchedAt time.Time
}

// Options tune a Fetcher. The zero value disables refresh throttling and
// revalidation on reselect.
type Options struct {
	// RefreshMinInterval is the minimum spacing of forced refreshes per key.
	RefreshMinInterval time.Duration
	// StaleAfter makes reselecting a key with older cached data revalidate
	// it in the background.
	StaleAfter time.Duration
	Logger     *slog.Logger
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

type entry struct {
	snapshot  *marketpulse.Snapshot
	fetchedAt time.Time
	err       error

	inFlight   int
	done       chan struct{} // closed when inFlight drops back to 0
	nextSeq    uint64
	appliedSeq uint64
}

// Fetcher caches snapshots per Key and tracks the active key. It is safe for
// concurrent use.
type Fetcher struct {
	src        Source
	log        *slog.Logger
	now        func() time.Time
	staleAfter time.Duration
	refreshes  *util.KeyedLimiter
	group      singleflight.Group

	mu       sync.Mutex
	selected bool
	active   Key
	entries  map[Key]*entry
}

// New creates a Fetcher reading from src.
func New(src Source, opts Options) *Fetcher {
	f := &Fetcher{
		src:        src,
		log:        opts.Logger,
		now:        opts.Now,
		staleAfter: opts.StaleAfter,
		refreshes:  util.NewKeyedLimiter(opts.RefreshMinInterval),
		entries:    make(map[Key]*entry),
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// State returns the state of the active key.
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// Active returns the active key and whether any key has been selected.
func (f *Fetcher) Active() (Key, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.selected
}

// Select makes filter the active key. It returns the state to show right away
// and, when the key has no usable cached snapshot and nothing in flight, the
// request to run.
func (f *Fetcher) Select(filter string) (State, *Request) {
	key := NormalizeFilter(filter)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.selected = true
	f.active = key
	e := f.entryLocked(key)

	switch {
	case e.inFlight > 0:
		// Reuse the request already running for this key.
	case e.snapshot == nil:
		return f.issueLocked(key, e)
	case f.staleAfter > 0 && f.now().Sub(e.fetchedAt) >= f.staleAfter:
		f.log.Debug("revalidating stale snapshot", "key", key, "age", f.now().Sub(e.fetchedAt))
		return f.issueLocked(key, e)
	}
	return f.stateLocked(), nil
}

// Refresh forces a re-fetch of the active key even when a cached snapshot
// exists. No request is returned before the first Select, while a fetch for
// the key is already in flight, or when the key was refreshed less than
// RefreshMinInterval ago. A failed fetch lifts the interval for its key.
func (f *Fetcher) Refresh() (State, *Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.selected {
		return f.stateLocked(), nil
	}
	key := f.active
	e := f.entryLocked(key)
	if e.inFlight > 0 {
		return f.stateLocked(), nil
	}
	if !f.refreshes.AllowAt(key.String(), f.now()) {
		f.log.Debug("refresh throttled", "key", key)
		return f.stateLocked(), nil
	}
	return f.issueLocked(key, e)
}

// Run performs the network call for req. Concurrent runs for the same key
// share one call.
func (f *Fetcher) Run(ctx context.Context, req Request) Result {
	v, err, shared := f.group.Do(req.Key.String(), func() (any, error) {
		f.log.Info("fetching snapshot", "key", req.Key, "seq", req.Seq)
		return f.src.GetSentiment(ctx, req.Key.Symbol())
	})
	res := Result{Key: req.Key, Seq: req.Seq, Err: err, FetchedAt: f.now()}
	if err != nil {
		f.log.Warn("fetch failed", "key", req.Key, "seq", req.Seq, "shared", shared, "error", err)
		return res
	}
	res.Snapshot, _ = v.(*marketpulse.Snapshot)
	if res.Snapshot == nil {
		res.Err = &marketpulse.FetchError{Err: errors.New("empty response")}
	}
	return res
}

// Apply records res in the cache for its key. The returned bool reports
// whether res changed the displayed state, which requires res.Key to still be
// active and res to be no older than the last result applied for that key.
func (f *Fetcher) Apply(res Result) (State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := f.entryLocked(res.Key)
	if e.inFlight > 0 {
		e.inFlight--
		if e.inFlight == 0 && e.done != nil {
			close(e.done)
			e.done = nil
		}
	}

	if res.Seq < e.appliedSeq {
		f.log.Debug("discarding out-of-order result", "key", res.Key, "seq", res.Seq, "applied", e.appliedSeq)
		return f.stateLocked(), false
	}
	e.appliedSeq = res.Seq

	if res.Err != nil {
		e.snapshot = nil
		e.err = res.Err
		// A failed key may be retried at once.
		f.refreshes.Reset(res.Key.String())
	} else {
		e.snapshot = res.Snapshot
		e.err = nil
		e.fetchedAt = res.FetchedAt
	}

	if !f.selected || res.Key != f.active {
		f.log.Info("cached result for inactive key", "key", res.Key, "active", f.active)
		return f.stateLocked(), false
	}
	return f.stateLocked(), true
}

// Fetch selects filter and blocks until the active key settles, running the
// request itself or waiting for one already in flight.
func (f *Fetcher) Fetch(ctx context.Context, filter string) (State, error) {
	st, req := f.Select(filter)
	if req != nil {
		st, _ = f.Apply(f.Run(ctx, *req))
	} else if st.Busy() {
		f.mu.Lock()
		done := f.entryLocked(st.Key).done
		f.mu.Unlock()
		if done != nil {
			select {
			case <-done:
			case <-ctx.Done():
				return st, ctx.Err()
			}
		}
		st = f.State()
	}
	if st.Status == StatusError {
		return st, st.Err
	}
	return st, nil
}

func (f *Fetcher) entryLocked(key Key) *entry {
	e, ok := f.entries[key]
	if !ok {
		e = &entry{}
		f.entries[key] = e
	}
	return e
}

func (f *Fetcher) issueLocked(key Key, e *entry) (State, *Request) {
	e.nextSeq++
	e.inFlight++
	if e.done == nil {
		e.done = make(chan struct{})
	}
	return f.stateLocked(), &Request{Key: key, Seq: e.nextSeq}
}

func (f *Fetcher) stateLocked() State {
	if !f.selected {
		return State{Status: StatusIdle}
	}
	st := State{Key: f.active}
	e, ok := f.entries[f.active]
	if !ok {
		return st
	}

	switch {
	case e.inFlight > 0 && e.snapshot != nil:
		st.Status = StatusRefreshing
		st.Snapshot = e.snapshot
		st.FetchedAt = e.fetchedAt
	case e.inFlight > 0:
		st.Status = StatusLoading
	case e.err != nil:
		st.Status = StatusError
		st.Err = e.err
	case e.snapshot != nil:
		st.Status = StatusSuccess
		st.Snapshot = e.snapshot
		st.FetchedAt = e.fetchedAt
	default:
		st.Status = StatusLoading
	}
	return st
}
