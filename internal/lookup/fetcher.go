package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/countryscope/internal/country"
	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
)

// DefaultCacheSize is the default number of distinct queries kept.
const DefaultCacheSize = 256

// Source fetches countries matching a name from upstream.
type Source interface {
	SearchByName(ctx context.Context, name string) (country.ResultSet, error)
}

// Outcome classifies how a lookup was answered.
type Outcome string

const (
	OutcomeHit       Outcome = "hit"
	OutcomeFetched   Outcome = "fetched"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
)

// Observer receives one call per completed CountryDetails.
type Observer interface {
	ObserveLookup(outcome Outcome, elapsed time.Duration)
}

// Options configures a Fetcher.
type Options struct {
	// CacheSize bounds the number of cached queries (default 256).
	CacheSize int
	// CacheTTL expires entries after this long; zero keeps them until evicted.
	CacheTTL time.Duration
	// FoldCase lower-cases cache keys so "France" and "france" share an entry.
	FoldCase bool
	// Observer is notified of each lookup outcome. Optional.
	Observer Observer
}

// Stats is a snapshot of Fetcher counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Fetches   int64 `json:"fetches"`
	// NoMatch counts upstream "no country matches" answers; they are not failures.
	NoMatch   int64 `json:"no_match"`
	Failures  int64 `json:"failures"`
	Shared    int64 `json:"shared"`
	Abandoned int64 `json:"abandoned"`
	Entries   int   `json:"entries"`
}

// Fetcher is the lookup cache in front of a Source.
type Fetcher struct {
	source   Source
	cache    *expirable.LRU[string, country.ResultSet]
	group    singleflight.Group
	foldCase bool
	observer Observer

	hits      atomic.Int64
	misses    atomic.Int64
	fetches   atomic.Int64
	noMatch   atomic.Int64
	failures  atomic.Int64
	shared    atomic.Int64
	abandoned atomic.Int64
}

// New creates a Fetcher over source.
func New(source Source, opts Options) *Fetcher {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	return &Fetcher{
		source:   source,
		cache:    expirable.NewLRU[string, country.ResultSet](opts.CacheSize, nil, opts.CacheTTL),
		foldCase: opts.FoldCase,
		observer: opts.Observer,
	}
}

// CountryDetails returns the countries matching name, from cache when
// present. It never fails: any error yields an empty result set, which is
// not cached. If ctx is cancelled while the upstream request is still in
// flight, the caller stops waiting but the request completes and fills the
// cache for whoever asks next.
func (f *Fetcher) CountryDetails(ctx context.Context, name string) country.ResultSet {
	start := time.Now()
	if strings.TrimSpace(name) == "" {
		return country.Empty()
	}

	key := f.key(name)
	if rs, ok := f.cache.Get(key); ok {
		f.hits.Add(1)
		f.observe(OutcomeHit, start)
		slog.Debug("lookup_cache_hit", slog.String("query", name), slog.Int("results", len(rs)))
		return rs
	}
	f.misses.Add(1)

	// The flight outlives any single caller; only the source's own timeout bounds it.
	flightCtx := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		return f.fetch(flightCtx, key, name)
	})

	select {
	case <-ctx.Done():
		f.abandoned.Add(1)
		f.observe(OutcomeAbandoned, start)
		slog.Debug("lookup_abandoned", slog.String("query", name))
		return country.Empty()
	case res := <-ch:
		if res.Shared {
			f.shared.Add(1)
		}
		if res.Err != nil {
			if scerrors.IsNotFound(res.Err) {
				f.observe(OutcomeNoMatch, start)
				return country.Empty()
			}
			f.observe(OutcomeFailed, start)
			return country.Empty()
		}
		f.observe(OutcomeFetched, start)
		return res.Val.(country.ResultSet)
	}
}

// fetch runs once per in-flight key.
func (f *Fetcher) fetch(ctx context.Context, key, name string) (rs country.ResultSet, err error) {
	// A flight that finished between our cache check and DoChan already stored it.
	if cached, ok := f.cache.Get(key); ok {
		return cached, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = scerrors.New(scerrors.ErrCodeLookupFailed, "lookup source panicked", fmt.Errorf("%v", r))
			f.failures.Add(1)
			slog.Error("lookup_panic", append([]any{slog.String("query", name)}, scerrors.LogAttrs(err)...)...)
		}
	}()

	f.fetches.Add(1)
	rs, err = f.source.SearchByName(ctx, name)
	if err != nil {
		if scerrors.IsNotFound(err) {
			f.noMatch.Add(1)
			slog.Debug("lookup_no_match", slog.String("query", name))
		} else {
			f.failures.Add(1)
			slog.Warn("lookup_failed", append([]any{slog.String("query", name)}, scerrors.LogAttrs(err)...)...)
		}
		return nil, err
	}
	if rs == nil {
		rs = country.Empty()
	}

	f.cache.Add(key, rs)
	slog.Debug("lookup_cached", slog.String("query", name), slog.Int("results", len(rs)))
	return rs, nil
}

func (f *Fetcher) key(name string) string {
	if f.foldCase {
		return strings.ToLower(name)
	}
	return name
}

func (f *Fetcher) observe(outcome Outcome, start time.Time) {
	if f.observer != nil {
		f.observer.ObserveLookup(outcome, time.Since(start))
	}
}

// Stats returns a snapshot of the counters.
func (f *Fetcher) Stats() Stats {
	return Stats{
		Hits:      f.hits.Load(),
		Misses:    f.misses.Load(),
		Fetches:   f.fetches.Load(),
		NoMatch:   f.noMatch.Load(),
		Failures:  f.failures.Load(),
		Shared:    f.shared.Load(),
		Abandoned: f.abandoned.Load(),
		Entries:   f.cache.Len(),
	}
}

// Purge drops every cached entry.
func (f *Fetcher) Purge() {
	f.cache.Purge()
}
