// Package lookup caches country lookups in front of the upstream API.
//
// A Fetcher answers repeated queries from a bounded, optionally expiring
// LRU cache and coalesces concurrent misses for the same key into a single
// upstream request. Its contract is that callers never see an error: every
// failure mode (transport, status, payload, cancellation) degrades to an
// empty result set and is reported only through the log and Stats.
//
// Result sets returned by a Fetcher are shared with the cache and with
// other callers and must be treated as read-only.
package lookup
