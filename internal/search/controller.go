// Package search turns a stream of query edits into a stream of result sets.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Aman-CERP/countryscope/internal/country"
)

// DefaultDebounce is the quiet period required before a query is evaluated.
const DefaultDebounce = 300 * time.Millisecond

// Fetcher answers a non-empty query. Implementations are expected to
// absorb their own errors; the Controller still guards against panics.
type Fetcher interface {
	CountryDetails(ctx context.Context, name string) country.ResultSet
}

// Result is one emitted evaluation: the trimmed query and its countries.
type Result struct {
	Query     string
	Countries country.ResultSet
}

// Controller debounces query edits and evaluates only the latest settled
// query. When a newer query settles, any evaluation still running for an
// older one is cancelled and its outcome discarded.
type Controller struct {
	fetcher Fetcher
	window  time.Duration

	mu         sync.Mutex
	query      string
	edits      uint64 // bumped per SetQuery; stale timers compare against it
	generation uint64 // bumped per settled query; stale evaluations compare against it
	timer      *time.Timer
	cancel     context.CancelFunc
	latest     Result
	output     chan Result
	stopped    bool

	root     context.Context
	stopRoot context.CancelFunc
	wg       sync.WaitGroup
}

// NewController creates a controller. A non-positive window uses DefaultDebounce.
func NewController(fetcher Fetcher, window time.Duration) *Controller {
	if window <= 0 {
		window = DefaultDebounce
	}
	root, stop := context.WithCancel(context.Background())
	return &Controller{
		fetcher:  fetcher,
		window:   window,
		latest:   Result{Countries: country.Empty()},
		output:   make(chan Result, 1),
		root:     root,
		stopRoot: stop,
	}
}

// SetQuery records an edit and restarts the debounce timer.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	c.query = text
	c.edits++
	edit := c.edits

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, func() {
		c.settle(edit)
	})
}

// Flush evaluates the current query now, skipping the rest of the quiet period.
func (c *Controller) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.settleLocked()
}

// Query returns the most recent raw query text.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Results returns the channel of evaluations. It holds at most one value:
// an unread result is replaced by a newer one, so a slow reader always
// sees the latest state. The channel is closed by Stop.
func (c *Controller) Results() <-chan Result {
	return c.output
}

// Latest returns the most recently emitted result.
func (c *Controller) Latest() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Stop cancels pending work and closes the results channel.
// Safe to call multiple times.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.stopRoot()
	c.mu.Unlock()

	c.wg.Wait()
	close(c.output)
}

// settle runs when the debounce timer for edit fires.
func (c *Controller) settle(edit uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer edit restarted the window after this timer had already fired.
	if c.stopped || edit != c.edits {
		return
	}
	c.settleLocked()
}

func (c *Controller) settleLocked() {
	c.generation++
	gen := c.generation

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	q := strings.TrimSpace(c.query)
	if q == "" {
		c.emitLocked(Result{Countries: country.Empty()})
		return
	}

	ctx, cancel := context.WithCancel(c.root)
	c.cancel = cancel
	c.wg.Add(1)
	go c.evaluate(ctx, gen, q)
}

func (c *Controller) evaluate(ctx context.Context, gen uint64, q string) {
	defer c.wg.Done()

	start := time.Now()
	rs := c.lookup(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || gen != c.generation {
		slog.Debug("search_result_discarded", slog.String("query", q))
		return
	}
	slog.Debug("search_result",
		slog.String("query", q),
		slog.Int("results", len(rs)),
		slog.Duration("elapsed", time.Since(start)))
	c.emitLocked(Result{Query: q, Countries: rs})
}

// lookup calls the fetcher; nothing it does can escape as a fault.
func (c *Controller) lookup(ctx context.Context, q string) (rs country.ResultSet) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("search_fetch_panic",
				slog.String("query", q),
				slog.String("error", fmt.Sprint(r)))
			rs = country.Empty()
		}
	}()

	rs = c.fetcher.CountryDetails(ctx, q)
	if rs == nil {
		rs = country.Empty()
	}
	return rs
}

// emitLocked publishes r, replacing any unread value. Caller holds c.mu.
func (c *Controller) emitLocked(r Result) {
	c.latest = r
	select {
	case <-c.output:
	default:
	}
	c.output <- r
}
