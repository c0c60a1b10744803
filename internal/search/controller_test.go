package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/countryscope/internal/country"
)

// fakeFetcher records calls and optionally blocks per query.
type fakeFetcher struct {
	mu     sync.Mutex
	calls  []string
	gates  map[string]chan struct{}
	panics bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{gates: make(map[string]chan struct{})}
}

// gate makes lookups for q block until the returned channel is closed.
func (f *fakeFetcher) gate(q string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[q] = ch
	return ch
}

func (f *fakeFetcher) CountryDetails(_ context.Context, name string) country.ResultSet {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	gate := f.gates[name]
	shouldPanic := f.panics
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if shouldPanic {
		panic("fetcher bug")
	}
	return country.ResultSet{{Name: country.Name{Common: name}}}
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func waitResult(t *testing.T, c *Controller) Result {
	t.Helper()
	select {
	case r := <-c.Results():
		return r
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for result")
		return Result{}
	}
}

func assertNoResult(t *testing.T, c *Controller, wait time.Duration) {
	t.Helper()
	select {
	case r := <-c.Results():
		t.Fatalf("unexpected result for %q", r.Query)
	case <-time.After(wait):
	}
}

func TestController_BlankQueryEmitsEmptyWithoutFetching(t *testing.T) {
	for _, q := range []string{"", "   ", "\t"} {
		// Given: a controller
		f := newFakeFetcher()
		c := NewController(f, 20*time.Millisecond)

		// When: a blank query settles
		c.SetQuery(q)
		r := waitResult(t, c)

		// Then: an empty result is emitted and nothing is fetched
		assert.Empty(t, r.Countries)
		assert.NotNil(t, r.Countries)
		assert.Empty(t, f.Calls())
		c.Stop()
	}
}

func TestController_TrimsQueryBeforeFetching(t *testing.T) {
	f := newFakeFetcher()
	c := NewController(f, 20*time.Millisecond)
	defer c.Stop()

	c.SetQuery("  France ")
	r := waitResult(t, c)

	assert.Equal(t, "France", r.Query)
	assert.Equal(t, []string{"France"}, f.Calls())
	require.Len(t, r.Countries, 1)
}

func TestController_BurstProducesSingleEvaluation(t *testing.T) {
	// Given: a controller with a 100ms quiet period
	f := newFakeFetcher()
	c := NewController(f, 100*time.Millisecond)
	defer c.Stop()

	// When: five edits arrive well inside the window
	for _, q := range []string{"f", "fr", "fra", "fran", "franc"} {
		c.SetQuery(q)
		time.Sleep(10 * time.Millisecond)
	}

	// Then: exactly one evaluation happens, for the last value
	r := waitResult(t, c)
	assert.Equal(t, "franc", r.Query)
	assertNoResult(t, c, 200*time.Millisecond)
	assert.Equal(t, []string{"franc"}, f.Calls())
}

func TestController_QueriesWithinWindowCollapse(t *testing.T) {
	f := newFakeFetcher()
	c := NewController(f, 50*time.Millisecond)
	defer c.Stop()

	c.SetQuery("a")
	c.SetQuery("ab")

	r := waitResult(t, c)
	assert.Equal(t, "ab", r.Query)
	assert.Equal(t, []string{"ab"}, f.Calls())
}

func TestController_SwitchToLatestDiscardsStaleResponse(t *testing.T) {
	// Given: "a" is slow to answer
	f := newFakeFetcher()
	releaseA := f.gate("a")
	c := NewController(f, 20*time.Millisecond)
	defer c.Stop()

	// When: "a" settles and starts fetching, then "ab" settles and answers first
	c.SetQuery("a")
	require.Eventually(t, func() bool { return len(f.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	c.SetQuery("ab")
	r := waitResult(t, c)
	require.Equal(t, "ab", r.Query)

	// And: "a"'s response arrives late
	close(releaseA)

	// Then: two calls happened but only "ab" was ever observed
	assertNoResult(t, c, 100*time.Millisecond)
	assert.Equal(t, []string{"a", "ab"}, f.Calls())
	assert.Equal(t, "ab", c.Latest().Query)
}

func TestController_BlankQuerySupersedesInFlightLookup(t *testing.T) {
	f := newFakeFetcher()
	release := f.gate("peru")
	c := NewController(f, 20*time.Millisecond)
	defer c.Stop()

	c.SetQuery("peru")
	require.Eventually(t, func() bool { return len(f.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	c.SetQuery("")
	r := waitResult(t, c)
	assert.Empty(t, r.Countries)

	close(release)
	assertNoResult(t, c, 100*time.Millisecond)
	assert.Equal(t, "", c.Latest().Query)
}

func TestController_PanickingFetcherEmitsEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.panics = true
	c := NewController(f, 20*time.Millisecond)
	defer c.Stop()

	c.SetQuery("france")
	r := waitResult(t, c)

	assert.Equal(t, "france", r.Query)
	assert.Empty(t, r.Countries)
}

func TestController_FlushSkipsQuietPeriod(t *testing.T) {
	f := newFakeFetcher()
	c := NewController(f, time.Hour)
	defer c.Stop()

	c.SetQuery("chile")
	c.Flush()

	r := waitResult(t, c)
	assert.Equal(t, "chile", r.Query)
	assert.Equal(t, "chile", c.Query())
}

func TestController_SlowReaderSeesLatest(t *testing.T) {
	f := newFakeFetcher()
	c := NewController(f, 10*time.Millisecond)
	defer c.Stop()

	// Nobody reads while two evaluations complete
	c.SetQuery("peru")
	require.Eventually(t, func() bool { return c.Latest().Query == "peru" }, time.Second, 5*time.Millisecond)
	c.SetQuery("chile")
	require.Eventually(t, func() bool { return c.Latest().Query == "chile" }, time.Second, 5*time.Millisecond)

	r := waitResult(t, c)
	assert.Equal(t, "chile", r.Query)
}

func TestController_StopClosesResultsAndIgnoresEdits(t *testing.T) {
	f := newFakeFetcher()
	c := NewController(f, 10*time.Millisecond)

	c.Stop()
	c.Stop()
	c.SetQuery("france")
	c.Flush()

	_, open := <-c.Results()
	assert.False(t, open)
	assert.Empty(t, f.Calls())
}

func TestNewController_DefaultWindow(t *testing.T) {
	c := NewController(newFakeFetcher(), 0)
	defer c.Stop()

	assert.Equal(t, DefaultDebounce, c.window)
	assert.Empty(t, c.Latest().Countries)
}
