package metrics

import "sync/atomic"

// Counter counts occurrences of an event.
type Counter struct {
	name string
	n    atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc adds one.
func (c *Counter) Inc() {
	if !enabled {
		return
	}
	c.n.Add(1)
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Value returns the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Reset sets the count to zero.
func (c *Counter) Reset() { c.n.Store(0) }

// Event counters.
var (
	StaleResponses = newCounter("stale_responses")
	TransportErrs  = newCounter("transport_errors")
	TreeReloads    = newCounter("tree_reloads")
	NodesDeleted   = newCounter("nodes_deleted")
)

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{StaleResponses, TransportErrs, TreeReloads, NodesDeleted}
}

// Snapshot is the JSON document served at /api/metrics.
type Snapshot struct {
	Enabled  bool             `json:"enabled"`
	Timings  []TimingStats    `json:"timings"`
	Counters map[string]int64 `json:"counters"`
}

// Take captures the current values of every metric.
func Take() Snapshot {
	counters := make(map[string]int64, len(AllCounters()))
	for _, c := range AllCounters() {
		counters[c.Name()] = c.Value()
	}
	return Snapshot{
		Enabled:  Enabled(),
		Timings:  AllTimingStats(),
		Counters: counters,
	}
}
