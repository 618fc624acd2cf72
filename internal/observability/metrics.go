package observability

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	startedAt    time.Time
	requestCount map[string]int64
	errorCount   map[string]int64
	latencyTotal map[string]time.Duration
}

// Counter is one labelled counter in a snapshot.
type Counter struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds int64     `json:"uptime_seconds"`
	Requests      []Counter `json:"requests"`
	Errors        []Counter `json:"errors"`
	TotalRequests int64     `json:"total_requests"`
	TotalErrors   int64     `json:"total_errors"`
	AvgLatencyMS  float64   `json:"avg_latency_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt:    time.Now(),
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := counterKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := counterKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the current counters, sorted by path, method and label.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.startedAt).Seconds()),
		Requests:      counters(m.requestCount),
		Errors:        counters(m.errorCount),
	}
	var latency time.Duration
	for key, n := range m.requestCount {
		snap.TotalRequests += n
		latency += m.latencyTotal[key]
	}
	for _, n := range m.errorCount {
		snap.TotalErrors += n
	}
	if snap.TotalRequests > 0 {
		snap.AvgLatencyMS = float64(latency.Microseconds()) / 1000 / float64(snap.TotalRequests)
	}
	return snap
}

func counters(src map[string]int64) []Counter {
	out := make([]Counter, 0, len(src))
	for key, n := range src {
		parts := strings.SplitN(key, "|", 3)
		out = append(out, Counter{Path: parts[0], Method: parts[1], Label: parts[2], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func counterKey(path, method, label string) string {
	return path + "|" + method + "|" + label
}
