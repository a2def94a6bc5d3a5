package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	requestsSubmittedTotal atomic.Uint64
	requestsCompletedTotal atomic.Uint64
	requestsFailedTotal    atomic.Uint64
	packagesBuiltTotal     atomic.Uint64
	downloadsServedTotal   atomic.Uint64

	packagingDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncSubmitted increments the submitted-requests counter.
func IncSubmitted() {
	requestsSubmittedTotal.Add(1)
}

// IncCompleted increments the completed-requests counter.
func IncCompleted() {
	requestsCompletedTotal.Add(1)
}

// IncFailed increments the failed-requests counter.
func IncFailed() {
	requestsFailedTotal.Add(1)
}

// IncPackageBuilt increments the assembled-packages counter.
func IncPackageBuilt() {
	packagesBuiltTotal.Add(1)
}

// IncDownloadServed increments the served-downloads counter.
func IncDownloadServed() {
	downloadsServedTotal.Add(1)
}

// ObservePackagingDurationMs records a package assembly duration in milliseconds.
func ObservePackagingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	packagingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "requests_submitted_total", "Total manuscript requests submitted", requestsSubmittedTotal.Load())
	writeCounter(&buf, "requests_completed_total", "Total manuscript requests completed", requestsCompletedTotal.Load())
	writeCounter(&buf, "requests_failed_total", "Total manuscript requests failed", requestsFailedTotal.Load())
	writeCounter(&buf, "packages_built_total", "Total delivery packages assembled", packagesBuiltTotal.Load())
	writeCounter(&buf, "downloads_served_total", "Total package downloads served", downloadsServedTotal.Load())
	writeHistogram(&buf, "packaging_duration_ms", "Package assembly duration in milliseconds", packagingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
