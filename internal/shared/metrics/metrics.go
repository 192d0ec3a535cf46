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
	stepSubmittedTotal    atomic.Uint64
	renderDispatchedTotal atomic.Uint64
	renderCompletedTotal  atomic.Uint64
	renderFailedTotal     atomic.Uint64

	workerJobsReceivedTotal      atomic.Uint64
	workerJobsCompletedTotal     atomic.Uint64
	workerJobsFailedTotal        atomic.Uint64
	workerJobsUnrecoverableTotal atomic.Uint64

	renderDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000})
)

// IncStepSubmitted increments the step submission counter.
func IncStepSubmitted() {
	stepSubmittedTotal.Add(1)
}

// IncRenderDispatched increments the render dispatch counter.
func IncRenderDispatched() {
	renderDispatchedTotal.Add(1)
}

// IncRenderCompleted increments the render completed counter.
func IncRenderCompleted() {
	renderCompletedTotal.Add(1)
}

// IncRenderFailed increments the render failed counter.
func IncRenderFailed() {
	renderFailedTotal.Add(1)
}

// IncWorkerJobsReceived increments the worker message counter.
func IncWorkerJobsReceived() {
	workerJobsReceivedTotal.Add(1)
}

// IncWorkerJobsCompleted increments the worker completion counter.
func IncWorkerJobsCompleted() {
	workerJobsCompletedTotal.Add(1)
}

// IncWorkerJobsFailed increments the worker failure counter.
func IncWorkerJobsFailed() {
	workerJobsFailedTotal.Add(1)
}

// IncWorkerJobsDeletedUnrecoverable counts messages deleted without processing.
func IncWorkerJobsDeletedUnrecoverable() {
	workerJobsUnrecoverableTotal.Add(1)
}

// ObserveRenderDurationMs records a render duration in milliseconds.
func ObserveRenderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	renderDuration.Observe(value)
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
	writeCounter(&buf, "workflow_step_submitted_total", "Total workflow step submissions accepted", stepSubmittedTotal.Load())
	writeCounter(&buf, "render_dispatched_total", "Total render jobs dispatched", renderDispatchedTotal.Load())
	writeCounter(&buf, "render_completed_total", "Total render jobs completed", renderCompletedTotal.Load())
	writeCounter(&buf, "render_failed_total", "Total render jobs failed", renderFailedTotal.Load())
	writeCounter(&buf, "worker_jobs_received_total", "Total queue messages received by the worker", workerJobsReceivedTotal.Load())
	writeCounter(&buf, "worker_jobs_completed_total", "Total queue messages processed successfully", workerJobsCompletedTotal.Load())
	writeCounter(&buf, "worker_jobs_failed_total", "Total queue messages that failed processing", workerJobsFailedTotal.Load())
	writeCounter(&buf, "worker_jobs_deleted_unrecoverable_total", "Total queue messages deleted without processing", workerJobsUnrecoverableTotal.Load())
	writeHistogram(&buf, "render_duration_ms", "Render job duration in milliseconds", renderDuration.Snapshot())
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
			break
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
