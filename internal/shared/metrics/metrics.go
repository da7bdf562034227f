package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	pipelineRunsTotal      atomic.Uint64
	pipelineDegradedTotal  atomic.Uint64
	fetchFailuresTotal     atomic.Uint64
	extractEmptyTotal      atomic.Uint64
	inferenceFallbackTotal atomic.Uint64
	jobsEnqueuedTotal      atomic.Uint64
	jobsReceivedTotal      atomic.Uint64
	jobsCompletedTotal     atomic.Uint64
	jobsFailedTotal        atomic.Uint64
	jobsDroppedTotal       atomic.Uint64

	pipelineDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncPipelineRun counts a finished pipeline run.
func IncPipelineRun() {
	pipelineRunsTotal.Add(1)
}

// IncPipelineDegraded counts a run answered with ok=false.
func IncPipelineDegraded() {
	pipelineDegradedTotal.Add(1)
}

// IncFetchFailure counts a document that could not be fetched.
func IncFetchFailure() {
	fetchFailuresTotal.Add(1)
}

// IncExtractEmpty counts a document that produced too little text.
func IncExtractEmpty() {
	extractEmptyTotal.Add(1)
}

// IncInferenceFallback counts a run that used the fixed fallback profile.
func IncInferenceFallback() {
	inferenceFallbackTotal.Add(1)
}

// IncJobEnqueued counts an analysis handed to the queue.
func IncJobEnqueued() {
	jobsEnqueuedTotal.Add(1)
}

// IncJobReceived counts a message pulled from the queue.
func IncJobReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobCompleted counts a processed and deleted message.
func IncJobCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobFailed counts a message left on the queue for redelivery.
func IncJobFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobDropped counts an unreadable message deleted without processing.
func IncJobDropped() {
	jobsDroppedTotal.Add(1)
}

// ObservePipelineDurationMs records a pipeline duration in milliseconds.
func ObservePipelineDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	pipelineDuration.Observe(value)
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
	writeCounter(&buf, "pipeline_runs_total", "Total pipeline runs", pipelineRunsTotal.Load())
	writeCounter(&buf, "pipeline_degraded_total", "Pipeline runs answered with ok=false", pipelineDegradedTotal.Load())
	writeCounter(&buf, "fetch_failures_total", "Documents that could not be fetched", fetchFailuresTotal.Load())
	writeCounter(&buf, "extract_empty_total", "Documents below the minimum text length", extractEmptyTotal.Load())
	writeCounter(&buf, "inference_fallback_total", "Runs that used the fallback profile", inferenceFallbackTotal.Load())
	writeCounter(&buf, "jobs_enqueued_total", "Analyses handed to the queue", jobsEnqueuedTotal.Load())
	writeCounter(&buf, "jobs_received_total", "Messages received by the worker", jobsReceivedTotal.Load())
	writeCounter(&buf, "jobs_completed_total", "Messages processed and deleted", jobsCompletedTotal.Load())
	writeCounter(&buf, "jobs_failed_total", "Messages left for redelivery", jobsFailedTotal.Load())
	writeCounter(&buf, "jobs_dropped_total", "Unreadable messages deleted", jobsDroppedTotal.Load())
	writeHistogram(&buf, "pipeline_duration_ms", "Pipeline duration in milliseconds", pipelineDuration.Snapshot())
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
	// counts are per bucket; writeHistogram accumulates them.
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
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
