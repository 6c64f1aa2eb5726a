package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	resumeProcessedTotal     atomic.Uint64
	completionRequestsTotal  atomic.Uint64
	completionRetriesTotal   atomic.Uint64
	rateLimitRejectedTotal   atomic.Uint64
	eventsPublishFailedTotal atomic.Uint64

	failedMu sync.Mutex

	resumeFailedByCode = map[string]uint64{}

	processingDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncResumeProcessed counts a pipeline run that persisted a record.
func IncResumeProcessed() {
	resumeProcessedTotal.Add(1)
}

// IncResumeFailed counts a failed pipeline run by error code.
func IncResumeFailed(code string) {
	failedMu.Lock()
	resumeFailedByCode[code]++
	failedMu.Unlock()
}

// IncCompletionRequests counts one upstream completion attempt.
func IncCompletionRequests() {
	completionRequestsTotal.Add(1)
}

// IncCompletionRetries counts a completion attempt that will be retried.
func IncCompletionRetries() {
	completionRetriesTotal.Add(1)
}

// IncRateLimitRejected counts a request rejected at admission.
func IncRateLimitRejected() {
	rateLimitRejectedTotal.Add(1)
}

// IncEventsPublishFailed counts a processed-resume event that could not be published.
func IncEventsPublishFailed() {
	eventsPublishFailedTotal.Add(1)
}

// ObserveProcessingDurationMs records a pipeline duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
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
	writeCounter(&buf, "resume_processed_total", "Resumes processed and persisted", resumeProcessedTotal.Load())
	writeLabeledCounter(&buf, "resume_failed_total", "Resume processing failures by error code", "code", failedSnapshot())
	writeCounter(&buf, "completion_requests_total", "Completion API attempts", completionRequestsTotal.Load())
	writeCounter(&buf, "completion_retries_total", "Completion API attempts that were retried", completionRetriesTotal.Load())
	writeCounter(&buf, "ratelimit_rejected_total", "Requests rejected by the rate limiter", rateLimitRejectedTotal.Load())
	writeCounter(&buf, "events_publish_failed_total", "Processed-resume events that failed to publish", eventsPublishFailedTotal.Load())
	writeHistogram(&buf, "resume_processing_duration_ms", "Resume processing duration in milliseconds", processingDuration.Snapshot())
	return buf.String()
}

func failedSnapshot() map[string]uint64 {
	failedMu.Lock()
	defer failedMu.Unlock()
	out := make(map[string]uint64, len(resumeFailedByCode))
	for k, v := range resumeFailedByCode {
		out[k] = v
	}
	return out
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

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
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
