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
	pageRendersTotal       atomic.Uint64
	pageRenderFailedTotal  atomic.Uint64
	cropsTotal             atomic.Uint64
	cropsRejectedTotal     atomic.Uint64
	exportsTotal           atomic.Uint64
	exportFailedTotal      atomic.Uint64
	draftsSavedTotal       atomic.Uint64
	profileCorruptionTotal atomic.Uint64

	pageRenderDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
	exportDuration     = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncPageRender counts a first-page rasterization attempt and its outcome.
func IncPageRender(ok bool) {
	pageRendersTotal.Add(1)
	if !ok {
		pageRenderFailedTotal.Add(1)
	}
}

// IncCrop counts a crop completion attempt and its outcome.
func IncCrop(ok bool) {
	cropsTotal.Add(1)
	if !ok {
		cropsRejectedTotal.Add(1)
	}
}

// IncExport counts a PDF export attempt and its outcome.
func IncExport(ok bool) {
	exportsTotal.Add(1)
	if !ok {
		exportFailedTotal.Add(1)
	}
}

// IncDraftSaved increments the auto-saved draft counter.
func IncDraftSaved() {
	draftsSavedTotal.Add(1)
}

// IncProfileCorruption counts stored profiles discarded as unreadable.
func IncProfileCorruption() {
	profileCorruptionTotal.Add(1)
}

// ObservePageRenderMs records a page rasterization duration in milliseconds.
func ObservePageRenderMs(value float64) {
	if value < 0 {
		value = 0
	}
	pageRenderDuration.Observe(value)
}

// ObserveExportMs records an export duration in milliseconds.
func ObserveExportMs(value float64) {
	if value < 0 {
		value = 0
	}
	exportDuration.Observe(value)
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
	writeCounter(&buf, "page_render_total", "Total PDF first-page renders", pageRendersTotal.Load())
	writeCounter(&buf, "page_render_failed_total", "Total PDF first-page renders that failed", pageRenderFailedTotal.Load())
	writeCounter(&buf, "crop_total", "Total crop completions attempted", cropsTotal.Load())
	writeCounter(&buf, "crop_rejected_total", "Total crop completions rejected", cropsRejectedTotal.Load())
	writeCounter(&buf, "export_total", "Total PDF exports", exportsTotal.Load())
	writeCounter(&buf, "export_failed_total", "Total PDF exports that failed", exportFailedTotal.Load())
	writeCounter(&buf, "draft_saved_total", "Total drafts written by auto-save", draftsSavedTotal.Load())
	writeCounter(&buf, "profile_corruption_total", "Total stored profiles discarded as unreadable", profileCorruptionTotal.Load())
	writeHistogram(&buf, "page_render_duration_ms", "PDF first-page render duration in milliseconds", pageRenderDuration.Snapshot())
	writeHistogram(&buf, "export_duration_ms", "PDF export duration in milliseconds", exportDuration.Snapshot())
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

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
