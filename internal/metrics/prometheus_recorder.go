package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitejam"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	entries       *prom.CounterVec
	renderedPages *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A nil
// reg gets a private registry so repeated construction never collides with the
// global default registerer.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		entries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_entries_total",
			Help:      "Source tree entries visited by classified kind",
		}, []string{"kind"}),
		renderedPages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rendered_pages_total",
			Help:      "Pages written by template rendering",
		}, []string{"mode"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.entries, pr.renderedPages)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncEntry(kind string) {
	if p == nil || p.entries == nil {
		return
	}
	p.entries.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncRenderedPage(collection bool) {
	if p == nil || p.renderedPages == nil {
		return
	}
	mode := "single"
	if collection {
		mode = "collection"
	}
	p.renderedPages.WithLabelValues(mode).Inc()
}

// WriteTextfile writes every metric gathered from g to filename in the
// Prometheus text exposition format. The file is replaced atomically.
func WriteTextfile(filename string, g prom.Gatherer) error {
	if filename == "" {
		return fmt.Errorf("metrics file name is required")
	}
	if err := prom.WriteToTextfile(filename, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
