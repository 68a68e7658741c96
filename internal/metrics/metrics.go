package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediakit"

// Registry owns the MediaKit collectors. A nil *Registry is valid and records
// nothing, so components can take one unconditionally.
type Registry struct {
	reg             *prometheus.Registry
	jobsTotal       *prometheus.CounterVec
	activeJobs      *prometheus.GaugeVec
	stageDuration   *prometheus.HistogramVec
	toolInvocations *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	framesExtracted prometheus.Counter
	sweptFiles      prometheus.Counter
	published       *prometheus.CounterVec
}

// New registers every collector on a private registry together with the Go
// runtime and process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Registry{
		reg: reg,
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of jobs finished, by kind and status",
		}, []string{"kind", "status"}),
		activeJobs: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Number of jobs currently running, by kind",
		}, []string{"kind"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of boot animation pipeline stages",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		toolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "External tool invocations, by tool and outcome",
		}, []string{"tool", "outcome"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Wall-clock duration of external tool invocations",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"tool"}),
		framesExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_extracted_total",
			Help:      "Total number of frames extracted across all boot animation jobs",
		}),
		sweptFiles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_files_total",
			Help:      "Files removed by the retention sweeper",
		}),
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_artifacts_total",
			Help:      "Artifacts mirrored to object storage, by outcome",
		}, []string{"outcome"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// JobStarted increments the running gauge for kind.
func (r *Registry) JobStarted(kind string) {
	if r == nil {
		return
	}
	r.activeJobs.WithLabelValues(kind).Inc()
}

// JobFinished decrements the running gauge and counts the outcome.
func (r *Registry) JobFinished(kind, status string) {
	if r == nil {
		return
	}
	r.activeJobs.WithLabelValues(kind).Dec()
	r.jobsTotal.WithLabelValues(kind, status).Inc()
}

// ObserveStage records how long a pipeline stage ran.
func (r *Registry) ObserveStage(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// ObserveTool records an external invocation. It matches toolexec.Observer.
func (r *Registry) ObserveTool(tool string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.toolInvocations.WithLabelValues(tool, outcome).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// AddFrames counts extracted frames.
func (r *Registry) AddFrames(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.framesExtracted.Add(float64(n))
}

// AddSwept counts files removed by the sweeper.
func (r *Registry) AddSwept(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.sweptFiles.Add(float64(n))
}

// ObservePublish counts a mirror upload attempt.
func (r *Registry) ObservePublish(err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.published.WithLabelValues(outcome).Inc()
}
