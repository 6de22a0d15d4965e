package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_uploads_total",
			Help: "Upload requests by profile and outcome",
		},
		[]string{"profile", "outcome"},
	)

	UploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillswap_upload_duration_seconds",
			Help:    "End-to-end upload duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"profile"},
	)

	ScratchFilesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skillswap_scratch_files_in_flight",
			Help: "Scratch files acquired and not yet released",
		},
	)

	AssetProviderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_asset_provider_failures_total",
			Help: "Failed calls to an asset provider",
		},
		[]string{"provider"},
	)

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		UploadsTotal,
		UploadDuration,
		ScratchFilesInFlight,
		AssetProviderFailures,
	)
}

// Handler serves the private registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveUpload records one finished upload request.
func ObserveUpload(profile string, status int, elapsed time.Duration) {
	UploadsTotal.WithLabelValues(profile, Outcome(status)).Inc()
	UploadDuration.WithLabelValues(profile).Observe(elapsed.Seconds())
}

func Outcome(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "rejected"
	default:
		return "ok"
	}
}
