package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prodcat",
		Subsystem: "serving",
		Name:      "predictions_total",
		Help:      "Predictions served, by predicted category.",
	}, []string{"category"})

	predictionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "prodcat",
		Subsystem: "serving",
		Name:      "prediction_errors_total",
		Help:      "Prediction requests that failed inside the serving path.",
	})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prodcat",
		Subsystem: "serving",
		Name:      "prediction_duration_seconds",
		Help:      "End-to-end latency of the predict endpoint.",
		Buckets:   prometheus.DefBuckets,
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "prodcat",
		Subsystem: "serving",
		Name:      "prediction_cache_hits_total",
		Help:      "Predict requests answered from the response cache.",
	})

	modelLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "prodcat",
		Subsystem: "serving",
		Name:      "model_loaded",
		Help:      "1 when a model artifact is loaded and serving.",
	})
)

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObservePrediction(category string, elapsed time.Duration) {
	predictionsTotal.WithLabelValues(category).Inc()
	predictionDuration.Observe(elapsed.Seconds())
}

func CountPredictionError() {
	predictionErrors.Inc()
}

func CountCacheHit() {
	cacheHits.Inc()
}

func SetModelLoaded(loaded bool) {
	if loaded {
		modelLoaded.Set(1)
		return
	}
	modelLoaded.Set(0)
}
