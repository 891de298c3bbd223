package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"prodcat/db"
	"prodcat/ml"
	"prodcat/monitoring"
)

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /predict", handlePredict)
	mux.HandleFunc("GET /api/labels", handleLabels)
	mux.HandleFunc("GET /api/predictions", handlePredictions)
	mux.Handle("GET /metrics", monitoring.Handler())
	mux.HandleFunc("GET /api/ws/monitor", handleMonitorWS)
}

// Serving collaborators, wired once at startup and swapped in tests.
var (
	model        ml.Model
	labelMapping ml.LabelMapping
	monitor      *monitoring.Monitor
)

func SetModel(m ml.Model) {
	model = m
	monitoring.SetModelLoaded(m != nil)
}

func SetLabels(labels ml.LabelMapping) {
	labelMapping = labels
}

func SetMonitor(m *monitoring.Monitor) {
	monitor = m
}

// handleHealth reports ready only once a model is serving, so deployment
// verification cannot pass against a half-started process.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if model == nil || labelMapping == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleLabels(w http.ResponseWriter, r *http.Request) {
	if labelMapping == nil {
		writeError(w, http.StatusServiceUnavailable, "label mapping not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"labels": labelMapping.Labels()})
}

func handlePredictions(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 100
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	predictions, err := db.RecentPredictions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if predictions == nil {
		predictions = []db.PredictionRow{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
}

func handleMonitorWS(w http.ResponseWriter, r *http.Request) {
	if monitor == nil {
		writeError(w, http.StatusServiceUnavailable, "monitor not running")
		return
	}
	monitor.ServeWS(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
