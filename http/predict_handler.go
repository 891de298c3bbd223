package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"prodcat/db"
	"prodcat/feature"
	"prodcat/monitoring"
)

type PredictResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

var responseCache *lru.Cache[string, PredictResponse]

// InitCache sizes the bounded prediction response cache. size <= 0
// disables caching.
func InitCache(size int) error {
	if size <= 0 {
		responseCache = nil
		return nil
	}
	cache, err := lru.New[string, PredictResponse](size)
	if err != nil {
		return err
	}
	responseCache = cache
	return nil
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	if model == nil || labelMapping == nil {
		writeError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	var record feature.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	key := cacheKey(record)

	if responseCache != nil && key != "" {
		if cached, ok := responseCache.Get(key); ok {
			monitoring.CountCacheHit()
			publishEvent(record, cached, true)
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	resp, err := predictRecord(record)
	if err != nil {
		// Any failure in the serving path is a non-200 response, never a
		// crash; the recovery middleware is the backstop, not the policy.
		monitoring.CountPredictionError()
		zap.L().Error("prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if responseCache != nil && key != "" {
		responseCache.Add(key, resp)
	}
	monitoring.ObservePrediction(resp.Category, time.Since(start))

	if err := db.SavePrediction(record.TitleOrEmpty(), resp.Category, resp.Confidence); err != nil {
		zap.L().Warn("save prediction", zap.Error(err))
	}
	publishEvent(record, resp, false)

	writeJSON(w, http.StatusOK, resp)
}

func predictRecord(record feature.Record) (PredictResponse, error) {
	table, err := feature.BuildFeatures([]feature.Record{record})
	if err != nil {
		return PredictResponse{}, err
	}

	classIdx, confidence, err := model.Predict(table.Row(0))
	if err != nil {
		return PredictResponse{}, err
	}

	label, ok := labelMapping.Label(classIdx)
	if !ok {
		return PredictResponse{}, fmt.Errorf("class %d missing from label mapping", classIdx)
	}
	return PredictResponse{Category: label, Confidence: confidence}, nil
}

func publishEvent(record feature.Record, resp PredictResponse, cached bool) {
	if monitor == nil {
		return
	}
	monitor.PublishPrediction(monitoring.PredictionEvent{
		Title:      record.TitleOrEmpty(),
		Category:   resp.Category,
		Confidence: resp.Confidence,
		Cached:     cached,
		Timestamp:  time.Now().UTC(),
	})
}

// cacheKey canonicalizes the record; identical requests share an entry.
func cacheKey(record feature.Record) string {
	payload, err := json.Marshal(record)
	if err != nil {
		return ""
	}
	return string(payload)
}
