package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prodcat/ml"
)

type fakeModel struct {
	label      int
	confidence float64
	err        error
	calls      int
}

func (f *fakeModel) Predict(features map[string]float64) (int, float64, error) {
	f.calls++
	return f.label, f.confidence, f.err
}

const samplePayload = `{
	"title": "Samsung Galaxy S21 Smartphone",
	"seller_id": "seller_123",
	"brand": "Samsung",
	"subcategory": "Electronics",
	"price": 699.99,
	"rating": 4.5,
	"reviews_count": 1500
}`

func postPredict(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	RegisterHandlers(mux)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandlePredict(t *testing.T) {
	resetServingState()
	SetModel(&fakeModel{label: 2, confidence: 0.75})
	SetLabels(ml.LabelMapping{0: "Electronics", 1: "Clothing", 2: "Home"})
	defer resetServingState()

	w := postPredict(t, samplePayload)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Category != "Home" {
		t.Fatalf("unexpected category: %q", resp.Category)
	}
	if resp.Confidence != 0.75 {
		t.Fatalf("unexpected confidence: %v", resp.Confidence)
	}
}

func TestHandlePredictEndToEnd(t *testing.T) {
	// Real ensemble, real feature hashing: the smoke-test sample request
	// must come back with a category from the label mapping and a
	// confidence in [0, 1].
	resetServingState()
	SetModel(&ml.GradientBoostedTrees{
		FeatureNames: []string{
			"seller_id_hashed", "brand_hashed", "subcategory_hashed",
			"price", "rating", "reviews_count",
		},
		NClasses: 3,
		Trees: [][]ml.Tree{
			{{Nodes: []ml.TreeNode{
				{FeatureIdx: 3, Threshold: 500, LeftChild: 1, RightChild: 2},
				{IsLeaf: true, Value: -1},
				{IsLeaf: true, Value: 2},
			}}},
			{{Nodes: []ml.TreeNode{
				{FeatureIdx: 4, Threshold: 4.0, LeftChild: 1, RightChild: 2},
				{IsLeaf: true, Value: -0.5},
				{IsLeaf: true, Value: 1},
			}}},
			{{Nodes: []ml.TreeNode{{IsLeaf: true, Value: 0.1}}}},
		},
	})
	labels := ml.LabelMapping{0: "Electronics", 1: "Clothing", 2: "Home"}
	SetLabels(labels)
	defer resetServingState()

	w := postPredict(t, samplePayload)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Category != "Electronics" {
		t.Fatalf("expected Electronics for the sample request, got %q", resp.Category)
	}
	known := false
	for _, label := range labels.Labels() {
		if label == resp.Category {
			known = true
		}
	}
	if !known {
		t.Fatalf("category %q not in the label mapping", resp.Category)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", resp.Confidence)
	}
}

func TestHandlePredictPartialRecord(t *testing.T) {
	resetServingState()
	SetModel(&fakeModel{label: 0, confidence: 0.6})
	SetLabels(ml.LabelMapping{0: "Electronics"})
	defer resetServingState()

	w := postPredict(t, `{"title": "Test Product", "price": 99.99}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for partial record, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlePredictBadJSON(t *testing.T) {
	resetServingState()
	SetModel(&fakeModel{label: 0, confidence: 0.6})
	SetLabels(ml.LabelMapping{0: "Electronics"})
	defer resetServingState()

	w := postPredict(t, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandlePredictNoModel(t *testing.T) {
	resetServingState()

	w := postPredict(t, samplePayload)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a model, got %d", w.Code)
	}
}

func TestHandlePredictUnmappedClass(t *testing.T) {
	resetServingState()
	SetModel(&fakeModel{label: 9, confidence: 0.6})
	SetLabels(ml.LabelMapping{0: "Electronics"})
	defer resetServingState()

	w := postPredict(t, samplePayload)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unmapped class, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "label mapping") {
		t.Fatalf("expected descriptive error body, got %s", w.Body.String())
	}
}

func TestHandlePredictCacheHit(t *testing.T) {
	resetServingState()
	model := &fakeModel{label: 0, confidence: 0.6}
	SetModel(model)
	SetLabels(ml.LabelMapping{0: "Electronics"})
	if err := InitCache(16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resetServingState()

	first := postPredict(t, samplePayload)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	second := postPredict(t, samplePayload)
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", second.Code)
	}

	if model.calls != 1 {
		t.Fatalf("expected a single model call with a warm cache, got %d", model.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cache changed the response: %s vs %s", first.Body.String(), second.Body.String())
	}
}
