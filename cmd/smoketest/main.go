// Command smoketest verifies a deployed prediction service: it waits for
// the health endpoint to come up, then exercises the predict endpoint with
// a fixed sample request. Any failure exits non-zero so the deployment
// pipeline stops the line.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

const smokeTimeout = 10 * time.Second

var client = &http.Client{
	Timeout: smokeTimeout,
}

var samplePayload = map[string]interface{}{
	"title":         "Samsung Galaxy S21 Smartphone",
	"seller_id":     "seller_123",
	"brand":         "Samsung",
	"subcategory":   "Electronics",
	"price":         699.99,
	"rating":        4.5,
	"reviews_count": 1500,
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "base URL of the service")
	maxRetries := flag.Int("retries", 30, "health poll attempts before giving up")
	retryDelay := flag.Duration("delay", 2*time.Second, "delay between health polls")
	flag.Parse()

	log.Printf("Waiting for service at %s...", *baseURL)
	if !waitForService(*baseURL, *maxRetries, *retryDelay) {
		log.Fatal("FAILED: service did not become available")
	}
	log.Print("Health check passed")

	if err := testPrediction(*baseURL); err != nil {
		log.Fatalf("FAILED: prediction test: %v", err)
	}
	log.Print("Prediction test passed")
	log.Print("Smoke test OK")
}

func waitForService(baseURL string, maxRetries int, retryDelay time.Duration) bool {
	for i := 0; i < maxRetries; i++ {
		if checkHealth(baseURL) {
			return true
		}
		if i < maxRetries-1 {
			log.Printf("Retry %d/%d in %v...", i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return false
}

func checkHealth(baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		log.Printf("Health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Health check failed with status %d", resp.StatusCode)
		return false
	}
	return true
}

func testPrediction(baseURL string) error {
	payload, err := json.Marshal(samplePayload)
	if err != nil {
		return err
	}

	resp, err := client.Post(baseURL+"/predict", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Category   string   `json:"category"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("invalid response body: %w", err)
	}
	if result.Category == "" {
		return fmt.Errorf("response has no category")
	}
	if result.Confidence == nil || *result.Confidence < 0 || *result.Confidence > 1 {
		return fmt.Errorf("confidence missing or out of range")
	}

	log.Printf("Predicted category: %s (confidence %.3f)", result.Category, *result.Confidence)
	return nil
}
