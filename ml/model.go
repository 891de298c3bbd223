package ml

// Model scores one assembled feature row and returns the winning class
// index together with its probability.
type Model interface {
	Predict(features map[string]float64) (int, float64, error)
}
