package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
)

// GradientBoostedTrees is a pre-trained boosted ensemble. Each class owns
// a list of regression trees stored as flat node arrays; the predicted
// class is the softmax argmax over the summed tree outputs.
type GradientBoostedTrees struct {
	FeatureNames []string `json:"feature_names"`
	NClasses     int      `json:"n_classes"`
	Trees        [][]Tree `json:"trees"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// Predict assembles the input vector from the model's feature names (a
// feature absent from the row scores as 0), sums the per-class tree
// outputs and softmaxes the scores. The returned confidence is the
// winning class probability, always in [0, 1].
func (m *GradientBoostedTrees) Predict(features map[string]float64) (int, float64, error) {
	if err := m.validate(); err != nil {
		return 0, 0, err
	}

	vector := make([]float64, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		vector[i] = features[name]
	}

	scores := make([]float64, m.NClasses)
	for class, trees := range m.Trees {
		for _, tree := range trees {
			value, err := tree.eval(vector)
			if err != nil {
				return 0, 0, err
			}
			scores[class] += value
		}
	}

	probs := softmax(scores)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, probs[best], nil
}

func (m *GradientBoostedTrees) Save(path string) error {
	if err := m.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (m *GradientBoostedTrees) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded GradientBoostedTrees
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return err
	}
	if err := loaded.validate(); err != nil {
		return err
	}
	*m = loaded
	return nil
}

func (m *GradientBoostedTrees) validate() error {
	if m.NClasses <= 0 || len(m.Trees) == 0 {
		return errors.New("model is empty")
	}
	if len(m.Trees) != m.NClasses {
		return errors.New("class count does not match tree groups")
	}
	if len(m.FeatureNames) == 0 {
		return errors.New("model has no feature names")
	}
	return nil
}

func (t Tree) eval(vector []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	// A well-formed tree terminates well before visiting every node once.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(vector) {
			return 0, errors.New("feature index out of range")
		}
		if vector[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("tree descent did not terminate")
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
