package ml

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrModelNotFound  = errors.New("model file not found")
	ErrLabelsNotFound = errors.New("label mapping file not found")
)

// LoadModel loads the trained ensemble and its label mapping from disk.
// A missing file and a malformed one are distinct failures; both indicate
// a deployment problem and callers must not mask them.
func LoadModel(modelPath, labelPath string) (*GradientBoostedTrees, LabelMapping, error) {
	model := &GradientBoostedTrees{}
	if err := model.Load(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}

	labels, err := LoadLabelMapping(labelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrLabelsNotFound, labelPath)
		}
		return nil, nil, fmt.Errorf("load label mapping %s: %w", labelPath, err)
	}

	return model, labels, nil
}
