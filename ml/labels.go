package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// LabelMapping maps a class index to its human-readable category label.
// The artifact is a JSON object keyed by the stringified index, e.g.
// {"0": "Electronics", "1": "Clothing"}.
type LabelMapping map[int]string

func LoadLabelMapping(path string) (LabelMapping, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("label mapping is empty")
	}
	mapping := make(LabelMapping, len(raw))
	for key, label := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("label mapping key %q is not an index", key)
		}
		mapping[idx] = label
	}
	return mapping, nil
}

func (m LabelMapping) Label(idx int) (string, bool) {
	label, ok := m[idx]
	return label, ok
}

// Labels returns all category labels ordered by class index.
func (m LabelMapping) Labels() []string {
	indices := make([]int, 0, len(m))
	for idx := range m {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	labels := make([]string, len(indices))
	for i, idx := range indices {
		labels[i] = m[idx]
	}
	return labels
}
