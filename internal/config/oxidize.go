package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// oxidizeFile mirrors .patina/oxidize.yaml's shape: a per-intent table of
// per-oracle weight overrides, layered on top of the Query Engine's
// built-in intent/weight defaults.
type oxidizeFile struct {
	Weights map[string]map[string]float64 `yaml:"weights"`
}

func loadOxidizeWeights(path string) (map[string]map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f oxidizeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Weights, nil
}
