package scoring

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_rubric.yaml
var defaultRubricYAML []byte

// DefaultRubric returns the built-in competition rubric.
func DefaultRubric() (Rubric, error) {
	return ParseRubric(defaultRubricYAML)
}

// ParseRubric decodes a rubric from YAML (JSON documents are accepted too)
// and validates it.
func ParseRubric(data []byte) (Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rubric{}, fmt.Errorf("parse rubric: %w", err)
	}
	if err := ValidateRubric(r); err != nil {
		return Rubric{}, fmt.Errorf("invalid rubric: %w", err)
	}
	return r, nil
}

// LoadRubricFile reads a rubric from disk.
func LoadRubricFile(path string) (Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, err
	}
	return ParseRubric(data)
}
