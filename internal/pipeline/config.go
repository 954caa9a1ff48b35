package pipeline

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// StepSpec is one entry of a stage's configured step list: the step name
// and its parameters.
type StepSpec struct {
	Name   string                      `yaml:"name" validate:"required"`
	Params map[interface{}]interface{} `yaml:"params"`
}

// StepParams returns the normalized parameter bag for the step.
func (s StepSpec) StepParams() Params {
	return NormalizeParams(s.Params)
}

// InputConfig names the stage input and how to read it.
type InputConfig struct {
	Path      string `yaml:"path" validate:"required"`
	Separator string `yaml:"separator"` // CSV field separator, "," when empty
	Sheet     string `yaml:"sheet"`     // Excel worksheet, first sheet when empty
}

// OutputConfig names the stage output and how to write it.
type OutputConfig struct {
	Path      string `yaml:"path" validate:"required"`
	Separator string `yaml:"separator"`
	BOM       bool   `yaml:"bom"` // prefix UTF-8 BOM for Excel compatibility
}

// StageConfig is the declarative description of one pipeline stage:
// where to read, where to write, and the ordered steps in between.
// Loaded once at process start, read-only thereafter.
type StageConfig struct {
	Input  InputConfig  `yaml:"input" validate:"required"`
	Output OutputConfig `yaml:"output" validate:"required"`
	Steps  []StepSpec   `yaml:"steps" validate:"dive"`
}

var validate = validator.New()

// LoadStageConfig reads and validates a stage configuration YAML file.
func LoadStageConfig(path string) (*StageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage config %s: %w", path, err)
	}

	var cfg StageConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse stage config %s: %w", path, err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("stage config %s validation failed: %w", path, err)
	}

	return &cfg, nil
}

// SeparatorRune converts the configured separator string to the rune the
// CSV reader and writer expect. An empty separator means comma.
func SeparatorRune(sep string) (rune, error) {
	switch len(sep) {
	case 0:
		return ',', nil
	case 1:
		return rune(sep[0]), nil
	default:
		return 0, fmt.Errorf("separator must be a single character, got %q", sep)
	}
}
