package options

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Layer is one untyped configuration source, keyed by the JSON field names
// of Options.
type Layer map[string]any

// Resolve merges the layers over Defaults in order and validates the result.
// Nil layers are skipped.
func Resolve(layers ...Layer) (Options, error) {
	merged, err := toLayer(Defaults())
	if err != nil {
		return Options{}, err
	}

	for i, layer := range layers {
		if layer == nil {
			continue
		}

		normalized, err := normalize(layer)
		if err != nil {
			return Options{}, fmt.Errorf("layer %d: %w", i, err)
		}

		if err := mergo.Merge(&merged, normalized, mergo.WithOverride); err != nil {
			return Options{}, fmt.Errorf("merge layer %d: %w", i, err)
		}
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return Options{}, fmt.Errorf("marshal merged options: %w", err)
	}

	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("decode options: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid options: %w", err)
	}

	return opts, nil
}

// ParseDataAttribute decodes the JSON carried by a data-pagination attribute.
// An empty attribute yields a nil layer.
func ParseDataAttribute(raw string) (Layer, error) {
	if raw == "" {
		return nil, nil
	}

	var layer Layer
	if err := json.Unmarshal([]byte(raw), &layer); err != nil {
		return nil, fmt.Errorf("parse data attribute: %w", err)
	}
	return layer, nil
}

// LoadFile reads a YAML (or JSON, which is valid YAML) settings file.
func LoadFile(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	var layer Layer
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return layer, nil
}

func toLayer(opts Options) (Layer, error) {
	data, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}

	var layer Layer
	if err := json.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	return layer, nil
}

// normalize deep copies a layer into plain JSON types so that YAML values
// and caller maps merge the same way and are never mutated.
func normalize(layer Layer) (Layer, error) {
	data, err := json.Marshal(layer)
	if err != nil {
		return nil, fmt.Errorf("marshal layer: %w", err)
	}

	var out Layer
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode layer: %w", err)
	}
	return out, nil
}
