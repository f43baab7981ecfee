package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// fitConfig carries the optional JSON fit settings shared by the fit and
// benchmark commands. Command-line flags fill anything left empty.
type fitConfig struct {
	Fitter string
	Label  string
	Params map[string]float64
}

func loadOrDefaultFitConfig(path string) (fitConfig, error) {
	if path == "" {
		return fitConfig{}, nil
	}
	return loadFitConfig(path)
}

func loadFitConfig(path string) (fitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fitConfig{}, fmt.Errorf("read fit config: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fitConfig{}, fmt.Errorf("parse fit config %s: %w", path, err)
	}

	cfg := fitConfig{
		Fitter: asString(raw["fitter"], ""),
		Label:  asString(raw["label"], ""),
	}
	if rawParams, ok := raw["params"].(map[string]any); ok {
		cfg.Params = make(map[string]float64, len(rawParams))
		for key, value := range rawParams {
			number, ok := asFloat64(value)
			if !ok {
				return fitConfig{}, fmt.Errorf("fit config %s: param %q is not numeric", path, key)
			}
			cfg.Params[key] = number
		}
	}
	return cfg, nil
}

func asString(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func asFloat64(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
