// Package model provides classifier backends for the pose pipeline. A model
// file declares its input column schema alongside its parameters, so binding
// a model also fixes the transformer's target columns.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strideworks/streampose/internal/pose"
)

// Model is a loaded classifier together with the input schema it was trained
// against. Implementations are stateless per call and safe for concurrent
// invocation by multiple sessions.
type Model interface {
	pose.Classifier

	// Name identifies the model for logging and API responses.
	Name() string

	// Columns is the fixed, ordered input column schema.
	Columns() []string
}

// modelFile is the on-disk JSON envelope shared by all backends.
type modelFile struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Columns []string `json:"columns"`

	// logistic backend
	Intercept     float64            `json:"intercept,omitempty"`
	Weights       map[string]float64 `json:"weights,omitempty"`
	Threshold     *float64           `json:"threshold,omitempty"`
	PositiveLabel string             `json:"positive_label,omitempty"`
	NegativeLabel string             `json:"negative_label,omitempty"`

	// remote backend
	Endpoint  string `json:"endpoint,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
}

// Load reads a model file and constructs the matching backend.
func Load(path string) (Model, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("model file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", cleanPath, err)
	}

	if f.Name == "" {
		f.Name = filepath.Base(cleanPath)
	}
	if len(f.Columns) == 0 {
		return nil, fmt.Errorf("model %s declares no input columns", f.Name)
	}

	switch f.Type {
	case "logistic":
		return newLogisticModel(f)
	case "remote":
		return newRemoteModel(f)
	default:
		return nil, fmt.Errorf("model %s has unknown type %q", f.Name, f.Type)
	}
}
