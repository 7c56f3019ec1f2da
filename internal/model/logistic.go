package model

import (
	"fmt"
	"math"

	"github.com/strideworks/streampose/internal/pose"
)

// LogisticModel is a binary classifier over a fixed feature schema, with
// coefficients exported from the offline training pipeline.
type LogisticModel struct {
	name      string
	columns   []string
	intercept float64
	weights   map[string]float64
	threshold float64
	positive  string
	negative  string
}

func newLogisticModel(f modelFile) (*LogisticModel, error) {
	if len(f.Weights) == 0 {
		return nil, fmt.Errorf("logistic model %s has no weights", f.Name)
	}
	for _, col := range f.Columns {
		if _, ok := f.Weights[col]; !ok {
			return nil, fmt.Errorf("logistic model %s missing weight for column %s", f.Name, col)
		}
	}

	m := &LogisticModel{
		name:      f.Name,
		columns:   f.Columns,
		intercept: f.Intercept,
		weights:   f.Weights,
		threshold: 0.5,
		positive:  f.PositiveLabel,
		negative:  f.NegativeLabel,
	}
	if f.Threshold != nil {
		if *f.Threshold <= 0 || *f.Threshold >= 1 {
			return nil, fmt.Errorf("logistic model %s threshold must be in (0, 1), got %v", f.Name, *f.Threshold)
		}
		m.threshold = *f.Threshold
	}
	if m.positive == "" {
		m.positive = "true"
	}
	if m.negative == "" {
		m.negative = "false"
	}
	return m, nil
}

func (m *LogisticModel) Name() string      { return m.name }
func (m *LogisticModel) Columns() []string { return m.columns }

// Predict applies the logistic function to the weighted feature sum. Every
// schema column must be present in the vector; a gap means the transformer
// and the model disagree about the schema and must surface as a failure.
func (m *LogisticModel) Predict(fv pose.FeatureVector) (string, error) {
	z := m.intercept
	for _, col := range m.columns {
		v, ok := fv[col]
		if !ok {
			return "", fmt.Errorf("feature vector missing column %s", col)
		}
		z += m.weights[col] * v
	}

	p := 1.0 / (1.0 + math.Exp(-z))
	if math.IsNaN(p) {
		return "", fmt.Errorf("logistic model %s produced NaN probability", m.name)
	}

	if p >= m.threshold {
		return m.positive, nil
	}
	return m.negative, nil
}
