package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Idea is a single submitted idea awaiting evaluation.
type Idea struct {
	ID          string    `json:"idea_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category,omitempty"`
	SubmittedAt time.Time `json:"timestamp,omitempty"`
}

// HasDescription reports whether the idea carries evaluable content.
// Ideas without one are marked, never evaluated.
func (i Idea) HasDescription() bool {
	return strings.TrimSpace(i.Description) != ""
}

// DefaultCategory is assigned when an uploaded file has no category column.
const DefaultCategory = "Uncategorized"

// WeightSumTolerance is the allowed deviation of Value+Effort from 1.0.
const WeightSumTolerance = 0.01

// Weights blend the two evaluator scores into a combined score:
//
//	combined = Value*value_score + Effort*effort_score
type Weights struct {
	Value  float64 `json:"value"`
	Effort float64 `json:"effort"`
}

// DefaultWeights returns the standard 60/40 value/effort split.
func DefaultWeights() Weights {
	return Weights{Value: 0.6, Effort: 0.4}
}

// Validate checks that both weights are finite, non-negative, and sum to
// 1.0 within WeightSumTolerance. Callers must validate before running a
// batch; ranking assumes valid weights.
func (w Weights) Validate() error {
	if math.IsNaN(w.Value) || math.IsInf(w.Value, 0) || math.IsNaN(w.Effort) || math.IsInf(w.Effort, 0) {
		return fmt.Errorf("weights must be finite numbers")
	}
	if w.Value < 0 || w.Effort < 0 {
		return fmt.Errorf("weights must be non-negative, got value=%.3f effort=%.3f", w.Value, w.Effort)
	}
	if diff := math.Abs(w.Value + w.Effort - 1.0); diff > WeightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0 (±%.2f), got %.3f", WeightSumTolerance, w.Value+w.Effort)
	}
	return nil
}
