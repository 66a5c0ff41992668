package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metric is an optional float64. A statistic that cannot be computed
// (insufficient history, degenerate denominator, malformed upstream value)
// carries Valid=false and marshals as JSON null; it is never coerced to zero.
type Metric struct {
	Value float64
	Valid bool
}

// Some wraps a computed value.
func Some(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// None is the absent value.
func None() Metric {
	return Metric{}
}

// Abs returns the magnitude, or an invalid Metric if m is invalid.
func (m Metric) Abs() Metric {
	if !m.Valid {
		return None()
	}
	return Some(math.Abs(m.Value))
}

func (m Metric) String() string {
	if !m.Valid {
		return "NA"
	}
	return fmt.Sprintf("%.4f", m.Value)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("metric: %w", err)
	}
	*m = Some(v)
	return nil
}
