// Package constraints compiles temporal scheduling rules over boolean
// timelines into clauses and integer relations of a sat.Model.
//
// Two families of rules are supported: bounds on the length of every
// maximal run of consecutive true variables (Sequence and the
// policies derived from it) and bounds on the number of true
// variables (Sum, WeightedSum). Both are parameterized by a
// ThresholdSpec carrying a hard band, which is never violated, and a
// soft band whose violation is priced by the returned penalty terms.
package constraints

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// ThresholdSpec bounds a quantity with a hard band [HardMin, HardMax]
// and a soft band [SoftMin, SoftMax]. Each unit below SoftMin costs
// MinCost and each unit above SoftMax costs MaxCost; a zero cost
// turns the soft bound off.
type ThresholdSpec struct {
	HardMin int `json:"hardMin"`
	SoftMin int `json:"softMin"`
	MinCost int `json:"minCost"`
	SoftMax int `json:"softMax"`
	HardMax int `json:"hardMax"`
	MaxCost int `json:"maxCost"`
}

// Exactly returns the spec admitting only n, without soft bounds.
func Exactly(n int) ThresholdSpec {
	return ThresholdSpec{HardMin: n, SoftMin: n, SoftMax: n, HardMax: n}
}

// Between returns the spec admitting [lo, hi], without soft bounds.
func Between(lo, hi int) ThresholdSpec {
	return ThresholdSpec{HardMin: lo, SoftMin: lo, SoftMax: hi, HardMax: hi}
}

// ConfigurationError reports a ThresholdSpec that cannot describe any
// band. It is returned before anything is added to a model.
type ConfigurationError struct {
	Spec   ThresholdSpec
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid threshold spec %s: %s", e.Spec, e.Reason)
}

// Validate checks that every field is non-negative and that
// HardMin <= SoftMin <= SoftMax <= HardMax.
func (s ThresholdSpec) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"hard_min", s.HardMin},
		{"soft_min", s.SoftMin},
		{"min_cost", s.MinCost},
		{"soft_max", s.SoftMax},
		{"hard_max", s.HardMax},
		{"max_cost", s.MaxCost},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &ConfigurationError{Spec: s, Reason: fmt.Sprintf("%s is negative", f.name)}
		}
	}
	switch {
	case s.HardMin > s.SoftMin:
		return &ConfigurationError{Spec: s, Reason: fmt.Sprintf("hard_min %d exceeds soft_min %d", s.HardMin, s.SoftMin)}
	case s.SoftMin > s.SoftMax:
		return &ConfigurationError{Spec: s, Reason: fmt.Sprintf("soft_min %d exceeds soft_max %d", s.SoftMin, s.SoftMax)}
	case s.SoftMax > s.HardMax:
		return &ConfigurationError{Spec: s, Reason: fmt.Sprintf("soft_max %d exceeds hard_max %d", s.SoftMax, s.HardMax)}
	}
	return nil
}

func (s ThresholdSpec) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d, %d, %d)", s.HardMin, s.SoftMin, s.MinCost, s.SoftMax, s.HardMax, s.MaxCost)
}

// Tuple returns the spec in (hard_min, soft_min, min_cost, soft_max,
// hard_max, max_cost) order.
func (s ThresholdSpec) Tuple() [6]int {
	return [6]int{s.HardMin, s.SoftMin, s.MinCost, s.SoftMax, s.HardMax, s.MaxCost}
}

// FromTuple is the inverse of Tuple.
func FromTuple(t [6]int) ThresholdSpec {
	return ThresholdSpec{HardMin: t[0], SoftMin: t[1], MinCost: t[2], SoftMax: t[3], HardMax: t[4], MaxCost: t[5]}
}

// UnmarshalJSON accepts either the six-element tuple form or an
// object with named fields.
func (s *ThresholdSpec) UnmarshalJSON(data []byte) error {
	var tuple []int
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 6 {
			return errors.Errorf("threshold spec needs 6 values, got %d", len(tuple))
		}
		var t [6]int
		copy(t[:], tuple)
		*s = FromTuple(t)
		return nil
	}
	type plain ThresholdSpec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = ThresholdSpec(p)
	return nil
}

// MarshalJSON encodes the spec in tuple form.
func (s ThresholdSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tuple())
}
