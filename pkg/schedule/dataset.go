package schedule

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/rotaplan/rotaplan/pkg/constraints"
)

// Block policies a rotation can impose on the weeks a resident spends
// on it.
const (
	PolicyExact     = "exact"
	PolicyTwoOrFour = "two-or-four"
	PolicySequence  = "sequence"
)

// Dataset describes one scheduling period: how many weeks it spans,
// which residents are scheduled and which rotations they rotate
// through.
type Dataset struct {
	Weeks int `json:"weeks" validate:"gt=0"`
	// Assigned bounds the number of weeks each resident spends on any
	// rotation. The remaining weeks are time off.
	Assigned  *constraints.ThresholdSpec `json:"assigned,omitempty"`
	Groups    []Group                    `json:"groups" validate:"required,min=1,unique=Name,dive"`
	Rotations []Rotation                 `json:"rotations" validate:"required,min=1,unique=Name,dive"`
}

// Group is a set of residents sharing the same service requirement.
type Group struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gt=0"`
	// Service bounds the number of weeks each resident of the group
	// spends on service rotations.
	Service *constraints.ThresholdSpec `json:"service,omitempty"`
}

// Rotation is a kind of assignment. Count identical copies are
// created, named Name-0 .. Name-(Count-1) when Count > 1.
type Rotation struct {
	Name    string `json:"name" validate:"required"`
	Count   int    `json:"count,omitempty" validate:"gte=0"`
	Service bool   `json:"service,omitempty"`
	Block   *Block `json:"block,omitempty"`
	// Headcount is the exact number of residents on each copy of the
	// rotation per week, for the first HeadcountWeeks weeks (all weeks
	// when zero).
	Headcount      *int `json:"headcount,omitempty" validate:"omitempty,gte=0"`
	HeadcountWeeks int  `json:"headcountWeeks,omitempty" validate:"gte=0"`
}

// Block constrains the runs of consecutive weeks a resident spends on
// a rotation.
type Block struct {
	Policy string                     `json:"policy" validate:"oneof=exact two-or-four sequence"`
	Length int                        `json:"length,omitempty" validate:"required_if=Policy exact,gte=0"`
	Spec   *constraints.ThresholdSpec `json:"spec,omitempty" validate:"required_if=Policy sequence"`
}

var validate = validator.New()

// Load reads and validates a dataset from a YAML or JSON file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", path)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %s", path)
	}
	return d, nil
}

// Parse decodes and validates a dataset.
func Parse(data []byte) (*Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "decoding dataset")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the structural rules of the dataset and every
// threshold spec it carries.
func (d *Dataset) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(err, "invalid dataset")
	}
	specs := map[string]*constraints.ThresholdSpec{"assigned": d.Assigned}
	for _, g := range d.Groups {
		specs[fmt.Sprintf("group %s service", g.Name)] = g.Service
	}
	for _, r := range d.Rotations {
		if r.Block != nil {
			specs[fmt.Sprintf("rotation %s block", r.Name)] = r.Block.Spec
		}
		if r.HeadcountWeeks > d.Weeks {
			return errors.Errorf("invalid dataset: rotation %s headcountWeeks %d exceeds %d weeks", r.Name, r.HeadcountWeeks, d.Weeks)
		}
	}
	for what, spec := range specs {
		if spec == nil {
			continue
		}
		if err := spec.Validate(); err != nil {
			return errors.Wrapf(err, "invalid dataset: %s", what)
		}
	}
	return nil
}

// Residents returns the name of every resident, group by group.
func (d *Dataset) Residents() []string {
	var names []string
	for _, g := range d.Groups {
		for i := 0; i < g.Count; i++ {
			names = append(names, fmt.Sprintf("%s-%d", g.Name, i))
		}
	}
	return names
}

// rotations expands every rotation into its copies.
func (d *Dataset) rotations() []Rotation {
	var out []Rotation
	for _, r := range d.Rotations {
		if r.Count <= 1 {
			out = append(out, r)
			continue
		}
		for i := 0; i < r.Count; i++ {
			c := r
			c.Name = fmt.Sprintf("%s-%d", r.Name, i)
			out = append(out, c)
		}
	}
	return out
}

// groupOf returns the group of every resident, in Residents order.
func (d *Dataset) groupOf() []*Group {
	var out []*Group
	for i := range d.Groups {
		for j := 0; j < d.Groups[i].Count; j++ {
			out = append(out, &d.Groups[i])
		}
	}
	return out
}
