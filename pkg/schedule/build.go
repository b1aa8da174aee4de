// Package schedule turns a residency Dataset into constraints over a
// sat.Model: one boolean per (resident, rotation, week), compiled
// through the rules of package constraints.
package schedule

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rotaplan/rotaplan/pkg/constraints"
	"github.com/rotaplan/rotaplan/pkg/sat"
)

// atMostOne admits zero or one true variable.
var atMostOne = constraints.Between(0, 1)

type Options struct {
	// Parallelism bounds the number of residents compiled at once.
	// Zero or less means one.
	Parallelism int
	Logger      logrus.FieldLogger
}

// Plan is a compiled dataset: the literals of every shift and the
// objective collected from every rule.
type Plan struct {
	Residents []string
	Rotations []string
	Weeks     int
	// Shifts holds shift[resident, rotation, week].
	Shifts *Arena
	// OnService holds on_service[resident, 0, week].
	OnService *Arena
	Objective []sat.PenaltyTerm
}

// Build registers every rule of d in m and returns the resulting
// plan. Residents are compiled concurrently; the order of the
// objective does not depend on scheduling.
func Build(ctx context.Context, m *sat.Model, d *Dataset, opts Options) (*Plan, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	rotations := d.rotations()
	p := &Plan{
		Residents: d.Residents(),
		Weeks:     d.Weeks,
	}
	for _, r := range rotations {
		p.Rotations = append(p.Rotations, r.Name)
	}
	p.Shifts = NewArena(len(p.Residents), len(rotations), d.Weeks)
	p.OnService = NewArena(len(p.Residents), 1, d.Weeks)
	for r, resident := range p.Residents {
		for s, rotation := range p.Rotations {
			for w := 0; w < d.Weeks; w++ {
				p.Shifts.Set(r, s, w, m.NewBool(fmt.Sprintf("shift[resident=%s rotation=%s week=%d]", resident, rotation, w)))
			}
		}
		for w := 0; w < d.Weeks; w++ {
			p.OnService.Set(r, 0, w, m.NewBool(fmt.Sprintf("on_service[resident=%s week=%d]", resident, w)))
		}
	}

	start := time.Now()
	groups := d.groupOf()
	objectives := make([][]sat.PenaltyTerm, len(p.Residents))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for r := range p.Residents {
		r := r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			terms, err := p.resident(m, d, rotations, groups[r], r)
			if err != nil {
				return errors.Wrapf(err, "resident %s", p.Residents[r])
			}
			objectives[r] = terms
			log.WithFields(logrus.Fields{
				"subject":   p.Residents[r],
				"penalties": len(terms),
			}).Debug("compiled resident")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, terms := range objectives {
		p.Objective = append(p.Objective, terms...)
	}

	for s, rot := range rotations {
		if rot.Headcount == nil {
			continue
		}
		weeks := d.Weeks
		if rot.HeadcountWeeks > 0 {
			weeks = rot.HeadcountWeeks
		}
		for w := 0; w < weeks; w++ {
			label := fmt.Sprintf("rotation=%s week=%d: headcount", rot.Name, w)
			if _, err := constraints.Sum(m, p.Shifts.Subjects(s, w), constraints.Exactly(*rot.Headcount), label); err != nil {
				return nil, errors.Wrapf(err, "rotation %s", rot.Name)
			}
		}
	}

	if err := m.Error(); err != nil {
		return nil, errors.Wrap(err, "building model")
	}
	log.WithFields(logrus.Fields{
		"residents": len(p.Residents),
		"rotations": len(p.Rotations),
		"weeks":     p.Weeks,
		"variables": m.Len(),
		"penalties": len(p.Objective),
		"elapsed":   time.Since(start),
	}).Info("compiled dataset")
	return p, nil
}

// resident registers every rule that concerns resident r alone.
func (p *Plan) resident(m *sat.Model, d *Dataset, rotations []Rotation, group *Group, r int) ([]sat.PenaltyTerm, error) {
	name := p.Residents[r]
	var objective []sat.PenaltyTerm
	collect := func(terms []sat.PenaltyTerm, err error) error {
		objective = append(objective, terms...)
		return err
	}

	for w := 0; w < d.Weeks; w++ {
		label := fmt.Sprintf("resident=%s week=%d: one rotation", name, w)
		if err := collect(constraints.Sum(m, p.Shifts.Across(r, w), atMostOne, label)); err != nil {
			return nil, err
		}
	}

	if d.Assigned != nil {
		label := fmt.Sprintf("resident=%s: assigned", name)
		if err := collect(constraints.Sum(m, constraints.Timeline(p.Shifts.Subject(r)), *d.Assigned, label)); err != nil {
			return nil, err
		}
	}

	for w := 0; w < d.Weeks; w++ {
		on := p.OnService.At(r, 0, w)
		label := fmt.Sprintf("resident=%s week=%d: on_service", name, w)
		some := []z.Lit{on.Not()}
		for s, rot := range rotations {
			if !rot.Service {
				continue
			}
			shift := p.Shifts.At(r, s, w)
			some = append(some, shift)
			m.AddClause(fmt.Sprintf("%s(rotation=%s)", label, rot.Name), shift.Not(), on)
		}
		m.AddClause(label, some...)
	}

	if group.Service != nil {
		label := fmt.Sprintf("resident=%s: service", name)
		if err := collect(constraints.Sum(m, p.OnService.Timeline(r, 0), *group.Service, label)); err != nil {
			return nil, err
		}
	}

	for s, rot := range rotations {
		if rot.Block == nil {
			continue
		}
		tl := p.Shifts.Timeline(r, s)
		label := fmt.Sprintf("resident=%s rotation=%s", name, rot.Name)
		switch rot.Block.Policy {
		case PolicyExact:
			if err := constraints.ExactLength(m, tl, rot.Block.Length, label); err != nil {
				return nil, err
			}
		case PolicyTwoOrFour:
			constraints.TwoOrFour(m, tl, label)
		case PolicySequence:
			if err := collect(constraints.Sequence(m, tl, *rot.Block.Spec, label)); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("rotation %s: unknown block policy %q", rot.Name, rot.Block.Policy)
		}
	}
	return objective, nil
}
