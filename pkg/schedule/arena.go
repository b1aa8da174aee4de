package schedule

import (
	"fmt"

	"github.com/go-air/gini/z"

	"github.com/rotaplan/rotaplan/pkg/constraints"
)

// Arena stores one literal per (subject, category, time) triple.
// Every (subject, category) timeline is contiguous.
type Arena struct {
	subjects, categories, times int
	lits                        []z.Lit
}

func NewArena(subjects, categories, times int) *Arena {
	return &Arena{
		subjects:   subjects,
		categories: categories,
		times:      times,
		lits:       make([]z.Lit, subjects*categories*times),
	}
}

// Dims returns the number of subjects, categories and time units.
func (a *Arena) Dims() (subjects, categories, times int) {
	return a.subjects, a.categories, a.times
}

func (a *Arena) index(s, c, t int) int {
	if s < 0 || s >= a.subjects || c < 0 || c >= a.categories || t < 0 || t >= a.times {
		panic(fmt.Sprintf("arena index (%d, %d, %d) out of range (%d, %d, %d)", s, c, t, a.subjects, a.categories, a.times))
	}
	return (s*a.categories+c)*a.times + t
}

func (a *Arena) Set(s, c, t int, m z.Lit) {
	a.lits[a.index(s, c, t)] = m
}

func (a *Arena) At(s, c, t int) z.Lit {
	return a.lits[a.index(s, c, t)]
}

// Timeline returns the literals of subject s in category c, in time
// order. The result must not be modified.
func (a *Arena) Timeline(s, c int) constraints.Timeline {
	i := a.index(s, c, 0)
	return constraints.Timeline(a.lits[i : i+a.times : i+a.times])
}

// Across returns the literals of subject s at time t, one per
// category.
func (a *Arena) Across(s, t int) []z.Lit {
	out := make([]z.Lit, a.categories)
	for c := range out {
		out[c] = a.At(s, c, t)
	}
	return out
}

// Subjects returns the literals of category c at time t, one per
// subject.
func (a *Arena) Subjects(c, t int) []z.Lit {
	out := make([]z.Lit, a.subjects)
	for s := range out {
		out[s] = a.At(s, c, t)
	}
	return out
}

// Subject returns every literal of subject s.
func (a *Arena) Subject(s int) []z.Lit {
	i := a.index(s, 0, 0)
	n := a.categories * a.times
	return a.lits[i : i+n : i+n]
}
