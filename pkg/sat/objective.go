package sat

import (
	"fmt"
	"sort"

	"github.com/go-air/gini/z"
)

// PenaltyTerm is one additive component of an objective: Coeff times
// the value of either a boolean literal or an integer variable.
// Exactly one of Lit and Int is set.
type PenaltyTerm struct {
	Lit   z.Lit
	Int   *IntVar
	Coeff int
}

// BoolPenalty returns the term coeff × lit.
func BoolPenalty(lit z.Lit, coeff int) PenaltyTerm {
	return PenaltyTerm{Lit: lit, Coeff: coeff}
}

// IntPenalty returns the term coeff × x.
func IntPenalty(x *IntVar, coeff int) PenaltyTerm {
	return PenaltyTerm{Int: x, Coeff: coeff}
}

// Value returns the contribution of the term under an assignment.
func (t PenaltyTerm) Value(a Assignment) int {
	if t.Int != nil {
		return t.Coeff * t.Int.Value(a)
	}
	if a.Value(t.Lit) {
		return t.Coeff
	}
	return 0
}

func (t PenaltyTerm) String() string {
	if t.Int != nil {
		return fmt.Sprintf("%d*%s", t.Coeff, t.Int.Identifier())
	}
	return fmt.Sprintf("%d*%s", t.Coeff, t.Lit)
}

// WeightedLit is a literal of a pseudo-boolean objective together
// with the cost incurred when it holds.
type WeightedLit struct {
	Lit    z.Lit
	Weight int
}

// linearize rewrites penalty terms into a constant plus a sum of
// weighted literals, merging repeated literals. Integer terms
// contribute their lower bound to the constant and one literal per
// unit above it.
func linearize(terms []PenaltyTerm) (offset int, lits []WeightedLit, err error) {
	weights := make(map[z.Lit]int)
	for _, t := range terms {
		if t.Coeff < 0 {
			return 0, nil, fmt.Errorf("penalty %s has a negative coefficient", t)
		}
		if t.Coeff == 0 {
			continue
		}
		if t.Int != nil {
			offset += t.Coeff * t.Int.lo
			for _, m := range t.Int.ge {
				weights[m] += t.Coeff
			}
			continue
		}
		if t.Lit == z.LitNull {
			return 0, nil, fmt.Errorf("penalty term with neither a literal nor an integer")
		}
		weights[t.Lit] += t.Coeff
	}
	for m, w := range weights {
		lits = append(lits, WeightedLit{Lit: m, Weight: w})
	}
	sort.Slice(lits, func(i, j int) bool {
		return lits[i].Lit < lits[j].Lit
	})
	return offset, lits, nil
}
