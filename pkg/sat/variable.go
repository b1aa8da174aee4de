package sat

import (
	"fmt"

	"github.com/go-air/gini/z"
)

// Identifier values uniquely identify particular variables and
// constraints within a single Model.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// IdentifierFromString returns an Identifier based on a provided
// string.
func IdentifierFromString(s string) Identifier {
	return Identifier(s)
}

// Clause is a disjunction of literals. Registered with a Model it
// is a permanent hard constraint: at least one literal must hold.
type Clause []z.Lit

// Assignment holds the truth value of every variable of a solved
// Problem, indexed by z.Var.
type Assignment []bool

// Value returns the value of the literal m under the receiver.
// Variables outside the assignment read as false.
func (a Assignment) Value(m z.Lit) bool {
	v := int(m.Var())
	if v <= 0 || v >= len(a) {
		return !m.IsPos()
	}
	if m.IsPos() {
		return a[v]
	}
	return !a[v]
}

// IntVar is a bounded integer in order encoding: for every k in
// (lo, hi] there is one literal that holds iff the value is at
// least k.
type IntVar struct {
	id     Identifier
	lo, hi int
	ge     []z.Lit
	t      z.Lit
}

// Identifier returns the name the variable was created with.
func (x *IntVar) Identifier() Identifier {
	return x.id
}

// Bounds returns the inclusive domain of the variable.
func (x *IntVar) Bounds() (lo, hi int) {
	return x.lo, x.hi
}

// Geq returns a literal that holds iff the variable is at least k.
func (x *IntVar) Geq(k int) z.Lit {
	if k <= x.lo {
		return x.t
	}
	if k > x.hi {
		return x.t.Not()
	}
	return x.ge[k-x.lo-1]
}

// Leq returns a literal that holds iff the variable is at most k.
func (x *IntVar) Leq(k int) z.Lit {
	return x.Geq(k + 1).Not()
}

// Value decodes the variable under an assignment.
func (x *IntVar) Value(a Assignment) int {
	n := x.lo
	for _, m := range x.ge {
		if a.Value(m) {
			n++
		}
	}
	return n
}

func (x *IntVar) String() string {
	return fmt.Sprintf("%s[%d..%d]", x.id, x.lo, x.hi)
}

// Affine is the integer expression Coeff*X + Offset. Coeff must be
// 1 or -1; a nil X denotes the constant Offset.
type Affine struct {
	X      *IntVar
	Coeff  int
	Offset int
}

// geq returns a literal that holds iff the expression is at least k.
func (e Affine) geq(k int, t z.Lit) (z.Lit, error) {
	if e.X == nil {
		if e.Offset >= k {
			return t, nil
		}
		return t.Not(), nil
	}
	switch e.Coeff {
	case 1:
		return e.X.Geq(k - e.Offset), nil
	case -1:
		return e.X.Leq(e.Offset - k), nil
	}
	return z.LitNull, fmt.Errorf("unsupported coefficient %d on %s", e.Coeff, e.X.id)
}
