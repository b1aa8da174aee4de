package sat

import (
	"fmt"

	"github.com/mitchellh/hashstructure"
)

type shape struct {
	Variables   int
	Constraints map[string]int
	Domains     map[string]int
}

// Fingerprint hashes the structure of a model: how many variables
// it has, how many constraints of each kind and arity, and how many
// integers of each domain. Two models built by the same sequence of
// calls have equal fingerprints regardless of variable identities or
// registration order.
func Fingerprint(m *Model) (uint64, error) {
	m.mu.Lock()
	s := shape{
		Variables:   len(m.inputs),
		Constraints: make(map[string]int),
		Domains:     make(map[string]int),
	}
	for _, as := range m.constraints {
		for _, a := range as {
			s.Constraints[fmt.Sprintf("%s/%d", a.Kind, a.Arity)]++
		}
	}
	for _, x := range m.ints {
		s.Domains[fmt.Sprintf("%d..%d", x.lo, x.hi)]++
	}
	m.mu.Unlock()
	return hashstructure.Hash(s, nil)
}
