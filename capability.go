package multisafe

import (
	"sort"
	"strings"
)

// Operation is a kind of transaction a Safe may be able to create.
type Operation string

const (
	OpPayment        Operation = "payment"
	OpVote           Operation = "vote"
	OpProposal       Operation = "proposal"
	OpDIDPublication Operation = "did-publication"
)

// CapabilitySet is the set of operations supported by a wallet kind on a
// network. Callers consult it before requesting an operation instead of
// interpreting an absent result.
type CapabilitySet map[Operation]struct{}

// NewCapabilitySet returns a set with given operations.
func NewCapabilitySet(ops ...Operation) CapabilitySet {
	s := make(CapabilitySet, len(ops))
	for _, op := range ops {
		s[op] = struct{}{}
	}
	return s
}

// Has returns true if the operation is supported.
func (s CapabilitySet) Has(op Operation) bool {
	_, ok := s[op]
	return ok
}

// Operations returns the supported operations in lexical order.
func (s CapabilitySet) Operations() []Operation {
	ops := make([]Operation, 0, len(s))
	for op := range s {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

func (s CapabilitySet) String() string {
	names := make([]string, 0, len(s))
	for _, op := range s.Operations() {
		names = append(names, string(op))
	}
	return strings.Join(names, ",")
}
