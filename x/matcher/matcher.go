/*
Package matcher tells which cosigners of a wallet signed a transaction.

Nothing is cached: every call decodes the payload it is given, so the answer
always reflects the signatures the payload actually carries.
*/
package matcher

import (
	"github.com/iov-one/multisafe/chain"
	"github.com/iov-one/multisafe/errors"
)

// Policy decides how a transaction spending several input programs is
// evaluated.
type Policy int

const (
	// FirstProgram lets the first input program stand for the whole
	// transaction.
	FirstProgram Policy = iota
	// EveryProgram counts a cosigner only if it signed every program that
	// lists its key.
	EveryProgram
)

func (p Policy) String() string {
	switch p {
	case FirstProgram:
		return "first"
	case EveryProgram:
		return "every"
	default:
		return "unknown"
	}
}

// ParsePolicy returns the policy of given name.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "first":
		return FirstProgram, nil
	case "every":
		return EveryProgram, nil
	default:
		return 0, errors.Wrapf(errors.ErrInput, "unknown policy %q", name)
	}
}

// SDK is the part of chain.SDK the matcher needs.
type SDK interface {
	MatchSigningPublicKeys(rawTx string, xpubs []string, allPrograms bool) ([]chain.SignerMatch, error)
	GetTransactionSignedInfo(rawTx string) ([]chain.SignedInfo, error)
}

type Matcher struct {
	sdk    SDK
	policy Policy
}

func New(sdk SDK, policy Policy) *Matcher {
	return &Matcher{sdk: sdk, policy: policy}
}

// Policy returns the policy the matcher was created with.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// Match returns one entry per distinct extended public key, in the order
// the keys were first given.
func (m *Matcher) Match(rawTx string, xpubs []string) ([]chain.SignerMatch, error) {
	keys := unique(xpubs)
	if len(keys) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "extended public keys")
	}
	res, err := m.sdk.MatchSigningPublicKeys(rawTx, keys, m.policy == EveryProgram)
	if err != nil {
		return nil, err
	}
	if len(res) != len(keys) {
		return nil, errors.Wrapf(errors.ErrState, "%d matches for %d keys", len(res), len(keys))
	}
	return res, nil
}

// HasCosignerSigned returns true if the owner of xpub signed rawTx.
func (m *Matcher) HasCosignerSigned(rawTx, xpub string) (bool, error) {
	res, err := m.Match(rawTx, []string{xpub})
	if err != nil {
		return false, err
	}
	return res[0].Signed, nil
}

// SignedCount returns how many distinct cosigners signed rawTx.
func (m *Matcher) SignedCount(rawTx string, xpubs []string) (int, error) {
	q, err := m.Quorum(rawTx, xpubs, len(xpubs))
	if err != nil {
		return 0, err
	}
	return q.Signed, nil
}

// Quorum is the signature progress of a transaction.
type Quorum struct {
	Signed   int
	Required int
	// Signers are the extended public keys that signed.
	Signers []string
}

// Reached returns true if enough cosigners signed.
func (q Quorum) Reached() bool {
	return q.Required > 0 && q.Signed >= q.Required
}

// Missing returns how many more signatures are needed.
func (q Quorum) Missing() int {
	if q.Reached() {
		return 0
	}
	return q.Required - q.Signed
}

// Quorum counts the distinct cosigners of xpubs that signed rawTx against
// the required number of signatures.
func (m *Matcher) Quorum(rawTx string, xpubs []string, required int) (Quorum, error) {
	if required < 1 {
		return Quorum{}, errors.Wrapf(errors.ErrInput, "%d required signatures", required)
	}
	res, err := m.Match(rawTx, xpubs)
	if err != nil {
		return Quorum{}, err
	}
	q := Quorum{Required: required}
	for _, r := range res {
		if r.Signed {
			q.Signed++
			q.Signers = append(q.Signers, r.XPubKey)
		}
	}
	return q, nil
}

// ProgramSigners returns the signers of every input program of rawTx.
func (m *Matcher) ProgramSigners(rawTx string) ([]chain.SignedInfo, error) {
	return m.sdk.GetTransactionSignedInfo(rawTx)
}

func unique(xpubs []string) []string {
	seen := make(map[string]struct{}, len(xpubs))
	res := make([]string, 0, len(xpubs))
	for _, x := range xpubs {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		res = append(res, x)
	}
	return res
}
