/*
Package chain declares the contract of a chain SDK as used by the multisig
Safe. An SDK knows the wire format of one chain family: how transactions are
built, signed, merged and made ready for broadcast.

All payloads crossing this boundary are hex encoded raw transactions.
*/
package chain

import (
	"github.com/iov-one/multisafe"
)

// SDK is implemented by every chain family supported by the multisig Safe.
type SDK interface {
	// CreateTransaction builds an unsigned payment spending inputs.
	CreateTransaction(inputs []multisafe.UTXO, outputs []multisafe.Output, fee int64, memo string) (string, error)
	// CreateVoteTransaction builds an unsigned vote spending inputs.
	CreateVoteTransaction(inputs []multisafe.UTXO, votes []multisafe.VoteContent, fee int64, memo string) (string, error)

	// SignTransaction adds the signature of the key unlocked by password to
	// every program that lists it.
	SignTransaction(rawTx string, password []byte) (SignOutcome, error)
	// MergeSignatures returns a payload carrying the valid signatures of
	// both payloads. Both must be the same transaction.
	MergeSignatures(a, b string) (string, error)
	// ConvertToRawTransaction returns the broadcast form of a transaction
	// that reached its quorum.
	ConvertToRawTransaction(rawTx string) (string, error)

	// GetTransactionSignedInfo returns one entry per input program.
	GetTransactionSignedInfo(rawTx string) ([]SignedInfo, error)
	// MatchSigningPublicKeys returns one entry per given key, in the order
	// keys were given. With allPrograms set, a key counts as signed only if
	// it signed every program that lists it, otherwise only the first
	// program is considered.
	MatchSigningPublicKeys(rawTx string, xpubs []string, allPrograms bool) ([]SignerMatch, error)

	DecodeTx(rawTx string) (DecodedTx, error)
	// Canonicalize returns the signature independent serialization of a
	// transaction.
	Canonicalize(rawTx string) ([]byte, error)
}

// SignOutcome is the result of a successful signing call.
type SignOutcome struct {
	RawTx string
	// AlreadySigned is set when the key had signed all its programs
	// before. RawTx is then the unchanged input.
	AlreadySigned bool
}

// SignedInfo describes the signatures of one input program.
type SignedInfo struct {
	// Signers are the compressed public keys, hex encoded, of the program
	// participants that produced a valid signature.
	Signers []string
	// Required is the threshold of the program.
	Required int
}

// SignerMatch tells whether the owner of an extended public key signed.
type SignerMatch struct {
	XPubKey string
	Signed  bool
}

// DecodedTx is a transaction read from its raw form.
type DecodedTx interface {
	// HashString returns the transaction id. It does not depend on the
	// signatures.
	HashString() string
	// Type tells which offline flow the transaction belongs to.
	Type() multisafe.OfflineTransactionType
}

// Loader returns the SDK of a network. It is called lazily by the Safe.
type Loader func(network string) (SDK, error)
