/*
Package utxo implements the chain SDK of a UTXO chain whose coins are held by
M-of-N multisig programs.

A transaction spends inputs of one or more multisig addresses. For every
spent address the transaction carries a program: the redeem code listing the
cosigner keys and the signatures collected so far. Signatures cover the
transaction with all program parameters removed, so adding a signature never
changes what the other cosigners sign nor the transaction id.
*/
package utxo

import (
	"bytes"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain"
	"github.com/iov-one/multisafe/crypto"
	"github.com/iov-one/multisafe/crypto/bech32"
	"github.com/iov-one/multisafe/errors"
)

// Config configures an SDK instance.
type Config struct {
	Params *Params
	// Accounts whose inputs can be spent. The first one is the wallet
	// account and receives the change.
	Accounts []*Account
	// Keystore of this device. Without it the SDK is watch only and
	// cannot sign.
	Keystore *crypto.Keystore
}

// SDK implements chain.SDK.
type SDK struct {
	params   *Params
	accounts map[string]*Account
	change   string
	keystore *crypto.Keystore
}

var _ chain.SDK = (*SDK)(nil)

// NewSDK returns an SDK for the configured accounts.
func NewSDK(cfg Config) (*SDK, error) {
	if cfg.Params == nil {
		return nil, errors.Wrap(errors.ErrNetwork, "missing params")
	}
	if len(cfg.Accounts) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "accounts")
	}
	s := SDK{
		params:   cfg.Params,
		accounts: make(map[string]*Account, len(cfg.Accounts)),
		keystore: cfg.Keystore,
	}
	for i, a := range cfg.Accounts {
		addr, err := a.Address(cfg.Params)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			s.change = addr
		}
		s.accounts[addr] = a
	}
	return &s, nil
}

// Params returns the network parameters of this SDK.
func (s *SDK) Params() *Params {
	return s.params
}

// Address returns the address of the wallet account.
func (s *SDK) Address() string {
	return s.change
}

// CreateTransaction builds an unsigned transfer. Whatever the inputs hold
// above outputs and fee is returned to the wallet address.
func (s *SDK) CreateTransaction(inputs []multisafe.UTXO, outputs []multisafe.Output, fee int64, memo string) (string, error) {
	if len(outputs) == 0 {
		return "", errors.Wrap(errors.ErrEmpty, "outputs")
	}
	tx, err := s.newTransaction(TxTypeTransfer, inputs, outputs, fee, memo)
	if err != nil {
		return "", err
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}
	return Encode(tx)
}

// CreateVoteTransaction builds an unsigned vote. The vote weight is backed
// by the spent inputs, all of which return to the wallet address.
func (s *SDK) CreateVoteTransaction(inputs []multisafe.UTXO, votes []multisafe.VoteContent, fee int64, memo string) (string, error) {
	if !s.params.Votes {
		return "", errors.Wrapf(errors.ErrType, "network %s does not accept votes", s.params.Name)
	}
	if len(votes) == 0 {
		return "", errors.Wrap(errors.ErrEmpty, "votes")
	}
	tx, err := s.newTransaction(TxTypeVote, inputs, nil, fee, memo)
	if err != nil {
		return "", err
	}

	var total int64
	for _, in := range tx.Inputs {
		total += in.Amount
	}
	payload := VotePayload{}
	for i, v := range votes {
		if v.Type == "" {
			return "", errors.Field(fieldIndex("Votes", i), errors.ErrEmpty, "type")
		}
		if len(v.Candidates) == 0 {
			return "", errors.Field(fieldIndex("Votes", i), errors.ErrEmpty, "candidates")
		}
		content := VoteContent{Type: v.Type}
		var weight int64
		for _, c := range v.Candidates {
			if c.Candidate == "" || c.Votes <= 0 {
				return "", errors.Field(fieldIndex("Votes", i), errors.ErrInput, "candidate %q", c.Candidate)
			}
			weight += c.Votes
			if weight > total {
				return "", errors.Field(fieldIndex("Votes", i), errors.ErrAmount, "%d votes above %d balance", weight, total)
			}
			content.Candidates = append(content.Candidates, &VoteCandidate{Candidate: c.Candidate, Votes: c.Votes})
		}
		payload.Contents = append(payload.Contents, &content)
	}
	tx.Payload = &payload
	if err := tx.Validate(); err != nil {
		return "", err
	}
	return Encode(tx)
}

// newTransaction returns a transaction spending the inputs. It is not
// validated, callers complete it first.
func (s *SDK) newTransaction(txType uint32, inputs []multisafe.UTXO, outputs []multisafe.Output, fee int64, memo string) (*Transaction, error) {
	if len(inputs) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "inputs")
	}
	if fee < 0 {
		return nil, errors.Wrap(errors.ErrAmount, "negative fee")
	}
	tx := Transaction{
		Version: TxVersion,
		TxType:  txType,
		Fee:     fee,
		Memo:    memo,
	}

	var total int64
	programs := make(map[string]bool)
	for i, in := range inputs {
		hash, err := chainhash.NewHashFromStr(in.TxHash)
		if err != nil {
			return nil, errors.Field(fieldIndex("Inputs", i), errors.ErrInput, "tx hash")
		}
		account, ok := s.accounts[in.Address]
		if !ok {
			return nil, errors.Field(fieldIndex("Inputs", i), errors.ErrUnauthorized, "address %s is not a wallet account", in.Address)
		}
		if in.Amount <= 0 {
			return nil, errors.Field(fieldIndex("Inputs", i), errors.ErrAmount, "")
		}
		if total > math.MaxInt64-in.Amount {
			return nil, errors.Wrap(errors.ErrOverflow, "inputs")
		}
		total += in.Amount
		tx.Inputs = append(tx.Inputs, &Input{
			TxHash:   hash[:],
			Index:    in.Index,
			Sequence: math.MaxUint32,
			Address:  in.Address,
			Amount:   in.Amount,
		})
		if !programs[in.Address] {
			programs[in.Address] = true
			tx.Programs = append(tx.Programs, &Program{Code: account.Code()})
		}
	}

	spend := fee
	for i, out := range outputs {
		if _, err := bech32.DecodeWithPrefix(out.Address, s.params.AddressHRP); err != nil {
			return nil, errors.Field(fieldIndex("Outputs", i), err, "address")
		}
		if out.Amount <= 0 {
			return nil, errors.Field(fieldIndex("Outputs", i), errors.ErrAmount, "")
		}
		if spend > math.MaxInt64-out.Amount {
			return nil, errors.Wrap(errors.ErrOverflow, "outputs")
		}
		spend += out.Amount
		tx.Outputs = append(tx.Outputs, &Output{Address: out.Address, Amount: out.Amount})
	}
	if spend > total {
		return nil, errors.Wrapf(errors.ErrAmount, "insufficient funds: %d available, %d required", total, spend)
	}
	if change := total - spend; change > 0 {
		tx.Outputs = append(tx.Outputs, &Output{Address: s.change, Amount: change})
	}
	return &tx, nil
}

// SignTransaction adds the signature of this device to every program that
// lists its key. If all those programs already carry a valid signature of
// the key, the input is returned unchanged and AlreadySigned is set.
func (s *SDK) SignTransaction(rawTx string, password []byte) (chain.SignOutcome, error) {
	if s.keystore == nil {
		return chain.SignOutcome{}, errors.Wrap(errors.ErrState, "watch only wallet cannot sign")
	}
	tx, err := Decode(rawTx)
	if err != nil {
		return chain.SignOutcome{}, err
	}
	digest, err := tx.Digest()
	if err != nil {
		return chain.SignOutcome{}, err
	}
	key, err := s.keystore.PrivateKey(password)
	if err != nil {
		return chain.SignOutcome{}, err
	}
	defer key.Zero()
	pub := key.PublicKey()

	var listed, added bool
	for i, p := range tx.Programs {
		prog, err := parseProgram(p.Code)
		if err != nil {
			return chain.SignOutcome{}, errors.Wrapf(err, "program %d", i)
		}
		idx := prog.index(pub)
		if idx < 0 {
			continue
		}
		listed = true
		sigs := prog.signatures(digest, p.Parameters)
		if _, ok := sigs[idx]; !ok {
			sig, err := key.Sign(digest)
			if err != nil {
				return chain.SignOutcome{}, errors.Wrap(errors.ErrSignature, err.Error())
			}
			sigs[idx] = sig
			added = true
		}
		p.Parameters = prog.parameters(sigs, 0)
	}
	if !listed {
		return chain.SignOutcome{}, errors.Wrap(errors.ErrUnauthorized, "key is not a cosigner of this transaction")
	}
	if !added {
		return chain.SignOutcome{RawTx: rawTx, AlreadySigned: true}, nil
	}
	signed, err := Encode(tx)
	if err != nil {
		return chain.SignOutcome{}, err
	}
	return chain.SignOutcome{RawTx: signed}, nil
}

// MergeSignatures returns the first payload carrying the valid signatures
// of both.
func (s *SDK) MergeSignatures(a, b string) (string, error) {
	ta, err := Decode(a)
	if err != nil {
		return "", err
	}
	tb, err := Decode(b)
	if err != nil {
		return "", err
	}
	ca, err := ta.SignBytes()
	if err != nil {
		return "", err
	}
	cb, err := tb.SignBytes()
	if err != nil {
		return "", err
	}
	if !bytes.Equal(ca, cb) {
		return "", errors.Wrap(errors.ErrInput, "cannot merge signatures of different transactions")
	}
	digest := chainhash.DoubleHashB(ca)
	for i, p := range ta.Programs {
		prog, err := parseProgram(p.Code)
		if err != nil {
			return "", errors.Wrapf(err, "program %d", i)
		}
		all := make([][]byte, 0, len(p.Parameters)+len(tb.Programs[i].Parameters))
		all = append(all, p.Parameters...)
		all = append(all, tb.Programs[i].Parameters...)
		p.Parameters = prog.parameters(prog.signatures(digest, all), 0)
	}
	return Encode(ta)
}

// ConvertToRawTransaction returns the broadcast form of the transaction.
// Every program is trimmed to exactly the number of signatures it requires.
func (s *SDK) ConvertToRawTransaction(rawTx string) (string, error) {
	tx, err := Decode(rawTx)
	if err != nil {
		return "", err
	}
	digest, err := tx.Digest()
	if err != nil {
		return "", err
	}
	for i, p := range tx.Programs {
		prog, err := parseProgram(p.Code)
		if err != nil {
			return "", errors.Wrapf(err, "program %d", i)
		}
		sigs := prog.signatures(digest, p.Parameters)
		if len(sigs) < prog.required {
			return "", errors.Wrapf(errors.ErrState, "program %d has %d of %d signatures", i, len(sigs), prog.required)
		}
		p.Parameters = prog.parameters(sigs, prog.required)
	}
	return Encode(tx)
}

// GetTransactionSignedInfo returns the valid signers of every program.
func (s *SDK) GetTransactionSignedInfo(rawTx string) ([]chain.SignedInfo, error) {
	tx, err := Decode(rawTx)
	if err != nil {
		return nil, err
	}
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}
	info := make([]chain.SignedInfo, len(tx.Programs))
	for i, p := range tx.Programs {
		prog, err := parseProgram(p.Code)
		if err != nil {
			return nil, errors.Wrapf(err, "program %d", i)
		}
		info[i] = chain.SignedInfo{
			Signers:  prog.signers(prog.signatures(digest, p.Parameters)),
			Required: prog.required,
		}
	}
	return info, nil
}

// MatchSigningPublicKeys tells for every extended key whether its owner
// signed the transaction.
func (s *SDK) MatchSigningPublicKeys(rawTx string, xpubs []string, allPrograms bool) ([]chain.SignerMatch, error) {
	tx, err := Decode(rawTx)
	if err != nil {
		return nil, err
	}
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}

	type signedProgram struct {
		prog *program
		sigs map[int][]byte
	}
	programs := make([]signedProgram, len(tx.Programs))
	for i, p := range tx.Programs {
		prog, err := parseProgram(p.Code)
		if err != nil {
			return nil, errors.Wrapf(err, "program %d", i)
		}
		programs[i] = signedProgram{prog: prog, sigs: prog.signatures(digest, p.Parameters)}
	}
	if !allPrograms {
		programs = programs[:1]
	}

	matches := make([]chain.SignerMatch, len(xpubs))
	for i, xpub := range xpubs {
		pub, err := crypto.PublicKeyFromXPub(xpub)
		if err != nil {
			return nil, errors.Wrapf(err, "cosigner %d", i)
		}
		var listed, missing bool
		for _, sp := range programs {
			idx := sp.prog.index(pub)
			if idx < 0 {
				continue
			}
			listed = true
			if _, ok := sp.sigs[idx]; !ok {
				missing = true
			}
		}
		matches[i] = chain.SignerMatch{XPubKey: xpub, Signed: listed && !missing}
	}
	return matches, nil
}

// DecodeTx parses a raw transaction.
func (s *SDK) DecodeTx(rawTx string) (chain.DecodedTx, error) {
	tx, err := Decode(rawTx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Canonicalize returns the serialization of the transaction without
// signatures.
func (s *SDK) Canonicalize(rawTx string) ([]byte, error) {
	tx, err := Decode(rawTx)
	if err != nil {
		return nil, err
	}
	return tx.SignBytes()
}
