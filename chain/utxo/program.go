package utxo

import (
	"bytes"
	"encoding/hex"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/iov-one/multisafe/crypto"
	"github.com/iov-one/multisafe/crypto/bech32"
	"github.com/iov-one/multisafe/errors"
)

// Account is an M-of-N multisig account. Its redeem code lists the
// cosigner keys sorted by their serialization, so every cosigner computes
// the same code whatever order the extended keys were configured in.
type Account struct {
	RequiredSigners int
	ExtPubKeys      []string
	code            []byte
}

// NewAccount computes the redeem code of the account.
func NewAccount(required int, xpubs []string) (*Account, error) {
	if required < 1 || required > len(xpubs) {
		return nil, errors.Wrapf(errors.ErrInput, "%d of %d multisig", required, len(xpubs))
	}
	raw := make([][]byte, 0, len(xpubs))
	for _, xpub := range xpubs {
		pub, err := crypto.PublicKeyFromXPub(xpub)
		if err != nil {
			return nil, errors.Wrapf(err, "cosigner %s", xpub)
		}
		raw = append(raw, pub.Bytes())
	}
	sort.Slice(raw, func(i, j int) bool { return bytes.Compare(raw[i], raw[j]) < 0 })

	keys := make([]*btcutil.AddressPubKey, len(raw))
	for i, r := range raw {
		if i > 0 && bytes.Equal(raw[i-1], r) {
			return nil, errors.Wrap(errors.ErrDuplicate, "cosigner key")
		}
		k, err := btcutil.NewAddressPubKey(r, &chaincfg.MainNetParams)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, err.Error())
		}
		keys[i] = k
	}
	code, err := txscript.MultiSigScript(keys, required)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &Account{
		RequiredSigners: required,
		ExtPubKeys:      append([]string(nil), xpubs...),
		code:            code,
	}, nil
}

// Code returns the redeem code.
func (a *Account) Code() []byte {
	return a.code
}

// Address returns the address of the account on given network.
func (a *Account) Address(params *Params) (string, error) {
	return CodeAddress(params, a.code)
}

// CodeAddress returns the address that given redeem code unlocks.
func CodeAddress(params *Params, code []byte) (string, error) {
	return bech32.Encode(params.AddressHRP, btcutil.Hash160(code))
}

// program is a parsed redeem code.
type program struct {
	required int
	keys     []*crypto.PublicKey
}

func parseProgram(code []byte) (*program, error) {
	if len(code) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "program code")
	}
	class, addrs, required, err := txscript.ExtractPkScriptAddrs(code, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	if class != txscript.MultiSigTy {
		return nil, errors.Wrapf(errors.ErrType, "%s program", class)
	}
	p := program{required: required, keys: make([]*crypto.PublicKey, len(addrs))}
	for i, a := range addrs {
		pk, ok := a.(*btcutil.AddressPubKey)
		if !ok {
			return nil, errors.Wrapf(errors.ErrType, "program key %T", a)
		}
		key, err := crypto.ParsePublicKey(pk.ScriptAddress())
		if err != nil {
			return nil, err
		}
		p.keys[i] = key
	}
	return &p, nil
}

// index returns the position of the key in the program, or -1.
func (p *program) index(key *crypto.PublicKey) int {
	for i, k := range p.keys {
		if k.Equals(key) {
			return i
		}
	}
	return -1
}

// signatures returns the valid signatures of given parameters keyed by the
// index of the signing key. Invalid or repeated signatures are dropped.
func (p *program) signatures(digest []byte, params [][]byte) map[int][]byte {
	sigs := make(map[int][]byte, len(params))
	for _, sig := range params {
		for i, k := range p.keys {
			if _, ok := sigs[i]; ok {
				continue
			}
			if k.Verify(digest, sig) {
				sigs[i] = sig
				break
			}
		}
	}
	return sigs
}

// parameters orders the signatures as the keys of the program. When limit
// is positive, at most limit signatures are returned.
func (p *program) parameters(sigs map[int][]byte, limit int) [][]byte {
	var params [][]byte
	for i := range p.keys {
		sig, ok := sigs[i]
		if !ok {
			continue
		}
		if limit > 0 && len(params) == limit {
			break
		}
		params = append(params, sig)
	}
	return params
}

// signers returns the hex encoded keys that produced given signatures, in
// program order.
func (p *program) signers(sigs map[int][]byte) []string {
	var res []string
	for i, k := range p.keys {
		if _, ok := sigs[i]; ok {
			res = append(res, hex.EncodeToString(k.Bytes()))
		}
	}
	return res
}
