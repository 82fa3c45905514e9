/*
Package safetest provides fixtures for testing the multisig signing flow:
deterministic cosigners, wallets and scripted collaborators.
*/
package safetest

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/crypto"
)

// Cosigner is the key material of one device. The keystore is encrypted
// with a cheap scrypt cost so that tests stay fast.
type Cosigner struct {
	Name     string
	XPrv     string
	XPub     string
	Password []byte
	Keystore *crypto.Keystore
}

// NewCosigner returns a cosigner whose keys are derived from its name. The
// same name always gives the same keys.
func NewCosigner(t testing.TB, name string) *Cosigner {
	t.Helper()
	xprv, xpub, err := crypto.NewExtendedKey(chainhash.HashB([]byte(name)))
	if err != nil {
		t.Fatalf("cannot create %s keys: %s", name, err)
	}
	password := []byte(name + "-password")
	ks, err := crypto.NewKeystore(xprv, password, crypto.LightScryptN)
	if err != nil {
		t.Fatalf("cannot create %s keystore: %s", name, err)
	}
	return &Cosigner{
		Name:     name,
		XPrv:     xprv,
		XPub:     xpub,
		Password: password,
		Keystore: ks,
	}
}

// NewCosigners returns cosigners named "alice", "bob", "carol" and so on.
func NewCosigners(t testing.TB, n int) []*Cosigner {
	t.Helper()
	names := []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace"}
	if n > len(names) {
		t.Fatalf("at most %d cosigners available", len(names))
	}
	res := make([]*Cosigner, n)
	for i := range res {
		res[i] = NewCosigner(t, names[i])
	}
	return res
}

// XPubs returns the extended public keys of given cosigners.
func XPubs(cosigners ...*Cosigner) []string {
	res := make([]string, len(cosigners))
	for i, c := range cosigners {
		res[i] = c.XPub
	}
	return res
}

// WalletFor returns the master wallet as seen from the device of own.
func WalletFor(t testing.TB, id string, required int, own *Cosigner, all []*Cosigner) *multisafe.MasterWallet {
	t.Helper()
	w := multisafe.MasterWallet{
		ID:              id,
		RequiredSigners: required,
		ExtPubKey:       own.XPub,
	}
	for _, c := range all {
		if c.XPub != own.XPub {
			w.SignersExtPubKeys = append(w.SignersExtPubKeys, c.XPub)
		}
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("invalid wallet: %+v", err)
	}
	return &w
}

// TxHash returns a deterministic previous transaction hash for UTXO
// fixtures.
func TxHash(seed string) string {
	return chainhash.DoubleHashH([]byte(seed)).String()
}
