/*
Package crypto provides the secp256k1 key material used by cosigners.

Every cosigner is identified by a BIP32 extended public key (xpub). The
signing key of a cosigner is the root key of its extended key, so the same
xpub always resolves to the same public key on every device.
*/
package crypto

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/iov-one/multisafe/errors"
)

// DigestLen is the length of a digest accepted by Sign and Verify.
const DigestLen = 32

// PublicKey is a secp256k1 public key of a cosigner.
type PublicKey struct {
	key *btcec.PublicKey
}

// ParsePublicKey decodes a compressed or uncompressed serialized key.
func ParsePublicKey(raw []byte) (*PublicKey, error) {
	key, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &PublicKey{key: key}, nil
}

// PublicKeyFromXPub returns the signing key identified by given extended
// public key. Extended private keys are rejected.
func PublicKeyFromXPub(xpub string) (*PublicKey, error) {
	ext, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	if ext.IsPrivate() {
		return nil, errors.Wrap(errors.ErrInput, "private extended key given where public is expected")
	}
	key, err := ext.ECPubKey()
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &PublicKey{key: key}, nil
}

// Bytes returns the compressed serialization of the key.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeCompressed()
}

// Equals returns true if both keys represent the same point.
func (p *PublicKey) Equals(other *PublicKey) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.key.IsEqual(other.key)
}

// Verify returns true if the DER encoded signature was created for this
// digest by the private counterpart of this key.
func (p *PublicKey) Verify(digest, sig []byte) bool {
	if len(digest) != DigestLen {
		return false
	}
	s, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(digest, p.key)
}

// PrivateKey is a secp256k1 private key of a cosigner.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// PrivateKeyFromXPrv returns the signing key of given extended private key.
func PrivateKeyFromXPrv(xprv string) (*PrivateKey, error) {
	ext, err := hdkeychain.NewKeyFromString(xprv)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	key, err := ext.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &PrivateKey{key: key}, nil
}

// PublicKey returns the public counterpart of this key.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: p.key.PubKey()}
}

// Sign returns a DER encoded signature of given digest. Signatures are
// deterministic (RFC6979), signing the same digest twice gives the same
// bytes.
func (p *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if len(digest) != DigestLen {
		return nil, errors.Wrapf(errors.ErrInput, "digest must be %d bytes", DigestLen)
	}
	return ecdsa.Sign(p.key, digest).Serialize(), nil
}

// Zero clears the key material from memory.
func (p *PrivateKey) Zero() {
	p.key.Zero()
}

// GenerateSeed returns a random seed of recommended length.
func GenerateSeed() ([]byte, error) {
	seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return seed, nil
}

// NewExtendedKey derives the master extended key pair from a seed.
func NewExtendedKey(seed []byte) (xprv, xpub string, err error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return "", "", errors.Wrap(errors.ErrInput, err.Error())
	}
	pub, err := master.Neuter()
	if err != nil {
		return "", "", errors.Wrap(errors.ErrInput, err.Error())
	}
	return master.String(), pub.String(), nil
}

// Neuter returns the extended public key of given extended private key.
func Neuter(xprv string) (string, error) {
	ext, err := hdkeychain.NewKeyFromString(xprv)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	pub, err := ext.Neuter()
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	return pub.String(), nil
}
