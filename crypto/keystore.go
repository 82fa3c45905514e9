package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"

	"github.com/iov-one/multisafe/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	keystoreVersion = 1

	// StandardScryptN is the scrypt cost used for keystores on a device.
	StandardScryptN = 1 << 18
	// LightScryptN is a cheap scrypt cost, meant for tests only.
	LightScryptN = 1 << 12

	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
)

// Keystore holds an extended private key encrypted with a key derived from
// the wallet password. The extended public key is kept in clear so that the
// cosigner identity can be read without the password.
type Keystore struct {
	Version    int    `json:"version"`
	ExtPubKey  string `json:"xpub"`
	ScryptN    int    `json:"scrypt_n"`
	ScryptR    int    `json:"scrypt_r"`
	ScryptP    int    `json:"scrypt_p"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	CipherText []byte `json:"ciphertext"`
}

// NewKeystore encrypts given extended private key using the password.
func NewKeystore(xprv string, password []byte, scryptN int) (*Keystore, error) {
	if len(password) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "password")
	}
	xpub, err := Neuter(xprv)
	if err != nil {
		return nil, err
	}
	ks := Keystore{
		Version:   keystoreVersion,
		ExtPubKey: xpub,
		ScryptN:   scryptN,
		ScryptR:   scryptR,
		ScryptP:   scryptP,
		Salt:      make([]byte, saltLen),
	}
	if _, err := io.ReadFull(rand.Reader, ks.Salt); err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	aead, err := ks.aead(password)
	if err != nil {
		return nil, err
	}
	ks.Nonce = make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, ks.Nonce); err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	ks.CipherText = aead.Seal(nil, ks.Nonce, []byte(xprv), []byte(ks.ExtPubKey))
	return &ks, nil
}

// Validate returns an error if the keystore is not complete.
func (ks *Keystore) Validate() error {
	var errs error
	if ks.Version != keystoreVersion {
		errs = errors.AppendField(errs, "Version", errors.ErrInput)
	}
	if _, err := PublicKeyFromXPub(ks.ExtPubKey); err != nil {
		errs = errors.AppendField(errs, "ExtPubKey", err)
	}
	if ks.ScryptN <= 1 || ks.ScryptR <= 0 || ks.ScryptP <= 0 {
		errs = errors.AppendField(errs, "ScryptN", errors.ErrInput)
	}
	if len(ks.Salt) == 0 {
		errs = errors.AppendField(errs, "Salt", errors.ErrEmpty)
	}
	if len(ks.Nonce) == 0 {
		errs = errors.AppendField(errs, "Nonce", errors.ErrEmpty)
	}
	if len(ks.CipherText) == 0 {
		errs = errors.AppendField(errs, "CipherText", errors.ErrEmpty)
	}
	return errs
}

// PrivateKey decrypts the signing key. A wrong password results in
// errors.ErrUnauthorized. Callers must Zero the returned key when done.
func (ks *Keystore) PrivateKey(password []byte) (*PrivateKey, error) {
	if err := ks.Validate(); err != nil {
		return nil, errors.Wrap(err, "keystore")
	}
	aead, err := ks.aead(password)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, ks.Nonce, ks.CipherText, []byte(ks.ExtPubKey))
	if err != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid password")
	}
	defer clear(plain)
	return PrivateKeyFromXPrv(string(plain))
}

func (ks *Keystore) aead(password []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, ks.Salt, ks.ScryptN, ks.ScryptR, ks.ScryptP, scryptKeyLen)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	defer clear(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	return aead, nil
}

// LoadKeystore reads a JSON keystore file.
func LoadKeystore(path string) (*Keystore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotFound, err.Error())
	}
	var ks Keystore
	if err := json.Unmarshal(raw, &ks); err != nil {
		return nil, errors.Wrap(errors.ErrEncoding, err.Error())
	}
	if err := ks.Validate(); err != nil {
		return nil, errors.Wrapf(err, "keystore %s", path)
	}
	return &ks, nil
}

// Save writes the keystore as JSON, readable by the owner only.
func (ks *Keystore) Save(path string) error {
	raw, err := json.MarshalIndent(ks, "", "\t")
	if err != nil {
		return errors.Wrap(errors.ErrEncoding, err.Error())
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}
