package multisafe

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/iov-one/multisafe/crypto"
	"github.com/iov-one/multisafe/errors"
)

// MasterWallet describes an M-of-N multisig wallet as seen from one
// cosigner device. It is immutable once created: changing the cosigner set
// requires a new wallet.
type MasterWallet struct {
	ID string `json:"id"`
	// RequiredSigners is the threshold M.
	RequiredSigners int `json:"required_signers"`
	// SignersExtPubKeys are the extended public keys of the N-1 other
	// cosigners.
	SignersExtPubKeys []string `json:"signers_xpubs"`
	// ExtPubKey is the extended public key of this device.
	ExtPubKey string `json:"xpub"`
}

// Validate returns an error if the wallet definition cannot be used.
func (w *MasterWallet) Validate() error {
	var errs error
	if w.ID == "" {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	if w.RequiredSigners < 1 || w.RequiredSigners > w.Participants() {
		errs = errors.AppendField(errs, "RequiredSigners",
			errors.Wrapf(errors.ErrInput, "%d of %d", w.RequiredSigners, w.Participants()))
	}

	seen := make(map[string]struct{}, w.Participants())
	check := func(field, xpub string) {
		if _, err := crypto.PublicKeyFromXPub(xpub); err != nil {
			errs = errors.AppendField(errs, field, err)
			return
		}
		if _, ok := seen[xpub]; ok {
			errs = errors.AppendField(errs, field, errors.ErrDuplicate)
			return
		}
		seen[xpub] = struct{}{}
	}
	for i, xpub := range w.SignersExtPubKeys {
		check("SignersExtPubKeys."+strconv.Itoa(i), xpub)
	}
	check("ExtPubKey", w.ExtPubKey)
	return errs
}

// Participants returns N, the number of cosigners including this device.
func (w *MasterWallet) Participants() int {
	return len(w.SignersExtPubKeys) + 1
}

// AllExtPubKeys returns the cosigner keys with the key of this device
// appended last.
func (w *MasterWallet) AllExtPubKeys() []string {
	all := make([]string, 0, w.Participants())
	all = append(all, w.SignersExtPubKeys...)
	return append(all, w.ExtPubKey)
}

// LoadMasterWallet reads a JSON wallet definition.
func LoadMasterWallet(path string) (*MasterWallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotFound, err.Error())
	}
	var w MasterWallet
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errors.Wrap(errors.ErrEncoding, err.Error())
	}
	if err := w.Validate(); err != nil {
		return nil, errors.Wrapf(err, "wallet %s", path)
	}
	return &w, nil
}

// Save writes the wallet definition as JSON.
func (w *MasterWallet) Save(path string) error {
	raw, err := json.MarshalIndent(w, "", "\t")
	if err != nil {
		return errors.Wrap(errors.ErrEncoding, err.Error())
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// SubWallet is a wallet of a MasterWallet on one network. Pending
// transactions are scoped by sub wallet.
type SubWallet struct {
	MasterWalletID string
	// ID is the network (chain) identifier.
	ID string
}

// Validate returns an error if any of the identifiers is missing or would
// break the storage key layout.
func (s SubWallet) Validate() error {
	var errs error
	if s.MasterWalletID == "" {
		errs = errors.AppendField(errs, "MasterWalletID", errors.ErrEmpty)
	} else if !isValidID(s.MasterWalletID) {
		errs = errors.AppendField(errs, "MasterWalletID", errors.ErrInput)
	}
	if s.ID == "" {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	} else if !isValidID(s.ID) {
		errs = errors.AppendField(errs, "ID", errors.ErrInput)
	}
	return errs
}

func isValidID(id string) bool {
	for _, c := range id {
		if c == '/' || c < 0x20 {
			return false
		}
	}
	return true
}
