package utxo

import (
	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain"
	"github.com/iov-one/multisafe/crypto"
	"github.com/iov-one/multisafe/errors"
)

// NewLoader returns a loader of SDKs spending from the account of given
// wallet. A nil keystore gives watch only SDKs.
func NewLoader(wallet *multisafe.MasterWallet, ks *crypto.Keystore) chain.Loader {
	return func(network string) (chain.SDK, error) {
		params, err := ParamsFor(network)
		if err != nil {
			return nil, err
		}
		if err := wallet.Validate(); err != nil {
			return nil, errors.Wrap(err, "wallet")
		}
		account, err := NewAccount(wallet.RequiredSigners, wallet.AllExtPubKeys())
		if err != nil {
			return nil, err
		}
		return NewSDK(Config{
			Params:   params,
			Accounts: []*Account{account},
			Keystore: ks,
		})
	}
}
