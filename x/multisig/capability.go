package multisig

import (
	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain/utxo"
)

// CapabilitiesFor returns the operations a multisig wallet supports on given
// network. Payments are always supported, votes only where the network
// accepts them. Proposals and DID publications are never signed by a
// multisig wallet.
func CapabilitiesFor(network string) multisafe.CapabilitySet {
	caps := multisafe.NewCapabilitySet(multisafe.OpPayment)
	if params, err := utxo.ParamsFor(network); err == nil && params.Votes {
		caps[multisafe.OpVote] = struct{}{}
	}
	return caps
}
