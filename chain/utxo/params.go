package utxo

import (
	"sort"

	"github.com/iov-one/multisafe/errors"
)

// Params describe a network of the chain family.
type Params struct {
	// Name is the network identifier, used as the sub wallet id.
	Name string
	// AddressHRP is the human readable part of bech32 addresses.
	AddressHRP string
	// Votes is set when the network accepts vote transactions.
	Votes bool
}

var (
	MainNetParams = Params{Name: "msig", AddressHRP: "msig", Votes: true}
	TestNetParams = Params{Name: "tmsig", AddressHRP: "tmsig", Votes: true}
	// SideNetParams is a payment only side chain.
	SideNetParams = Params{Name: "msig-side", AddressHRP: "mside"}
)

var networks = map[string]*Params{
	MainNetParams.Name: &MainNetParams,
	TestNetParams.Name: &TestNetParams,
	SideNetParams.Name: &SideNetParams,
}

// ParamsFor returns the parameters of a known network.
func ParamsFor(network string) (*Params, error) {
	p, ok := networks[network]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNetwork, "unknown network %q", network)
	}
	return p, nil
}

// Networks returns the names of all known networks.
func Networks() []string {
	names := make([]string, 0, len(networks))
	for n := range networks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
