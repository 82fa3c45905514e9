package multisig

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain"
	"github.com/iov-one/multisafe/chain/utxo"
	"github.com/iov-one/multisafe/crypto/bech32"
	"github.com/iov-one/multisafe/safetest"
	"github.com/iov-one/multisafe/store"
	"github.com/stretchr/testify/require"
)

const walletID = "family-safe"

// device is one cosigner phone with its own storage.
type device struct {
	cosigner *safetest.Cosigner
	wallet   *multisafe.MasterWallet
	auth     *safetest.Auth
	nav      *safetest.Navigator
	db       *store.MemStore
	safe     *Safe
	coord    *Coordinator
	sub      multisafe.SubWallet
}

type fixture struct {
	cosigners []*safetest.Cosigner
	network   string
	address   string
	payee     string
	clock     *clock
}

// newFixture returns a 2 of 3 wallet shared by alice, bob and carol.
func newFixture(t testing.TB, network string) *fixture {
	t.Helper()
	cs := safetest.NewCosigners(t, 3)
	params, err := utxo.ParamsFor(network)
	require.NoError(t, err)
	account, err := utxo.NewAccount(2, safetest.XPubs(cs...))
	require.NoError(t, err)
	address, err := account.Address(params)
	require.NoError(t, err)
	payee, err := bech32.Encode(params.AddressHRP, bytes.Repeat([]byte{3}, 20))
	require.NoError(t, err)
	return &fixture{
		cosigners: cs,
		network:   network,
		address:   address,
		payee:     payee,
		clock:     &clock{now: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func (f *fixture) device(t testing.TB, i int, mutate ...func(*Config)) *device {
	t.Helper()
	c := f.cosigners[i]
	d := device{
		cosigner: c,
		wallet:   safetest.WalletFor(t, walletID, 2, c, f.cosigners),
		auth:     &safetest.Auth{Password: c.Password},
		nav:      &safetest.Navigator{},
		db:       store.NewMemStore(),
	}
	cfg := Config{
		Wallet:    d.wallet,
		Network:   f.network,
		Loader:    utxo.NewLoader(d.wallet, c.Keystore),
		DB:        d.db,
		Auth:      d.auth,
		Navigator: d.nav,
		Now:       f.clock.Now,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	safe, err := NewSafe(cfg)
	require.NoError(t, err)
	d.safe = safe
	d.coord = NewCoordinator(safe)
	d.sub = safe.SubWallet()
	return &d
}

func (f *fixture) inputs(amounts ...int64) []multisafe.UTXO {
	res := make([]multisafe.UTXO, len(amounts))
	for i, a := range amounts {
		res[i] = multisafe.UTXO{
			TxHash:  safetest.TxHash("salary"),
			Index:   uint32(i),
			Address: f.address,
			Amount:  a,
		}
	}
	return res
}

func (f *fixture) transfer() *multisafe.Transfer {
	return &multisafe.Transfer{
		Outputs: []multisafe.Output{{Address: f.payee, Amount: 25000}},
		Fee:     500,
		Memo:    "groceries",
	}
}

// payment creates an unsigned payment on given device.
func (f *fixture) payment(t testing.TB, d *device) string {
	t.Helper()
	tr := f.transfer()
	tx, err := d.safe.CreatePaymentTransaction(context.Background(), f.inputs(20000, 10000), tr.Outputs, tr.Fee, tr.Memo)
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Equal(t, multisafe.OfflineTxMultisigStandard, tx.Type)
	return tx.RawTx
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// panicSDK panics on every call.
type panicSDK struct {
	chain.SDK
}

func loaderOf(sdk chain.SDK, err error) chain.Loader {
	return func(string) (chain.SDK, error) {
		return sdk, err
	}
}
