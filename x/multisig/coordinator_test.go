package multisig

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain/utxo"
	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/safetest/assert"
	"github.com/stretchr/testify/require"
)

func TestStateNames(t *testing.T) {
	cases := map[State]string{
		StateUnsigned:        "UNSIGNED",
		StatePartiallySigned: "PARTIALLY_SIGNED",
		StateFullySigned:     "FULLY_SIGNED",
		StatePublished:       "PUBLISHED",
		StateCancelled:       "CANCELLED",
		State(42):            "UNKNOWN",
	}
	for st, want := range cases {
		assert.Equal(t, want, st.String())
	}
}

// TestTwoOfThreeCeremony proposes a payment on alice's phone, collects the
// signatures of alice and bob on their own devices and publishes it.
func TestTwoOfThreeCeremony(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice, bob, carol := f.device(t, 0), f.device(t, 1), f.device(t, 2)
	bg := context.Background()

	raw := f.payment(t, alice)
	rec, err := alice.coord.Propose(bg, alice.sub, raw, f.transfer())
	require.NoError(t, err)
	assert.Equal(t, StateUnsigned, rec.State)
	assert.Equal(t, 2, rec.Quorum.Required)
	key := rec.Transaction.TransactionKey
	require.Equal(t, 1, len(alice.nav.Shown()))

	f.clock.Advance(time.Minute)
	rec, res, err := alice.coord.Sign(bg, alice.sub, key)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, StatePartiallySigned, rec.State)
	assert.Equal(t, []string{alice.cosigner.XPub}, rec.Quorum.Signers)
	assert.Equal(t, multisafe.AsUnixTime(f.clock.Now()), rec.Transaction.Updated)

	// Alice hands her payload over to bob.
	rec, err = bob.coord.Receive(bg, bob.sub, rec.Transaction.RawTx)
	require.NoError(t, err)
	assert.Equal(t, key, rec.Transaction.TransactionKey)
	assert.Equal(t, StatePartiallySigned, rec.State)

	rec, res, err = bob.coord.Sign(bg, bob.sub, key)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, StateFullySigned, rec.State)
	assert.Equal(t, 2, rec.Quorum.Signed)

	// Carol's late signature is not needed but does no harm.
	rec, err = carol.coord.Receive(bg, carol.sub, rec.Transaction.RawTx)
	require.NoError(t, err)
	assert.Equal(t, StateFullySigned, rec.State)
	rec, res, err = carol.coord.Sign(bg, carol.sub, key)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, 3, rec.Quorum.Signed)

	// Bob's fully signed payload goes back to alice, who publishes.
	bobs, err := bob.coord.State(bg, bob.sub, key)
	require.NoError(t, err)
	rec, err = alice.coord.Receive(bg, alice.sub, bobs.Transaction.RawTx)
	require.NoError(t, err)
	assert.Equal(t, StateFullySigned, rec.State)

	wire, err := alice.coord.Publish(bg, alice.sub, key)
	require.NoError(t, err)
	tx, err := utxo.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, rec.Hash, tx.HashString())

	rec, err = alice.coord.State(bg, alice.sub, key)
	require.NoError(t, err)
	assert.Equal(t, StatePublished, rec.State)

	_, err = alice.coord.Publish(bg, alice.sub, key)
	assert.IsErr(t, errors.ErrState, err)
	_, err = alice.coord.Receive(bg, alice.sub, raw)
	assert.IsErr(t, errors.ErrState, err)
	_, err = alice.coord.Propose(bg, alice.sub, raw, f.transfer())
	assert.IsErr(t, errors.ErrState, err)

	pending, err := alice.coord.Pending(bg, alice.sub)
	require.NoError(t, err)
	assert.Equal(t, 0, len(pending))
}

func TestSignSameTransactionTwice(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice := f.device(t, 0)
	bg := context.Background()

	rec, err := alice.coord.Propose(bg, alice.sub, f.payment(t, alice), nil)
	require.NoError(t, err)
	key := rec.Transaction.TransactionKey

	first, res, err := alice.coord.Sign(bg, alice.sub, key)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, false, res.AlreadySigned)

	f.clock.Advance(time.Hour)
	second, res, err := alice.coord.Sign(bg, alice.sub, key)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, true, res.AlreadySigned)
	assert.Equal(t, first.Transaction, second.Transaction)
	assert.Equal(t, 1, second.Quorum.Signed)
}

func TestCancelledSigningLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice, bob := f.device(t, 0), f.device(t, 1)
	bg := context.Background()

	rec, err := alice.coord.Propose(bg, alice.sub, f.payment(t, alice), nil)
	require.NoError(t, err)
	key := rec.Transaction.TransactionKey
	rec, _, err = alice.coord.Sign(bg, alice.sub, key)
	require.NoError(t, err)

	_, err = bob.coord.Receive(bg, bob.sub, rec.Transaction.RawTx)
	require.NoError(t, err)
	before, err := bob.safe.Store().GetTransaction(bob.sub, key)
	require.NoError(t, err)

	bob.auth.Cancel = true
	f.clock.Advance(time.Minute)
	after, res, err := bob.coord.Sign(bg, bob.sub, key)
	require.NoError(t, err)
	assert.Equal(t, multisafe.Cancelled(), res)
	assert.Equal(t, before, after.Transaction)
	assert.Equal(t, StatePartiallySigned, after.State)

	stored, err := bob.safe.Store().GetTransaction(bob.sub, key)
	require.NoError(t, err)
	assert.Equal(t, before, stored)
}

func TestReceiveNeverRegresses(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice, bob, carol := f.device(t, 0), f.device(t, 1), f.device(t, 2)
	bg := context.Background()

	raw := f.payment(t, alice)
	byAlice := alice.safe.SignTransactionReal(bg, alice.sub, raw)
	require.True(t, byAlice.OK())
	byBob := bob.safe.SignTransactionReal(bg, bob.sub, raw)
	require.True(t, byBob.OK())

	// Carol gets alice's and bob's separate copies, then the unsigned one.
	var prev int
	for _, payload := range []string{byAlice.SignedTransaction, byBob.SignedTransaction, raw} {
		rec, err := carol.coord.Receive(bg, carol.sub, payload)
		require.NoError(t, err)
		require.True(t, rec.Quorum.Signed >= prev, "signatures lost")
		prev = rec.Quorum.Signed
	}
	assert.Equal(t, 2, prev)

	pending, err := carol.coord.Pending(bg, carol.sub)
	require.NoError(t, err)
	require.Equal(t, 1, len(pending))
	assert.Equal(t, StateFullySigned, pending[0].State)
}

func TestPublishRequiresQuorum(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice := f.device(t, 0)
	bg := context.Background()

	rec, err := alice.coord.Propose(bg, alice.sub, f.payment(t, alice), nil)
	require.NoError(t, err)
	key := rec.Transaction.TransactionKey

	_, err = alice.coord.Publish(bg, alice.sub, key)
	assert.IsErr(t, errors.ErrState, err)

	_, _, err = alice.coord.Sign(bg, alice.sub, key)
	require.NoError(t, err)
	_, err = alice.coord.Publish(bg, alice.sub, key)
	assert.IsErr(t, errors.ErrState, err)

	rec, err = alice.coord.State(bg, alice.sub, key)
	require.NoError(t, err)
	assert.Equal(t, StatePartiallySigned, rec.State)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice := f.device(t, 0)
	bg := context.Background()

	raw := f.payment(t, alice)
	rec, err := alice.coord.Propose(bg, alice.sub, raw, nil)
	require.NoError(t, err)
	key := rec.Transaction.TransactionKey

	require.NoError(t, alice.coord.Discard(bg, alice.sub, key))
	rec, err = alice.coord.State(bg, alice.sub, key)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, rec.State)

	_, _, err = alice.coord.Sign(bg, alice.sub, key)
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = alice.coord.Receive(bg, alice.sub, raw)
	assert.IsErr(t, errors.ErrState, err)
	assert.IsErr(t, errors.ErrNotFound, alice.coord.Discard(bg, alice.sub, key))
}

func TestClosedTransactionCannotBeProposedAgain(t *testing.T) {
	cases := map[string]struct {
		close     func(t *testing.T, d *device, key string)
		wantState State
	}{
		"published": {
			close: func(t *testing.T, d *device, key string) {
				_, err := d.coord.Publish(context.Background(), d.sub, key)
				require.NoError(t, err)
			},
			wantState: StatePublished,
		},
		"discarded": {
			close: func(t *testing.T, d *device, key string) {
				require.NoError(t, d.coord.Discard(context.Background(), d.sub, key))
			},
			wantState: StateCancelled,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, "tmsig")
			alice, bob := f.device(t, 0), f.device(t, 1)
			bg := context.Background()

			raw := f.payment(t, alice)
			signed := bob.safe.SignTransactionReal(bg, bob.sub, raw)
			require.True(t, signed.OK())
			rec, err := alice.coord.Propose(bg, alice.sub, signed.SignedTransaction, f.transfer())
			require.NoError(t, err)
			key := rec.Transaction.TransactionKey
			_, _, err = alice.coord.Sign(bg, alice.sub, key)
			require.NoError(t, err)

			tc.close(t, alice, key)
			shown := len(alice.nav.Shown())

			_, err = alice.coord.Propose(bg, alice.sub, raw, f.transfer())
			assert.IsErr(t, errors.ErrState, err)
			assert.Equal(t, shown, len(alice.nav.Shown()))

			pending, err := alice.coord.Pending(bg, alice.sub)
			require.NoError(t, err)
			assert.Equal(t, 0, len(pending))
			rec, err = alice.coord.State(bg, alice.sub, key)
			require.NoError(t, err)
			assert.Equal(t, tc.wantState, rec.State)
		})
	}
}

func TestStateOfUnknownTransaction(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice := f.device(t, 0)

	_, err := alice.coord.State(context.Background(), alice.sub, multisafe.NewTransactionKey([]byte("nothing")))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestPendingNewestFirst(t *testing.T) {
	f := newFixture(t, "tmsig")
	alice := f.device(t, 0)
	bg := context.Background()

	var keys []string
	for _, memo := range []string{"first", "second", "third"} {
		tr := f.transfer()
		tx, err := alice.safe.CreatePaymentTransaction(bg, f.inputs(30000), tr.Outputs, tr.Fee, memo)
		require.NoError(t, err)
		rec, err := alice.coord.Propose(bg, alice.sub, tx.RawTx, tr)
		require.NoError(t, err)
		keys = append(keys, rec.Transaction.TransactionKey)
		f.clock.Advance(time.Second)
	}

	pending, err := alice.coord.Pending(bg, alice.sub)
	require.NoError(t, err)
	require.Equal(t, 3, len(pending))
	for i, rec := range pending {
		assert.Equal(t, keys[len(keys)-1-i], rec.Transaction.TransactionKey)
		assert.Equal(t, StateUnsigned, rec.State)
	}
}

func TestConcurrentSigningIsRejected(t *testing.T) {
	f := newFixture(t, "tmsig")
	entered := make(chan struct{})
	release := make(chan struct{})
	alice := f.device(t, 0, func(c *Config) {
		password := f.cosigners[0].Password
		c.Auth = multisafe.AuthFunc(func(ctx context.Context, walletID string) ([]byte, error) {
			close(entered)
			<-release
			return append([]byte(nil), password...), nil
		})
	})
	bg := context.Background()

	rec, err := alice.coord.Propose(bg, alice.sub, f.payment(t, alice), nil)
	require.NoError(t, err)
	key := rec.Transaction.TransactionKey

	var wg sync.WaitGroup
	wg.Add(1)
	var first multisafe.SignTransactionResult
	go func() {
		defer wg.Done()
		_, first, _ = alice.coord.Sign(bg, alice.sub, key)
	}()

	<-entered
	_, res, err := alice.coord.Sign(bg, alice.sub, key)
	assert.IsErr(t, errors.ErrState, err)
	assert.Equal(t, multisafe.Failed(), res)

	close(release)
	wg.Wait()
	assert.Equal(t, true, first.OK())

	rec, err = alice.coord.State(bg, alice.sub, key)
	require.NoError(t, err)
	assert.Equal(t, StatePartiallySigned, rec.State)
}
