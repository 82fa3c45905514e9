package multisig

import (
	"context"
	"sync"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/x/matcher"
)

// State is the lifecycle state of a multisig transaction.
type State int

const (
	StateUnsigned State = iota
	StatePartiallySigned
	StateFullySigned
	StatePublished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateUnsigned:
		return "UNSIGNED"
	case StatePartiallySigned:
		return "PARTIALLY_SIGNED"
	case StateFullySigned:
		return "FULLY_SIGNED"
	case StatePublished:
		return "PUBLISHED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Record is a pending transaction together with its signature progress.
type Record struct {
	Transaction *multisafe.OfflineTransaction
	State       State
	Quorum      matcher.Quorum
	// Hash is the id the transaction will have on chain.
	Hash string
}

// Coordinator drives transactions of one Safe through their lifecycle.
// Published and discarded transactions are removed from the store and
// remembered only for the lifetime of the Coordinator.
type Coordinator struct {
	safe *Safe

	mu       sync.Mutex
	inFlight map[string]struct{}
	closed   map[string]State
}

func NewCoordinator(safe *Safe) *Coordinator {
	return &Coordinator{
		safe:     safe,
		inFlight: make(map[string]struct{}),
		closed:   make(map[string]State),
	}
}

// Safe returns the Safe this coordinator drives.
func (c *Coordinator) Safe() *Safe {
	return c.safe
}

// Propose starts the offline flow for a new transaction. A transaction
// that was published or discarded cannot be proposed again.
func (c *Coordinator) Propose(ctx context.Context, sub multisafe.SubWallet, rawTx string, transfer *multisafe.Transfer) (*Record, error) {
	otx, err := c.safe.OfflineTransaction(rawTx)
	if err != nil {
		return nil, err
	}
	if st, ok := c.closedState(sub, otx.TransactionKey); ok {
		return nil, errors.Wrapf(errors.ErrState, "transaction is %s", st)
	}
	if res := c.safe.SignTransaction(ctx, sub, rawTx, transfer); res.ErrorType != multisafe.ErrorTypeDelegated {
		return nil, errors.Wrapf(errors.ErrState, "proposal %s", res.ErrorType)
	}
	return c.State(ctx, sub, otx.TransactionKey)
}

// Receive imports a payload signed on another device. Its signatures are
// merged into the stored transaction, which is created if needed.
func (c *Coordinator) Receive(ctx context.Context, sub multisafe.SubWallet, rawTx string) (*Record, error) {
	if err := c.safe.checkSubWallet(sub); err != nil {
		return nil, err
	}
	otx, err := c.safe.OfflineTransaction(rawTx)
	if err != nil {
		return nil, err
	}
	if st, ok := c.closedState(sub, otx.TransactionKey); ok {
		return nil, errors.Wrapf(errors.ErrState, "transaction is %s", st)
	}
	stored, err := c.safe.Store().StoreTransaction(sub, otx)
	if err != nil {
		return nil, err
	}
	c.safe.log(ctx).Debug("payload received", "key", stored.TransactionKey)
	return c.record(stored)
}

// Sign adds the signature of this device to a stored transaction. On
// success the more signed payload is stored. A cancelled or failed signing
// leaves the stored transaction as it was. Only one signing of a
// transaction can run at a time on a device; a concurrent call fails.
func (c *Coordinator) Sign(ctx context.Context, sub multisafe.SubWallet, transactionKey string) (*Record, multisafe.SignTransactionResult, error) {
	release, err := c.acquire(sub, transactionKey)
	if err != nil {
		return nil, multisafe.Failed(), err
	}
	defer release()

	otx, err := c.safe.Store().GetTransaction(sub, transactionKey)
	if err != nil {
		return nil, multisafe.Failed(), err
	}
	res := c.safe.SignTransactionReal(ctx, sub, otx.RawTx)
	if !res.OK() || res.AlreadySigned {
		rec, err := c.record(otx)
		return rec, res, err
	}

	signed := otx.Copy()
	signed.RawTx = res.SignedTransaction
	signed.Updated = multisafe.AsUnixTime(c.safe.now())
	stored, err := c.safe.Store().StoreTransaction(sub, signed)
	if err != nil {
		c.safe.log(ctx).Error("cannot store signed transaction", "key", transactionKey, "err", err)
		return nil, multisafe.Failed(), err
	}
	rec, err := c.record(stored)
	return rec, res, err
}

// State returns the stored transaction and its state.
func (c *Coordinator) State(ctx context.Context, sub multisafe.SubWallet, transactionKey string) (*Record, error) {
	otx, err := c.safe.Store().GetTransaction(sub, transactionKey)
	if errors.ErrNotFound.Is(err) {
		if st, ok := c.closedState(sub, transactionKey); ok {
			return &Record{State: st}, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return c.record(otx)
}

// Pending returns all stored transactions of the sub wallet, most recently
// updated first.
func (c *Coordinator) Pending(ctx context.Context, sub multisafe.SubWallet) ([]*Record, error) {
	txs, err := c.safe.Store().ListPending(sub)
	if err != nil {
		return nil, err
	}
	res := make([]*Record, 0, len(txs))
	for _, otx := range txs {
		rec, err := c.record(otx)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %s", otx.TransactionKey)
		}
		res = append(res, rec)
	}
	return res, nil
}

// Publish returns the broadcast form of a fully signed transaction and
// removes it from the store.
func (c *Coordinator) Publish(ctx context.Context, sub multisafe.SubWallet, transactionKey string) (string, error) {
	release, err := c.acquire(sub, transactionKey)
	if err != nil {
		return "", err
	}
	defer release()

	rec, err := c.State(ctx, sub, transactionKey)
	if err != nil {
		return "", err
	}
	if rec.State != StateFullySigned {
		return "", errors.Wrapf(errors.ErrState, "transaction is %s", rec.State)
	}
	wire, err := c.safe.ConvertSignedTransactionToPublishableTransaction(ctx, sub, rec.Transaction.RawTx)
	if err != nil {
		return "", err
	}
	if err := c.safe.Store().DeleteTransaction(sub, transactionKey); err != nil {
		return "", err
	}
	c.close(sub, transactionKey, StatePublished)
	c.safe.log(ctx).Info("transaction published", "key", transactionKey, "hash", rec.Hash)
	return wire, nil
}

// Discard drops a transaction that was not published.
func (c *Coordinator) Discard(ctx context.Context, sub multisafe.SubWallet, transactionKey string) error {
	release, err := c.acquire(sub, transactionKey)
	if err != nil {
		return err
	}
	defer release()

	if err := c.safe.Store().DeleteTransaction(sub, transactionKey); err != nil {
		return err
	}
	c.close(sub, transactionKey, StateCancelled)
	c.safe.log(ctx).Info("transaction discarded", "key", transactionKey)
	return nil
}

func (c *Coordinator) record(otx *multisafe.OfflineTransaction) (*Record, error) {
	q, err := c.safe.Quorum(otx.RawTx)
	if err != nil {
		return nil, err
	}
	hash, err := c.safe.GetOfflineTransactionHash(otx)
	if err != nil {
		return nil, err
	}
	rec := Record{Transaction: otx, Quorum: q, Hash: hash}
	switch {
	case q.Reached():
		rec.State = StateFullySigned
	case q.Signed > 0:
		rec.State = StatePartiallySigned
	default:
		rec.State = StateUnsigned
	}
	return &rec, nil
}

func flightKey(sub multisafe.SubWallet, transactionKey string) string {
	return sub.MasterWalletID + "/" + sub.ID + "/" + transactionKey
}

func (c *Coordinator) acquire(sub multisafe.SubWallet, transactionKey string) (func(), error) {
	key := flightKey(sub, transactionKey)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inFlight[key]; ok {
		return nil, errors.Wrapf(errors.ErrState, "transaction %s is being processed", transactionKey)
	}
	c.inFlight[key] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inFlight, key)
		c.mu.Unlock()
	}, nil
}

func (c *Coordinator) close(sub multisafe.SubWallet, transactionKey string, st State) {
	c.mu.Lock()
	c.closed[flightKey(sub, transactionKey)] = st
	c.mu.Unlock()
}

func (c *Coordinator) closedState(sub multisafe.SubWallet, transactionKey string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.closed[flightKey(sub, transactionKey)]
	return st, ok
}
