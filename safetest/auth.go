package safetest

import (
	"context"
	"sync"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/errors"
)

// Auth is a scripted multisafe.Auth. It answers with Password unless
// Cancel is set, and records every request.
type Auth struct {
	Password []byte
	Cancel   bool
	Err      error

	mu       sync.Mutex
	requests []string
	given    [][]byte
}

var _ multisafe.Auth = (*Auth)(nil)

// WalletPassword returns a copy of the configured password. The copies
// handed out are kept so that a test can check they were cleared.
func (a *Auth) WalletPassword(ctx context.Context, walletID string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, walletID)
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Cancel {
		return nil, errors.Wrap(errors.ErrCancelled, "password prompt dismissed")
	}
	pw := append([]byte(nil), a.Password...)
	a.given = append(a.given, pw)
	return pw, nil
}

// Requests returns the wallet ids a password was asked for.
func (a *Auth) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

// Cleared returns true if every password handed out was zeroed by its
// receiver.
func (a *Auth) Cleared() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, pw := range a.given {
		for _, b := range pw {
			if b != 0 {
				return false
			}
		}
	}
	return true
}

// Navigator records the pending transactions it was asked to show.
type Navigator struct {
	Err error

	mu    sync.Mutex
	shown []Shown
}

// Shown is one recorded navigation.
type Shown struct {
	Pending  multisafe.PendingTransaction
	Transfer *multisafe.Transfer
}

var _ multisafe.Navigator = (*Navigator)(nil)

func (n *Navigator) ShowPendingTransaction(ctx context.Context, pending multisafe.PendingTransaction, transfer *multisafe.Transfer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, Shown{Pending: pending, Transfer: transfer})
	return n.Err
}

// Shown returns all recorded navigations.
func (n *Navigator) Shown() []Shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Shown(nil), n.shown...)
}
