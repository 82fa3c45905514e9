package multisafe

import "context"

// Auth provides the wallet password on demand. The password is requested for
// a single signing call and is never retained.
//
// Returning an empty password or an errors.ErrCancelled error means the user
// declined.
type Auth interface {
	WalletPassword(ctx context.Context, walletID string) ([]byte, error)
}

// Navigator displays the pending multisig transaction flow once signing was
// delegated. The originating transfer is given so that the caller does not
// return to the payment screen.
type Navigator interface {
	ShowPendingTransaction(ctx context.Context, pending PendingTransaction, transfer *Transfer) error
}

// AuthFunc adapts a function to the Auth interface.
type AuthFunc func(ctx context.Context, walletID string) ([]byte, error)

func (fn AuthFunc) WalletPassword(ctx context.Context, walletID string) ([]byte, error) {
	return fn(ctx, walletID)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, pending PendingTransaction, transfer *Transfer) error

func (fn NavigatorFunc) ShowPendingTransaction(ctx context.Context, pending PendingTransaction, transfer *Transfer) error {
	return fn(ctx, pending, transfer)
}
