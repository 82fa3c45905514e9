package main

import (
	"context"
	"fmt"
	"io"

	"github.com/iov-one/multisafe"
)

// printNavigator tells the user that a transaction waits for cosigners.
type printNavigator struct {
	w io.Writer
}

var _ multisafe.Navigator = printNavigator{}

func (n printNavigator) ShowPendingTransaction(ctx context.Context, pending multisafe.PendingTransaction, transfer *multisafe.Transfer) error {
	otx := pending.OfflineTransaction
	fmt.Fprintf(n.w, "Transaction %s of wallet %s on %s waits for cosigner signatures.\n",
		otx.TransactionKey, pending.MasterWalletID, pending.SubWalletID)
	if transfer == nil {
		return nil
	}
	for _, out := range transfer.Outputs {
		fmt.Fprintf(n.w, "\tpay %s to %s\n", formatAmount(out.Amount), out.Address)
	}
	fmt.Fprintf(n.w, "\tfee %s\n", formatAmount(transfer.Fee))
	if transfer.Memo != "" {
		fmt.Fprintf(n.w, "\tmemo %q\n", transfer.Memo)
	}
	return nil
}
