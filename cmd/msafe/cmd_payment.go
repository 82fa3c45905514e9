package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/errors"
)

func cmdCreatePayment(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create an unsigned payment spending from the multisig wallet.

The unspent outputs to spend are read from the input as a JSON list, for
example:

  [{"tx_hash": "4a5e...", "index": 0, "address": "tmsig1...", "amount": 150000000}]

Amounts of the list are in units, amounts of the flags in coins. Whatever the
inputs hold above the payment and the fee returns to the wallet. The hex
encoded transaction is printed out.
`)
		fl.PrintDefaults()
	}
	var (
		toFl     = fl.String("to", "", "Address of the recipient.")
		amountFl = fl.String("amount", "", "Amount to pay, for example 1.5")
		feeFl    = fl.String("fee", "0.0001", "Transaction fee.")
		memoFl   = fl.String("memo", "", "Optional memo.")
	)
	fl.Parse(args)

	if *toFl == "" {
		return errors.Wrap(errors.ErrEmpty, "recipient address")
	}
	amount, err := parseAmount(*amountFl)
	if err != nil {
		return err
	}
	fee, err := parseAmount(*feeFl)
	if err != nil {
		return errors.Wrap(err, "fee")
	}
	var inputs []multisafe.UTXO
	if err := json.NewDecoder(input).Decode(&inputs); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot read unspent outputs: %s", err)
	}

	return withSession(func(s *session) error {
		outputs := []multisafe.Output{{Address: *toFl, Amount: amount}}
		tx, err := s.safe.CreatePaymentTransaction(s.ctx, inputs, outputs, fee, *memoFl)
		if err != nil {
			return err
		}
		if tx == nil {
			return errors.Wrapf(errors.ErrType, "payments are not available on %s", s.cfg.Network)
		}
		_, err = fmt.Fprintln(output, tx.RawTx)
		return err
	})
}
