package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain/utxo"
	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/x/multisig"
)

func cmdPropose(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Start the signing ceremony of a transaction read from the input.

The transaction is stored on this device until it is published or discarded.
The transaction payload is printed out unchanged, so that it can be piped to
the sign command.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	raw, err := readPayload(input)
	if err != nil {
		return err
	}
	return withSession(func(s *session) error {
		transfer, err := transferOf(s, raw)
		if err != nil {
			return err
		}
		if _, err := s.coord.Propose(s.ctx, s.sub(), raw, transfer); err != nil {
			return err
		}
		_, err = fmt.Fprintln(output, raw)
		return err
	})
}

func cmdReceive(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Import a transaction payload signed on another cosigner device.

Signatures of the payload are merged with the ones stored on this device. A
stored transaction never loses a signature. The transaction key is printed
out.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	raw, err := readPayload(input)
	if err != nil {
		return err
	}
	return withSession(func(s *session) error {
		rec, err := s.coord.Receive(s.ctx, s.sub(), raw)
		if err != nil {
			return err
		}
		printProgress(rec)
		_, err = fmt.Fprintln(output, rec.Transaction.TransactionKey)
		return err
	})
}

func cmdSign(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Sign a transaction with the key of this device.

The transaction is either a stored one, selected by its key, or read from the
input, in which case it is received first. The payload with all signatures
collected so far is printed out. Hand it over to the next cosigner.
`)
		fl.PrintDefaults()
	}
	var (
		keyFl = fl.String("key", "", "Key of a stored transaction. If not given, the transaction is read from the input.")
	)
	fl.Parse(args)

	var raw string
	if *keyFl == "" {
		var err error
		if raw, err = readPayload(input); err != nil {
			return err
		}
	}
	return withSession(func(s *session) error {
		key := *keyFl
		if key == "" {
			rec, err := s.coord.Receive(s.ctx, s.sub(), raw)
			if err != nil {
				return err
			}
			key = rec.Transaction.TransactionKey
		}
		rec, res, err := s.coord.Sign(s.ctx, s.sub(), key)
		if err != nil {
			return err
		}
		switch {
		case res.ErrorType == multisafe.ErrorTypeCancelled:
			return errors.Wrap(errors.ErrCancelled, "signing cancelled")
		case !res.OK():
			return errors.Wrap(errors.ErrSignature, "cannot sign, see the log for details")
		case res.AlreadySigned:
			fmt.Fprintln(os.Stderr, "This device signed the transaction before.")
		}
		printProgress(rec)
		_, err = fmt.Fprintln(output, rec.Transaction.RawTx)
		return err
	})
}

func cmdPending(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
List the transactions stored on this device, most recently updated first.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	return withSession(func(s *session) error {
		recs, err := s.coord.Pending(s.ctx, s.sub())
		if err != nil {
			return err
		}
		for _, rec := range recs {
			_, err := fmt.Fprintf(output, "%s\t%s\t%d/%d\t%s\t%s\n",
				rec.Transaction.TransactionKey,
				rec.State,
				rec.Quorum.Signed, rec.Quorum.Required,
				rec.Transaction.Updated,
				rec.Hash)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func cmdPublish(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the broadcast form of a fully signed transaction and remove it from
this device.
`)
		fl.PrintDefaults()
	}
	var (
		keyFl = fl.String("key", "", "Key of the stored transaction.")
	)
	fl.Parse(args)

	if *keyFl == "" {
		return errors.Wrap(errors.ErrEmpty, "transaction key")
	}
	return withSession(func(s *session) error {
		wire, err := s.coord.Publish(s.ctx, s.sub(), *keyFl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(output, wire)
		return err
	})
}

func cmdDiscard(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Remove a transaction that is not going to be published from this device.
`)
		fl.PrintDefaults()
	}
	var (
		keyFl = fl.String("key", "", "Key of the stored transaction.")
	)
	fl.Parse(args)

	if *keyFl == "" {
		return errors.Wrap(errors.ErrEmpty, "transaction key")
	}
	return withSession(func(s *session) error {
		return s.coord.Discard(s.ctx, s.sub(), *keyFl)
	})
}

func printProgress(rec *multisig.Record) {
	fmt.Fprintf(os.Stderr, "Transaction %s is %s with %d of %d signatures.\n",
		rec.Transaction.TransactionKey, rec.State, rec.Quorum.Signed, rec.Quorum.Required)
}

// transferOf returns what the transaction pays out of the wallet. Change
// returning to the wallet is left out.
func transferOf(s *session, rawTx string) (*multisafe.Transfer, error) {
	tx, err := utxo.Decode(rawTx)
	if err != nil {
		return nil, err
	}
	own, err := walletAddress(s.wallet, s.cfg.Network)
	if err != nil {
		return nil, err
	}
	transfer := multisafe.Transfer{Fee: tx.Fee, Memo: tx.Memo}
	for _, out := range tx.Outputs {
		if out.Address == own {
			continue
		}
		transfer.Outputs = append(transfer.Outputs, multisafe.Output{Address: out.Address, Amount: out.Amount})
	}
	return &transfer, nil
}
