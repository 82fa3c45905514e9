package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/iov-one/multisafe/chain/utxo"
)

type txView struct {
	Key      string       `json:"key"`
	Hash     string       `json:"hash"`
	Type     string       `json:"type"`
	Inputs   []inputView  `json:"inputs"`
	Outputs  []outputView `json:"outputs"`
	Fee      string       `json:"fee"`
	Memo     string       `json:"memo,omitempty"`
	Signed   int          `json:"signed"`
	Required int          `json:"required"`
	Signers  []string     `json:"signers"`
}

type inputView struct {
	TxHash  string `json:"tx_hash"`
	Index   uint32 `json:"index"`
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type outputView struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
	Change  bool   `json:"change,omitempty"`
}

func cmdView(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out a human readable representation of a transaction payload read from
the input, together with the cosigners who signed it.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	raw, err := readPayload(input)
	if err != nil {
		return err
	}
	tx, err := utxo.Decode(raw)
	if err != nil {
		return err
	}
	return withSession(func(s *session) error {
		otx, err := s.safe.OfflineTransaction(raw)
		if err != nil {
			return err
		}
		q, err := s.safe.Quorum(raw)
		if err != nil {
			return err
		}
		own, err := walletAddress(s.wallet, s.cfg.Network)
		if err != nil {
			return err
		}

		view := txView{
			Key:      otx.TransactionKey,
			Hash:     tx.HashString(),
			Type:     string(otx.Type),
			Fee:      formatAmount(tx.Fee),
			Memo:     tx.Memo,
			Signed:   q.Signed,
			Required: q.Required,
			Signers:  q.Signers,
		}
		for _, in := range tx.Inputs {
			view.Inputs = append(view.Inputs, inputView{
				TxHash:  displayHash(in.TxHash),
				Index:   in.Index,
				Address: in.Address,
				Amount:  formatAmount(in.Amount),
			})
		}
		for _, out := range tx.Outputs {
			view.Outputs = append(view.Outputs, outputView{
				Address: out.Address,
				Amount:  formatAmount(out.Amount),
				Change:  out.Address == own,
			})
		}

		pretty, err := json.MarshalIndent(view, "", "\t")
		if err != nil {
			return fmt.Errorf("cannot JSON serialize: %s", err)
		}
		_, err = output.Write(append(pretty, '\n'))
		return err
	})
}

// displayHash returns a transaction hash in the byte order block explorers
// use. Malformed hashes are shown as plain hex.
func displayHash(b []byte) string {
	h, err := chainhash.NewHash(b)
	if err != nil {
		return hex.EncodeToString(b)
	}
	return h.String()
}
