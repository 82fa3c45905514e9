package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain/utxo"
	"github.com/iov-one/multisafe/crypto"
)

func cmdWalletNew(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create the multisig wallet definition of this device.

The wallet is made of the key of this device and the extended public keys of
all other cosigners. Every cosigner must create the wallet with the same
identifier and threshold. The wallet address is printed out.
`)
		fl.PrintDefaults()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var cosigners stringsFlag
	fl.Var(&cosigners, "cosigner", "Extended public key of another cosigner. Repeat for each cosigner.")
	var (
		idFl       = fl.String("id", "", "Wallet identifier shared by all cosigners. A new one is generated if not given.")
		requiredFl = fl.Int("required", 2, "Number of signatures required to spend.")
	)
	fl.Parse(args)

	if _, err := os.Stat(cfg.Wallet); !os.IsNotExist(err) {
		return fmt.Errorf("wallet file %q already exists, delete this file and try again", cfg.Wallet)
	}
	ks, err := crypto.LoadKeystore(cfg.Keystore)
	if err != nil {
		return fmt.Errorf("cannot load keystore, run keygen first: %s", err)
	}
	if *idFl == "" {
		*idFl = uuid.NewString()
	}
	wallet := multisafe.MasterWallet{
		ID:                *idFl,
		RequiredSigners:   *requiredFl,
		SignersExtPubKeys: cosigners,
		ExtPubKey:         ks.ExtPubKey,
	}
	if err := wallet.Validate(); err != nil {
		return err
	}

	address, err := walletAddress(&wallet, cfg.Network)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Wallet), 0700); err != nil {
		return fmt.Errorf("cannot create wallet directory: %s", err)
	}
	if err := wallet.Save(cfg.Wallet); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Created %d of %d wallet %s\n", wallet.RequiredSigners, wallet.Participants(), wallet.ID)
	_, err = fmt.Fprintln(output, address)
	return err
}

// walletAddress returns the receiving address of the wallet on given network.
func walletAddress(wallet *multisafe.MasterWallet, network string) (string, error) {
	params, err := utxo.ParamsFor(network)
	if err != nil {
		return "", err
	}
	account, err := utxo.NewAccount(wallet.RequiredSigners, wallet.AllExtPubKeys())
	if err != nil {
		return "", err
	}
	return account.Address(params)
}
