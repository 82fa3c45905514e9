package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/multisafe/crypto"
	"github.com/iov-one/multisafe/errors"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Generate the key of this cosigner device.

A new extended private key is created and stored in the keystore file,
encrypted with the wallet password. The extended public key is printed out.
Share it with the other cosigners. This command fails if the keystore file
already exists.
`)
		fl.PrintDefaults()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var (
		keystoreFl = fl.String("keystore", cfg.Keystore, "Path to the keystore file. You can use MSAFE_KEYSTORE environment variable to set it.")
	)
	fl.Parse(args)

	if _, err := os.Stat(*keystoreFl); !os.IsNotExist(err) {
		// Never overwrite a key. It must be deleted by hand.
		return fmt.Errorf("keystore file %q already exists, delete this file and try again", *keystoreFl)
	}
	if err := os.MkdirAll(cfg.Home, 0700); err != nil {
		return fmt.Errorf("cannot create home directory: %s", err)
	}

	seed, err := crypto.GenerateSeed()
	if err != nil {
		return err
	}
	xprv, xpub, err := crypto.NewExtendedKey(seed)
	clear(seed)
	if err != nil {
		return err
	}
	password, err := cfg.Auth().WalletPassword(context.Background(), "new keystore")
	defer clear(password)
	if err != nil {
		return errors.Wrap(err, "password")
	}
	ks, err := crypto.NewKeystore(xprv, password, cfg.ScryptN)
	if err != nil {
		return err
	}
	if err := ks.Save(*keystoreFl); err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, xpub)
	return err
}

func cmdXPub(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the extended public key of this cosigner device.
`)
		fl.PrintDefaults()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var (
		keystoreFl = fl.String("keystore", cfg.Keystore, "Path to the keystore file. You can use MSAFE_KEYSTORE environment variable to set it.")
	)
	fl.Parse(args)

	ks, err := crypto.LoadKeystore(*keystoreFl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, ks.ExtPubKey)
	return err
}
