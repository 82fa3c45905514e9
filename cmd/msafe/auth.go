package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/errors"
	"golang.org/x/term"
)

// passwordFile reads the wallet password from a file. A trailing new line
// is not part of the password.
type passwordFile string

var _ multisafe.Auth = passwordFile("")

func (p passwordFile) WalletPassword(ctx context.Context, walletID string) ([]byte, error) {
	raw, err := os.ReadFile(string(p))
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotFound, err.Error())
	}
	return bytes.TrimRight(raw, "\r\n"), nil
}

// terminalAuth prompts for the password on the controlling terminal, so that
// stdin stays free for payloads.
type terminalAuth struct {
	prompt io.Writer
}

var _ multisafe.Auth = terminalAuth{}

func (a terminalAuth) WalletPassword(ctx context.Context, walletID string) ([]byte, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "no terminal to ask the password on, set MSAFE_PASSWORD_FILE")
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.Wrap(errors.ErrInput, "no terminal to ask the password on, set MSAFE_PASSWORD_FILE")
	}
	fmt.Fprintf(a.prompt, "Password of wallet %s: ", walletID)
	defer fmt.Fprintln(a.prompt)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCancelled, err.Error())
	}
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrCancelled, "empty password")
	}
	return raw, nil
}

func (c *Config) Auth() multisafe.Auth {
	if c.PasswordFile != "" {
		return passwordFile(c.PasswordFile)
	}
	return terminalAuth{prompt: os.Stderr}
}
