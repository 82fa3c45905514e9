package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/iov-one/multisafe"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// A command function is given stdin, stdout and the command line arguments
// without the program name and the command name. Payloads travel through
// stdin and stdout so that commands can be chained with a unix pipe and
// transactions can be handed over between cosigner devices as plain text:
//
//   $ msafe create-payment -to tmsig1... -amount 1.5 < utxos.json \
//       | msafe propose \
//       | msafe sign \
//       > for-bob.txt
//
// Messages meant for the user are written to os.Stderr.
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"create-payment": cmdCreatePayment,
	"discard":        cmdDiscard,
	"keygen":         cmdKeygen,
	"pending":        cmdPending,
	"propose":        cmdPropose,
	"publish":        cmdPublish,
	"qr":             cmdQR,
	"receive":        cmdReceive,
	"sign":           cmdSign,
	"version":        cmdVersion,
	"view":           cmdView,
	"wallet-new":     cmdWalletNew,
	"xpub":           cmdXPub,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s drives the signing ceremony of an M-of-N multisig wallet.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	_, err := fmt.Fprintln(out, multisafe.Version())
	return err
}
