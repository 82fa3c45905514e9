package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/multisafe/errors"
	"github.com/skip2/go-qrcode"
)

func cmdQR(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Render a payload read from the input as a QR code, so that it can be scanned
by another cosigner device.

The code is printed to the terminal unless an image file is requested.
`)
		fl.PrintDefaults()
	}
	var (
		pngFl  = fl.String("png", "", "Write a PNG image to this file instead of printing to the terminal.")
		sizeFl = fl.Int("size", 512, "Width and height of the PNG image in pixels.")
	)
	fl.Parse(args)

	payload, err := readPayload(input)
	if err != nil {
		return err
	}
	qr, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot encode QR code: %s", err)
	}
	if *pngFl == "" {
		_, err := fmt.Fprint(output, qr.ToSmallString(false))
		return err
	}
	png, err := qr.PNG(*sizeFl)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot render QR code: %s", err)
	}
	if err := os.WriteFile(*pngFl, png, 0600); err != nil {
		return fmt.Errorf("cannot write %q: %s", *pngFl, err)
	}
	return nil
}
