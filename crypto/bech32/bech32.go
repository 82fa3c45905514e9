/*
Package bech32 converts raw payloads to and from the bech32 representation
used for multisig program addresses.
*/
package bech32

import (
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/iov-one/multisafe/errors"
)

// Decode converts given bech32 encoded representation into raw payload and a
// human readable part.
func Decode(raw string) (string, []byte, error) {
	hrp, payload, err := bech32.Decode(raw)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrEncoding, err.Error())
	}
	payload, err = bech32.ConvertBits(payload, 5, 8, false)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrEncoding, "convert bits")
	}
	return hrp, payload, nil
}

// Encode converts given bytes into bech32 encoded representation.
func Encode(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.ErrEncoding, "convert bits")
	}
	raw, err := bech32.Encode(hrp, data)
	if err != nil {
		return "", errors.Wrap(errors.ErrEncoding, err.Error())
	}
	return raw, nil
}

// DecodeWithPrefix decodes an address and ensures it carries the expected
// human readable part.
func DecodeWithPrefix(raw, hrp string) ([]byte, error) {
	got, payload, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if got != hrp {
		return nil, errors.Wrapf(errors.ErrNetwork, "address prefix %q, expected %q", got, hrp)
	}
	return payload, nil
}
