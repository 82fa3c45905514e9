package multisafe

import (
	"time"

	"github.com/iov-one/multisafe/errors"
)

// UnixTime is a point in time with seconds precision. Records exchanged
// between cosigner devices use it so that they compare equal everywhere.
type UnixTime int64

// AsUnixTime drops the sub second part of t.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0)
}

func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "time before epoch")
	}
	return nil
}

// String returns the UTC time in RFC 3339 format.
func (t UnixTime) String() string {
	return t.Time().UTC().Format(time.RFC3339)
}
