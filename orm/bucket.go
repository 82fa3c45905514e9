/*
Package orm provides an easy to use db wrapper.

The state space is broken into prefixed sections called Buckets. Each bucket
contains only one type of model, all models are validated before being
written.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/store"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Model is the interface of everything that can be stored in a bucket.
type Model interface {
	Validate() error
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

// Bucket is a prefixed subspace of the DB.
type Bucket struct {
	name   string
	prefix []byte
}

// NewBucket creates a bucket to store data. Invalid name is a programming
// error and results in panic.
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the bucket name.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix.
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Save validates and writes a model under given key. An invalid model is
// errors.ErrModel.
func (b Bucket) Save(db store.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		// ErrModel first, so that it is the kind of the result. The
		// validation errors stay reachable for FieldErrors.
		return errors.Append(errors.Wrap(errors.ErrModel, "cannot save invalid model"), err)
	}
	raw, err := m.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	if err := db.Set(b.DBKey(key), raw); err != nil {
		return errors.Wrapf(err, "%s bucket", b.name)
	}
	return nil
}

// Load reads the model stored under given key into dst. It returns
// errors.ErrNotFound if there is no such key.
func (b Bucket) Load(db store.ReadOnlyKVStore, key []byte, dst Model) error {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrapf(err, "%s bucket", b.name)
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s bucket: %q", b.name, key)
	}
	if err := dst.UnmarshalBinary(raw); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	return nil
}

// Has returns true if a model is stored under given key.
func (b Bucket) Has(db store.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return false, errors.Wrapf(err, "%s bucket", b.name)
	}
	return ok, nil
}

// Delete removes the model stored under given key. It returns
// errors.ErrNotFound if there is no such key.
func (b Bucket) Delete(db store.KVStore, key []byte) error {
	ok, err := b.Has(db, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s bucket: %q", b.name, key)
	}
	if err := db.Delete(b.DBKey(key)); err != nil {
		return errors.Wrapf(err, "%s bucket", b.name)
	}
	return nil
}

// Iterate calls fn for every model whose key starts with given prefix, in
// key order. Keys given to fn do not carry the bucket prefix. Iteration stops
// at the first error returned by fn.
func (b Bucket) Iterate(db store.ReadOnlyKVStore, prefix []byte, fn func(key, value []byte) error) error {
	start, end := store.PrefixRange(b.DBKey(prefix))
	it, err := db.Iterator(start, end)
	if err != nil {
		return errors.Wrapf(err, "%s bucket", b.name)
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		if err := fn(it.Key()[len(b.prefix):], it.Value()); err != nil {
			return err
		}
	}
	return nil
}
