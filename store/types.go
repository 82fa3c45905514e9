package store

import "github.com/iov-one/multisafe"

// Move references for all storage types into this package
// for shorter names everywhere

type KVStore = multisafe.KVStore
type ReadOnlyKVStore = multisafe.ReadOnlyKVStore
type Iterator = multisafe.Iterator

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
