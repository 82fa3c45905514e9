package multisafe

// ReadOnlyKVStore gives read access to a key value store. Keys must not be
// nil.
type ReadOnlyKVStore interface {
	// Get returns nil when the key does not exist.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// Iterator walks keys in [start, end) in ascending order. A nil bound
	// leaves that side of the range open.
	Iterator(start, end []byte) (Iterator, error)
}

// KVStore is the persistence a cosigner device provides for pending
// transactions.
type KVStore interface {
	ReadOnlyKVStore

	Set(key, value []byte) error
	// Delete of a missing key is not an error.
	Delete(key []byte) error
}

// Iterator is a cursor over a range of keys. It must be closed after use.
//
//	for ; it.Valid(); it.Next() {
//		k, v := it.Key(), it.Value()
//	}
type Iterator interface {
	// Valid is false once the range is exhausted.
	Valid() bool
	// Next, Key and Value panic when the iterator is not valid.
	Next()
	// Key and Value must not be modified by the caller.
	Key() []byte
	Value() []byte
	Close()
}
