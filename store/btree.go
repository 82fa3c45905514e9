package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

const (
	// DefaultFreeListSize is the size we hold for free node in btree
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// MemStore is an in-memory KVStore backed by a btree. It is safe for
// concurrent use. Iterators work on a snapshot taken when they are created,
// so the store may be modified while iterating.
type MemStore struct {
	mu sync.RWMutex
	bt *btree.BTree
}

var _ KVStore = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	free := btree.NewFreeList(DefaultFreeListSize)
	return &MemStore{
		bt: btree.NewWithFreeList(2, free),
	}
}

// Get returns nil if the key does not exist.
func (m *MemStore) Get(key []byte) ([]byte, error) {
	assertKey(key)
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := m.bt.Get(bkey{key})
	if res == nil {
		return nil, nil
	}
	return copyBytes(res.(setItem).value), nil
}

// Has returns true if the key exists.
func (m *MemStore) Has(key []byte) (bool, error) {
	assertKey(key)
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bt.Has(bkey{key}), nil
}

// Set writes the value. Both key and value are copied.
func (m *MemStore) Set(key, value []byte) error {
	assertKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bt.ReplaceOrInsert(newSetItem(copyBytes(key), append([]byte{}, value...)))
	return nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (m *MemStore) Delete(key []byte) error {
	assertKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bt.Delete(bkey{key})
	return nil
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (m *MemStore) Iterator(start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var data []Model
	collect := func(item btree.Item) bool {
		it := item.(setItem)
		data = append(data, Model{Key: copyBytes(it.key), Value: copyBytes(it.value)})
		return true
	}
	switch {
	case start == nil && end == nil:
		m.bt.Ascend(collect)
	case start == nil:
		m.bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		m.bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		m.bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return NewSliceIterator(data), nil
}

// Len returns the number of stored keys.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bt.Len()
}

func assertKey(key []byte) {
	if key == nil {
		panic("nil key")
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}

/////////////////////////////////////////////////////////
// Items to write to btree

// we enforce all data in our btree implements keyer so we
// can compare nicely
type keyer interface {
	Key() []byte
}

// bkey implements keyer and btree.Item
// and may be used for queries or embedded in data to store
type bkey struct {
	key []byte
}

var _ keyer = bkey{}
var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

// Less returns true iff second argument is greater than first
//
// panics if the item to compare doesn't implement keyer.
func (k bkey) Less(item btree.Item) bool {
	cmp := item.(keyer).Key()
	return bytes.Compare(k.key, cmp) < 0
}

type setItem struct {
	bkey
	value []byte
}

func newSetItem(key, value []byte) setItem {
	return setItem{bkey{key}, value}
}
