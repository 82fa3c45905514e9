package store

import (
	"github.com/iov-one/multisafe/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a KVStore persisted on disk. This is where a device keeps the
// transactions that wait for cosigner signatures.
type LevelDB struct {
	db *leveldb.DB
}

var _ KVStore = (*LevelDB)(nil)

// OpenLevelDB opens or creates a database in given directory.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %s: %s", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// NewMemLevelDB returns a LevelDB instance that keeps its files in memory.
func NewMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &LevelDB{db: db}, nil
}

// Close releases the database.
func (l *LevelDB) Close() error {
	if err := l.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Get returns nil if the key does not exist.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	assertKey(key)
	value, err := l.db.Get(key, nil)
	switch {
	case err == leveldb.ErrNotFound:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Has returns true if the key exists.
func (l *LevelDB) Has(key []byte) (bool, error) {
	assertKey(key)
	ok, err := l.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// Set writes the value and syncs it to disk.
func (l *LevelDB) Set(key, value []byte) error {
	assertKey(key)
	if err := l.db.Put(key, value, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (l *LevelDB) Delete(key []byte) error {
	assertKey(key)
	if err := l.db.Delete(key, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Iterator over a domain of keys in ascending order. End is exclusive. The
// iterator reads from a consistent snapshot of the database.
func (l *LevelDB) Iterator(start, end []byte) (Iterator, error) {
	it := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	if err := it.Error(); err != nil {
		it.Release()
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	it.First()
	return &levelIterator{it: it}, nil
}

type levelIterator struct {
	it iterator.Iterator
}

var _ Iterator = (*levelIterator)(nil)

func (i *levelIterator) Valid() bool {
	return i.it.Valid()
}

func (i *levelIterator) Next() {
	if !i.it.Valid() {
		panic("Advanced past the end!")
	}
	i.it.Next()
}

// Key returns a copy, leveldb reuses the buffer on Next.
func (i *levelIterator) Key() []byte {
	return append([]byte{}, i.it.Key()...)
}

func (i *levelIterator) Value() []byte {
	return append([]byte{}, i.it.Value()...)
}

func (i *levelIterator) Close() {
	i.it.Release()
}
