package offline

import (
	"bytes"
	"sort"
	"sync"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/orm"
)

// BucketName is where the pending transactions are kept.
const BucketName = "offline_tx"

// Merger combines the signatures of two payloads of the same transaction.
type Merger interface {
	MergeSignatures(a, b string) (string, error)
}

// MergerFunc adapts a function to the Merger interface.
type MergerFunc func(a, b string) (string, error)

func (fn MergerFunc) MergeSignatures(a, b string) (string, error) {
	return fn(a, b)
}

// Store persists offline transactions. It is safe for concurrent use.
type Store struct {
	db     multisafe.KVStore
	bucket orm.Bucket
	merger Merger

	// mu serializes read-modify-write cycles of StoreTransaction.
	mu sync.Mutex
}

// NewStore returns a store writing to db.
func NewStore(db multisafe.KVStore, merger Merger) *Store {
	return &Store{
		db:     db,
		bucket: orm.NewBucket(BucketName),
		merger: merger,
	}
}

// StoreTransaction inserts the record or merges it into the stored one. The
// record as stored is returned. A stored payload is never replaced by one
// carrying fewer signatures and unchanged content is not written again.
func (s *Store) StoreTransaction(sub multisafe.SubWallet, otx *multisafe.OfflineTransaction) (*multisafe.OfflineTransaction, error) {
	if err := sub.Validate(); err != nil {
		return nil, errors.Wrap(err, "sub wallet")
	}
	if err := otx.Validate(); err != nil {
		return nil, errors.Wrap(err, "offline transaction")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(sub, otx.TransactionKey)
	var stored multisafe.OfflineTransaction
	switch err := s.bucket.Load(s.db, key, &stored); {
	case errors.ErrNotFound.Is(err):
		rec := otx.Copy()
		if err := s.bucket.Save(s.db, key, rec); err != nil {
			return nil, err
		}
		return rec, nil
	case err != nil:
		return nil, err
	}

	if stored.Type != otx.Type {
		return nil, errors.Wrapf(errors.ErrType, "stored as %s, got %s", stored.Type, otx.Type)
	}
	merged, err := s.merger.MergeSignatures(stored.RawTx, otx.RawTx)
	if err != nil {
		return nil, errors.Wrap(err, "merge signatures")
	}
	if merged == stored.RawTx {
		return &stored, nil
	}
	rec := stored.Copy()
	rec.RawTx = merged
	if otx.Updated > rec.Updated {
		rec.Updated = otx.Updated
	}
	if err := s.bucket.Save(s.db, key, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetTransaction returns the stored record. It returns errors.ErrNotFound if
// there is none.
func (s *Store) GetTransaction(sub multisafe.SubWallet, transactionKey string) (*multisafe.OfflineTransaction, error) {
	if err := sub.Validate(); err != nil {
		return nil, errors.Wrap(err, "sub wallet")
	}
	var otx multisafe.OfflineTransaction
	if err := s.bucket.Load(s.db, recordKey(sub, transactionKey), &otx); err != nil {
		return nil, err
	}
	return &otx, nil
}

// ListPending returns all records of the sub wallet, most recently updated
// first.
func (s *Store) ListPending(sub multisafe.SubWallet) ([]*multisafe.OfflineTransaction, error) {
	if err := sub.Validate(); err != nil {
		return nil, errors.Wrap(err, "sub wallet")
	}
	var res []*multisafe.OfflineTransaction
	err := s.bucket.Iterate(s.db, subPrefix(sub), func(key, value []byte) error {
		var otx multisafe.OfflineTransaction
		if err := otx.UnmarshalBinary(value); err != nil {
			return errors.Wrapf(err, "record %q", key)
		}
		res = append(res, &otx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Updated != res[j].Updated {
			return res[i].Updated > res[j].Updated
		}
		return res[i].TransactionKey < res[j].TransactionKey
	})
	return res, nil
}

// DeleteTransaction removes the record. It returns errors.ErrNotFound if
// there is none.
func (s *Store) DeleteTransaction(sub multisafe.SubWallet, transactionKey string) error {
	if err := sub.Validate(); err != nil {
		return errors.Wrap(err, "sub wallet")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bucket.Delete(s.db, recordKey(sub, transactionKey))
}

func subPrefix(sub multisafe.SubWallet) []byte {
	var b bytes.Buffer
	b.WriteString(sub.MasterWalletID)
	b.WriteByte('/')
	b.WriteString(sub.ID)
	b.WriteByte('/')
	return b.Bytes()
}

func recordKey(sub multisafe.SubWallet, transactionKey string) []byte {
	return append(subPrefix(sub), transactionKey...)
}
