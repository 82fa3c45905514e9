package multisafe

import (
	"encoding/hex"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/multisafe/errors"
)

// OfflineTransactionType tags the payload kind of an offline transaction.
type OfflineTransactionType string

const (
	// OfflineTxMultisigStandard is a multisig payment.
	OfflineTxMultisigStandard OfflineTransactionType = "multisig_standard"
	// OfflineTxMultisigVote is a multisig vote.
	OfflineTxMultisigVote OfflineTransactionType = "multisig_vote"
)

// Validate returns an error if the type is not known.
func (t OfflineTransactionType) Validate() error {
	switch t {
	case OfflineTxMultisigStandard, OfflineTxMultisigVote:
		return nil
	default:
		return errors.Wrapf(errors.ErrType, "offline transaction type %q", string(t))
	}
}

// OfflineTransaction is a transaction awaiting more cosigner signatures.
// RawTx carries all signatures collected so far. The TransactionKey does not
// depend on the signatures, so every signature stage of the same transaction
// resolves to the same key.
type OfflineTransaction struct {
	TransactionKey string                 `protobuf:"bytes,1,opt,name=transaction_key,json=transactionKey,proto3" json:"transaction_key"`
	Type           OfflineTransactionType `protobuf:"bytes,2,opt,name=type,proto3" json:"type"`
	RawTx          string                 `protobuf:"bytes,3,opt,name=raw_tx,json=rawTx,proto3" json:"raw_tx"`
	Updated        UnixTime               `protobuf:"varint,4,opt,name=updated,proto3" json:"updated"`
}

func (m *OfflineTransaction) Reset()         { *m = OfflineTransaction{} }
func (m *OfflineTransaction) String() string { return proto.CompactTextString(m) }
func (*OfflineTransaction) ProtoMessage()    {}

// NewOfflineTransaction returns a record for a canonical transaction.
func NewOfflineTransaction(canonical []byte, t OfflineTransactionType, rawTx string, now time.Time) *OfflineTransaction {
	return &OfflineTransaction{
		TransactionKey: NewTransactionKey(canonical),
		Type:           t,
		RawTx:          rawTx,
		Updated:        AsUnixTime(now),
	}
}

// NewTransactionKey returns the content key of a transaction given its
// canonical serialization.
func NewTransactionKey(canonical []byte) string {
	return hex.EncodeToString(chainhash.HashB(canonical))
}

// Validate returns an error if the record cannot be persisted.
func (m *OfflineTransaction) Validate() error {
	var errs error
	if key, err := hex.DecodeString(m.TransactionKey); err != nil || len(key) != chainhash.HashSize {
		errs = errors.AppendField(errs, "TransactionKey", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Type", m.Type.Validate())
	if m.RawTx == "" {
		errs = errors.AppendField(errs, "RawTx", errors.ErrEmpty)
	} else if _, err := hex.DecodeString(m.RawTx); err != nil {
		errs = errors.AppendField(errs, "RawTx", errors.ErrEncoding)
	}
	errs = errors.AppendField(errs, "Updated", m.Updated.Validate())
	return errs
}

// Copy returns an independent copy of the record.
func (m *OfflineTransaction) Copy() *OfflineTransaction {
	c := *m
	return &c
}

// MarshalBinary returns the protobuf serialization of the record.
func (m *OfflineTransaction) MarshalBinary() ([]byte, error) {
	raw, err := proto.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrEncoding, err.Error())
	}
	return raw, nil
}

// UnmarshalBinary loads the record from its protobuf serialization.
func (m *OfflineTransaction) UnmarshalBinary(raw []byte) error {
	if err := proto.Unmarshal(raw, m); err != nil {
		return errors.Wrap(errors.ErrEncoding, err.Error())
	}
	return nil
}

// PendingTransaction is handed to the Navigator when signing has been
// delegated to the offline flow.
type PendingTransaction struct {
	MasterWalletID     string
	SubWalletID        string
	OfflineTransaction *OfflineTransaction
}
