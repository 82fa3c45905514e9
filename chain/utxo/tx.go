package utxo

import (
	"encoding/hex"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/errors"
)

const (
	// TxVersion is the only transaction version understood.
	TxVersion = 1

	// MaxMemoLen is the longest memo accepted, in bytes.
	MaxMemoLen = 512
)

// TxType tells how a transaction payload is interpreted.
const (
	TxTypeTransfer uint32 = 2
	TxTypeVote     uint32 = 10
)

// Transaction is the wire representation of a transaction. Programs carry
// the redeem code of every spent address together with the signatures
// collected so far. Everything else is covered by the signatures.
type Transaction struct {
	Version  uint32       `protobuf:"varint,1,opt,name=version,proto3" json:"version"`
	TxType   uint32       `protobuf:"varint,2,opt,name=tx_type,json=txType,proto3" json:"tx_type"`
	Payload  *VotePayload `protobuf:"bytes,3,opt,name=payload,proto3" json:"payload,omitempty"`
	Inputs   []*Input     `protobuf:"bytes,4,rep,name=inputs,proto3" json:"inputs"`
	Outputs  []*Output    `protobuf:"bytes,5,rep,name=outputs,proto3" json:"outputs"`
	Fee      int64        `protobuf:"varint,6,opt,name=fee,proto3" json:"fee"`
	Memo     string       `protobuf:"bytes,7,opt,name=memo,proto3" json:"memo,omitempty"`
	LockTime uint32       `protobuf:"varint,8,opt,name=lock_time,json=lockTime,proto3" json:"lock_time"`
	Programs []*Program   `protobuf:"bytes,9,rep,name=programs,proto3" json:"programs"`
}

func (m *Transaction) Reset()         { *m = Transaction{} }
func (m *Transaction) String() string { return proto.CompactTextString(m) }
func (*Transaction) ProtoMessage()    {}

// Input spends an output of a previous transaction.
type Input struct {
	TxHash   []byte `protobuf:"bytes,1,opt,name=tx_hash,json=txHash,proto3" json:"tx_hash"`
	Index    uint32 `protobuf:"varint,2,opt,name=index,proto3" json:"index"`
	Sequence uint32 `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence"`
	Address  string `protobuf:"bytes,4,opt,name=address,proto3" json:"address"`
	Amount   int64  `protobuf:"varint,5,opt,name=amount,proto3" json:"amount"`
}

func (m *Input) Reset()         { *m = Input{} }
func (m *Input) String() string { return proto.CompactTextString(m) }
func (*Input) ProtoMessage()    {}

// Output assigns an amount to an address.
type Output struct {
	Address string `protobuf:"bytes,1,opt,name=address,proto3" json:"address"`
	Amount  int64  `protobuf:"varint,2,opt,name=amount,proto3" json:"amount"`
}

func (m *Output) Reset()         { *m = Output{} }
func (m *Output) String() string { return proto.CompactTextString(m) }
func (*Output) ProtoMessage()    {}

// Program unlocks the inputs of one multisig address. Code is the redeem
// script, Parameters are the DER signatures ordered as the keys in Code.
type Program struct {
	Code       []byte   `protobuf:"bytes,1,opt,name=code,proto3" json:"code"`
	Parameters [][]byte `protobuf:"bytes,2,rep,name=parameters,proto3" json:"parameters"`
}

func (m *Program) Reset()         { *m = Program{} }
func (m *Program) String() string { return proto.CompactTextString(m) }
func (*Program) ProtoMessage()    {}

// VotePayload is the payload of a TxTypeVote transaction.
type VotePayload struct {
	Contents []*VoteContent `protobuf:"bytes,1,rep,name=contents,proto3" json:"contents"`
}

func (m *VotePayload) Reset()         { *m = VotePayload{} }
func (m *VotePayload) String() string { return proto.CompactTextString(m) }
func (*VotePayload) ProtoMessage()    {}

type VoteContent struct {
	Type       string           `protobuf:"bytes,1,opt,name=type,proto3" json:"type"`
	Candidates []*VoteCandidate `protobuf:"bytes,2,rep,name=candidates,proto3" json:"candidates"`
}

func (m *VoteContent) Reset()         { *m = VoteContent{} }
func (m *VoteContent) String() string { return proto.CompactTextString(m) }
func (*VoteContent) ProtoMessage()    {}

type VoteCandidate struct {
	Candidate string `protobuf:"bytes,1,opt,name=candidate,proto3" json:"candidate"`
	Votes     int64  `protobuf:"varint,2,opt,name=votes,proto3" json:"votes"`
}

func (m *VoteCandidate) Reset()         { *m = VoteCandidate{} }
func (m *VoteCandidate) String() string { return proto.CompactTextString(m) }
func (*VoteCandidate) ProtoMessage()    {}

// Encode returns the hex encoded protobuf serialization of the transaction.
func Encode(tx *Transaction) (string, error) {
	raw, err := proto.Marshal(tx)
	if err != nil {
		return "", errors.Wrap(errors.ErrEncoding, err.Error())
	}
	return hex.EncodeToString(raw), nil
}

// Decode parses a hex encoded transaction and checks its structure.
func Decode(rawTx string) (*Transaction, error) {
	raw, err := hex.DecodeString(rawTx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrEncoding, "raw transaction is not hex")
	}
	var tx Transaction
	if err := proto.Unmarshal(raw, &tx); err != nil {
		return nil, errors.Wrap(errors.ErrEncoding, err.Error())
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Validate checks the structure of the transaction. Signatures are not
// verified here.
func (m *Transaction) Validate() error {
	var errs error
	if m.Version != TxVersion {
		errs = errors.AppendField(errs, "Version", errors.Wrapf(errors.ErrInput, "version %d", m.Version))
	}
	switch m.TxType {
	case TxTypeTransfer:
		if m.Payload != nil {
			errs = errors.AppendField(errs, "Payload", errors.Wrap(errors.ErrInput, "transfer carries no payload"))
		}
	case TxTypeVote:
		if m.Payload == nil || len(m.Payload.Contents) == 0 {
			errs = errors.AppendField(errs, "Payload", errors.ErrEmpty)
		}
	default:
		errs = errors.AppendField(errs, "TxType", errors.ErrType)
	}
	if len(m.Inputs) == 0 {
		errs = errors.AppendField(errs, "Inputs", errors.ErrEmpty)
	}
	for i, in := range m.Inputs {
		if len(in.TxHash) != chainhash.HashSize {
			errs = errors.AppendField(errs, fieldIndex("Inputs", i), errors.Wrap(errors.ErrInput, "tx hash"))
		}
		if in.Amount <= 0 {
			errs = errors.AppendField(errs, fieldIndex("Inputs", i), errors.ErrAmount)
		}
	}
	for i, out := range m.Outputs {
		if out.Amount <= 0 {
			errs = errors.AppendField(errs, fieldIndex("Outputs", i), errors.ErrAmount)
		}
	}
	if m.Fee < 0 {
		errs = errors.AppendField(errs, "Fee", errors.ErrAmount)
	}
	if len(m.Memo) > MaxMemoLen {
		errs = errors.AppendField(errs, "Memo", errors.Wrapf(errors.ErrInput, "longer than %d", MaxMemoLen))
	}
	if len(m.Programs) == 0 {
		errs = errors.AppendField(errs, "Programs", errors.ErrEmpty)
	}
	for i, p := range m.Programs {
		if _, err := parseProgram(p.Code); err != nil {
			errs = errors.AppendField(errs, fieldIndex("Programs", i), err)
		}
	}
	return errs
}

// canonical returns a copy of the transaction with all signatures removed.
func (m *Transaction) canonical() *Transaction {
	c := *m
	c.Programs = make([]*Program, len(m.Programs))
	for i, p := range m.Programs {
		c.Programs[i] = &Program{Code: p.Code}
	}
	return &c
}

// SignBytes returns the serialization covered by the signatures. It is
// identical at every signature stage of the transaction.
func (m *Transaction) SignBytes() ([]byte, error) {
	raw, err := proto.Marshal(m.canonical())
	if err != nil {
		return nil, errors.Wrap(errors.ErrEncoding, err.Error())
	}
	return raw, nil
}

// Digest returns the hash that cosigners sign.
func (m *Transaction) Digest() ([]byte, error) {
	raw, err := m.SignBytes()
	if err != nil {
		return nil, err
	}
	return chainhash.DoubleHashB(raw), nil
}

// Hash returns the transaction id.
func (m *Transaction) Hash() (chainhash.Hash, error) {
	raw, err := m.SignBytes()
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(raw), nil
}

// HashString returns the transaction id in its usual display form. A
// transaction that cannot be serialized has an empty id.
func (m *Transaction) HashString() string {
	h, err := m.Hash()
	if err != nil {
		return ""
	}
	return h.String()
}

// Type returns the offline flow of the transaction.
func (m *Transaction) Type() multisafe.OfflineTransactionType {
	if m.TxType == TxTypeVote {
		return multisafe.OfflineTxMultisigVote
	}
	return multisafe.OfflineTxMultisigStandard
}

func fieldIndex(name string, i int) string {
	return name + "." + strconv.Itoa(i)
}
