package multisafe

import (
	"testing"
	"time"

	"github.com/iov-one/multisafe/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionKeyIsStable(t *testing.T) {
	canonical := []byte("canonical transaction bytes")
	a := NewTransactionKey(canonical)
	b := NewTransactionKey(append([]byte(nil), canonical...))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, NewTransactionKey([]byte("other")))
}

func TestOfflineTransactionBinary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	otx := NewOfflineTransaction([]byte("tx"), OfflineTxMultisigStandard, "0a0b", now)
	require.NoError(t, otx.Validate())
	assert.Equal(t, now, otx.Updated.Time().UTC())

	raw, err := otx.MarshalBinary()
	require.NoError(t, err)

	var got OfflineTransaction
	require.NoError(t, got.UnmarshalBinary(raw))
	assert.Equal(t, otx, &got)

	assert.True(t, errors.ErrEncoding.Is(got.UnmarshalBinary([]byte{0xff, 0xff})))
}

func TestOfflineTransactionValidate(t *testing.T) {
	valid := NewOfflineTransaction([]byte("tx"), OfflineTxMultisigVote, "0a0b", time.Now())

	cases := map[string]struct {
		mutate    func(*OfflineTransaction)
		wantField string
	}{
		"valid":          {mutate: func(*OfflineTransaction) {}},
		"short key":      {mutate: func(o *OfflineTransaction) { o.TransactionKey = "abcd" }, wantField: "TransactionKey"},
		"unknown type":   {mutate: func(o *OfflineTransaction) { o.Type = "single" }, wantField: "Type"},
		"empty payload":  {mutate: func(o *OfflineTransaction) { o.RawTx = "" }, wantField: "RawTx"},
		"not hex":        {mutate: func(o *OfflineTransaction) { o.RawTx = "xyz" }, wantField: "RawTx"},
		"negative clock": {mutate: func(o *OfflineTransaction) { o.Updated = -1 }, wantField: "Updated"},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			otx := valid.Copy()
			tc.mutate(otx)
			err := otx.Validate()
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.NotEmpty(t, errors.FieldErrors(err, tc.wantField))
		})
	}
}
