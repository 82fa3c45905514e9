package utxo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/crypto/bech32"
	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/safetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	alice, bob, carol, dave *safetest.Cosigner
	account                 *Account
	address                 string
	payee                   string
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	cs := safetest.NewCosigners(t, 4)
	f := fixture{alice: cs[0], bob: cs[1], carol: cs[2], dave: cs[3]}

	account, err := NewAccount(2, safetest.XPubs(f.alice, f.bob, f.carol))
	require.NoError(t, err)
	f.account = account
	f.address, err = account.Address(&TestNetParams)
	require.NoError(t, err)
	f.payee, err = bech32.Encode(TestNetParams.AddressHRP, bytes.Repeat([]byte{7}, 20))
	require.NoError(t, err)
	return &f
}

func (f *fixture) sdk(t testing.TB, c *safetest.Cosigner, extra ...*Account) *SDK {
	t.Helper()
	cfg := Config{
		Params:   &TestNetParams,
		Accounts: append([]*Account{f.account}, extra...),
	}
	if c != nil {
		cfg.Keystore = c.Keystore
	}
	s, err := NewSDK(cfg)
	require.NoError(t, err)
	return s
}

func (f *fixture) inputs(amounts ...int64) []multisafe.UTXO {
	res := make([]multisafe.UTXO, len(amounts))
	for i, a := range amounts {
		res[i] = multisafe.UTXO{
			TxHash:  safetest.TxHash("funding"),
			Index:   uint32(i),
			Address: f.address,
			Amount:  a,
		}
	}
	return res
}

func (f *fixture) unsigned(t testing.TB) string {
	t.Helper()
	raw, err := f.sdk(t, nil).CreateTransaction(
		f.inputs(60000, 40000),
		[]multisafe.Output{{Address: f.payee, Amount: 70000}},
		1000, "rent")
	require.NoError(t, err)
	return raw
}

func sign(t testing.TB, s *SDK, c *safetest.Cosigner, rawTx string) signResult {
	t.Helper()
	out, err := s.SignTransaction(rawTx, c.Password)
	require.NoError(t, err)
	return signResult{raw: out.RawTx, already: out.AlreadySigned}
}

type signResult struct {
	raw     string
	already bool
}

func signers(t testing.TB, s *SDK, rawTx string) int {
	t.Helper()
	info, err := s.GetTransactionSignedInfo(rawTx)
	require.NoError(t, err)
	return len(info[0].Signers)
}

func TestAccountCodeIsOrderIndependent(t *testing.T) {
	f := newFixture(t)

	other, err := NewAccount(2, safetest.XPubs(f.carol, f.alice, f.bob))
	require.NoError(t, err)
	assert.Equal(t, f.account.Code(), other.Code())

	addr, err := other.Address(&TestNetParams)
	require.NoError(t, err)
	assert.Equal(t, f.address, addr)
	assert.True(t, strings.HasPrefix(addr, "tmsig1"))

	_, err = NewAccount(3, safetest.XPubs(f.alice, f.bob))
	assert.True(t, errors.ErrInput.Is(err))
	_, err = NewAccount(1, safetest.XPubs(f.alice, f.alice))
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestCreateTransaction(t *testing.T) {
	f := newFixture(t)
	s := f.sdk(t, nil)
	mainPayee, err := bech32.Encode(MainNetParams.AddressHRP, bytes.Repeat([]byte{7}, 20))
	require.NoError(t, err)

	cases := map[string]struct {
		inputs      []multisafe.UTXO
		outputs     []multisafe.Output
		fee         int64
		memo        string
		wantErr     *errors.Error
		wantOutputs int
	}{
		"payment with change": {
			inputs:      f.inputs(60000, 40000),
			outputs:     []multisafe.Output{{Address: f.payee, Amount: 70000}},
			fee:         1000,
			wantOutputs: 2,
		},
		"exact amount has no change": {
			inputs:      f.inputs(71000),
			outputs:     []multisafe.Output{{Address: f.payee, Amount: 70000}},
			fee:         1000,
			wantOutputs: 1,
		},
		"insufficient funds": {
			inputs:  f.inputs(100),
			outputs: []multisafe.Output{{Address: f.payee, Amount: 70000}},
			wantErr: errors.ErrAmount,
		},
		"negative fee": {
			inputs:  f.inputs(100000),
			outputs: []multisafe.Output{{Address: f.payee, Amount: 70000}},
			fee:     -1,
			wantErr: errors.ErrAmount,
		},
		"payee on another network": {
			inputs:  f.inputs(100000),
			outputs: []multisafe.Output{{Address: mainPayee, Amount: 70000}},
			wantErr: errors.ErrNetwork,
		},
		"input of a foreign address": {
			inputs:  []multisafe.UTXO{{TxHash: safetest.TxHash("x"), Address: f.payee, Amount: 100000}},
			outputs: []multisafe.Output{{Address: f.payee, Amount: 70000}},
			wantErr: errors.ErrUnauthorized,
		},
		"broken input hash": {
			inputs:  []multisafe.UTXO{{TxHash: "zz", Address: f.address, Amount: 100000}},
			outputs: []multisafe.Output{{Address: f.payee, Amount: 70000}},
			wantErr: errors.ErrInput,
		},
		"no outputs": {
			inputs:  f.inputs(100000),
			wantErr: errors.ErrEmpty,
		},
		"memo too long": {
			inputs:  f.inputs(100000),
			outputs: []multisafe.Output{{Address: f.payee, Amount: 70000}},
			memo:    strings.Repeat("m", MaxMemoLen+1),
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			raw, err := s.CreateTransaction(tc.inputs, tc.outputs, tc.fee, tc.memo)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %v error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			tx, err := Decode(raw)
			require.NoError(t, err)
			assert.Len(t, tx.Outputs, tc.wantOutputs)
			assert.Len(t, tx.Programs, 1)
			assert.Equal(t, multisafe.OfflineTxMultisigStandard, tx.Type())
			if tc.wantOutputs == 2 {
				assert.Equal(t, f.address, tx.Outputs[1].Address)
				assert.Equal(t, int64(29000), tx.Outputs[1].Amount)
			}
		})
	}
}

func TestTwoOfThreeSigning(t *testing.T) {
	f := newFixture(t)
	unsigned := f.unsigned(t)
	aliceSDK, bobSDK := f.sdk(t, f.alice), f.sdk(t, f.bob)

	_, err := aliceSDK.ConvertToRawTransaction(unsigned)
	assert.True(t, errors.ErrState.Is(err))

	byAlice := sign(t, aliceSDK, f.alice, unsigned)
	assert.False(t, byAlice.already)
	assert.Equal(t, 1, signers(t, aliceSDK, byAlice.raw))

	_, err = aliceSDK.ConvertToRawTransaction(byAlice.raw)
	assert.True(t, errors.ErrState.Is(err))

	again := sign(t, aliceSDK, f.alice, byAlice.raw)
	assert.True(t, again.already)
	assert.Equal(t, byAlice.raw, again.raw)
	assert.Equal(t, 1, signers(t, aliceSDK, again.raw))

	byBoth := sign(t, bobSDK, f.bob, byAlice.raw)
	assert.False(t, byBoth.already)
	assert.Equal(t, 2, signers(t, bobSDK, byBoth.raw))

	byAll := sign(t, f.sdk(t, f.carol), f.carol, byBoth.raw)
	assert.Equal(t, 3, signers(t, bobSDK, byAll.raw))

	wire, err := bobSDK.ConvertToRawTransaction(byAll.raw)
	require.NoError(t, err)
	require.NotEmpty(t, wire)
	decoded, err := Decode(wire)
	require.NoError(t, err)
	assert.Len(t, decoded.Programs[0].Parameters, 2, "trimmed to the threshold")

	original, err := bobSDK.DecodeTx(unsigned)
	require.NoError(t, err)
	assert.Equal(t, original.HashString(), decoded.HashString())
	assert.NotEmpty(t, decoded.HashString())
}

func TestSignatureDoesNotChangeCanonicalForm(t *testing.T) {
	f := newFixture(t)
	s := f.sdk(t, f.alice)
	unsigned := f.unsigned(t)
	signed := sign(t, s, f.alice, unsigned).raw

	c1, err := s.Canonicalize(unsigned)
	require.NoError(t, err)
	c2, err := s.Canonicalize(signed)
	require.NoError(t, err)
	c3, err := s.Canonicalize(strings.ToUpper(signed))
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Equal(t, c1, c3)
	assert.Equal(t, multisafe.NewTransactionKey(c1), multisafe.NewTransactionKey(c3))
	assert.NotEqual(t, unsigned, signed)
}

func TestSignErrors(t *testing.T) {
	f := newFixture(t)
	unsigned := f.unsigned(t)

	_, err := f.sdk(t, f.dave).SignTransaction(unsigned, f.dave.Password)
	assert.True(t, errors.ErrUnauthorized.Is(err), "not a cosigner")

	_, err = f.sdk(t, f.alice).SignTransaction(unsigned, []byte("wrong"))
	assert.True(t, errors.ErrUnauthorized.Is(err), "wrong password")

	_, err = f.sdk(t, nil).SignTransaction(unsigned, f.alice.Password)
	assert.True(t, errors.ErrState.Is(err), "watch only")

	_, err = f.sdk(t, f.alice).SignTransaction("not hex", f.alice.Password)
	assert.True(t, errors.ErrEncoding.Is(err))
}

func TestMergeSignatures(t *testing.T) {
	f := newFixture(t)
	s := f.sdk(t, nil)
	unsigned := f.unsigned(t)

	byAlice := sign(t, f.sdk(t, f.alice), f.alice, unsigned).raw
	byBob := sign(t, f.sdk(t, f.bob), f.bob, unsigned).raw

	merged, err := s.MergeSignatures(byAlice, byBob)
	require.NoError(t, err)
	assert.Equal(t, 2, signers(t, s, merged))

	reversed, err := s.MergeSignatures(byBob, byAlice)
	require.NoError(t, err)
	assert.Equal(t, merged, reversed, "signatures are kept in program order")

	older, err := s.MergeSignatures(merged, unsigned)
	require.NoError(t, err)
	assert.Equal(t, merged, older, "merging an older copy loses nothing")

	other, err := s.CreateTransaction(f.inputs(5000), []multisafe.Output{{Address: f.payee, Amount: 10}}, 0, "")
	require.NoError(t, err)
	_, err = s.MergeSignatures(merged, other)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestInvalidSignaturesAreIgnored(t *testing.T) {
	f := newFixture(t)
	s := f.sdk(t, f.alice)

	tx, err := Decode(f.unsigned(t))
	require.NoError(t, err)
	tx.Programs[0].Parameters = [][]byte{[]byte("forged")}
	forged, err := Encode(tx)
	require.NoError(t, err)
	assert.Equal(t, 0, signers(t, s, forged))

	signed := sign(t, s, f.alice, forged)
	assert.False(t, signed.already)
	tx, err = Decode(signed.raw)
	require.NoError(t, err)
	assert.Len(t, tx.Programs[0].Parameters, 1)
	assert.Equal(t, 1, signers(t, s, signed.raw))
}

func TestMatchSigningPublicKeysAcrossPrograms(t *testing.T) {
	f := newFixture(t)
	second, err := NewAccount(1, safetest.XPubs(f.alice, f.dave))
	require.NoError(t, err)
	secondAddr, err := second.Address(&TestNetParams)
	require.NoError(t, err)

	watch := f.sdk(t, nil, second)
	inputs := append(f.inputs(50000), multisafe.UTXO{
		TxHash: safetest.TxHash("second"), Address: secondAddr, Amount: 50000,
	})
	unsigned, err := watch.CreateTransaction(inputs, []multisafe.Output{{Address: f.payee, Amount: 1000}}, 0, "")
	require.NoError(t, err)

	byDave := sign(t, f.sdk(t, f.dave, second), f.dave, unsigned).raw
	byAlice := sign(t, f.sdk(t, f.alice, second), f.alice, unsigned).raw

	// Alice signature only on the first program.
	tx, err := Decode(byAlice)
	require.NoError(t, err)
	tx.Programs[1].Parameters = nil
	aliceFirstOnly, err := Encode(tx)
	require.NoError(t, err)

	xpubs := safetest.XPubs(f.alice, f.bob, f.dave)
	cases := map[string]struct {
		rawTx       string
		allPrograms bool
		want        []bool
	}{
		"dave on first program": {
			rawTx: byDave,
			want:  []bool{false, false, false},
		},
		"dave on every program": {
			rawTx:       byDave,
			allPrograms: true,
			want:        []bool{false, false, true},
		},
		"alice on first program": {
			rawTx: byAlice,
			want:  []bool{true, false, false},
		},
		"alice on every program": {
			rawTx:       byAlice,
			allPrograms: true,
			want:        []bool{true, false, false},
		},
		"alice partial on first program": {
			rawTx: aliceFirstOnly,
			want:  []bool{true, false, false},
		},
		"alice partial on every program": {
			rawTx:       aliceFirstOnly,
			allPrograms: true,
			want:        []bool{false, false, false},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			matches, err := watch.MatchSigningPublicKeys(tc.rawTx, xpubs, tc.allPrograms)
			require.NoError(t, err)
			require.Len(t, matches, len(xpubs))
			for i, m := range matches {
				assert.Equal(t, xpubs[i], m.XPubKey)
				assert.Equal(t, tc.want[i], m.Signed, "cosigner %d", i)
			}
		})
	}

	_, err = watch.MatchSigningPublicKeys(byDave, []string{"xpub-broken"}, false)
	assert.Error(t, err)
}

func TestVoteTransaction(t *testing.T) {
	f := newFixture(t)
	s := f.sdk(t, f.alice)
	votes := []multisafe.VoteContent{{
		Type:       "delegate",
		Candidates: []multisafe.VoteCandidate{{Candidate: "node-1", Votes: 3000}, {Candidate: "node-2", Votes: 2000}},
	}}

	raw, err := s.CreateVoteTransaction(f.inputs(10000), votes, 100, "")
	require.NoError(t, err)
	decoded, err := s.DecodeTx(raw)
	require.NoError(t, err)
	assert.Equal(t, multisafe.OfflineTxMultisigVote, decoded.Type())

	tx, err := Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, tx.Payload)
	require.Len(t, tx.Payload.Contents, 1)
	assert.Equal(t, "delegate", tx.Payload.Contents[0].Type)
	assert.Equal(t, []*VoteCandidate{{Candidate: "node-1", Votes: 3000}, {Candidate: "node-2", Votes: 2000}}, tx.Payload.Contents[0].Candidates)
	// The voting balance returns to the wallet.
	assert.Equal(t, []*Output{{Address: s.Address(), Amount: 9900}}, tx.Outputs)
	assert.NoError(t, tx.Validate())

	// Everything but the payload must still be valid.
	_, err = s.CreateVoteTransaction(f.inputs(10000), votes, -1, "")
	assert.True(t, errors.ErrAmount.Is(err), "negative fee")

	signed := sign(t, s, f.alice, raw)
	assert.Equal(t, 1, signers(t, s, signed.raw))

	_, err = s.CreateVoteTransaction(f.inputs(1000), votes, 0, "")
	assert.True(t, errors.ErrAmount.Is(err), "votes above balance")

	side, err := NewSDK(Config{Params: &SideNetParams, Accounts: []*Account{f.account}})
	require.NoError(t, err)
	_, err = side.CreateVoteTransaction(f.inputs(10000), votes, 0, "")
	assert.True(t, errors.ErrType.Is(err))
}

func TestParamsFor(t *testing.T) {
	p, err := ParamsFor("tmsig")
	require.NoError(t, err)
	assert.Equal(t, &TestNetParams, p)

	_, err = ParamsFor("eth")
	assert.True(t, errors.ErrNetwork.Is(err))
	assert.Equal(t, []string{"msig", "msig-side", "tmsig"}, Networks())
}
