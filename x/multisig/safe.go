package multisig

import (
	"context"
	"sync"
	"time"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain"
	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/x/matcher"
	"github.com/iov-one/multisafe/x/offline"
	"github.com/tendermint/tendermint/libs/log"
)

// Config holds the collaborators of a Safe. Wallet, Network, Loader, DB,
// Auth and Navigator are required.
type Config struct {
	Wallet  *multisafe.MasterWallet
	Network string
	// Loader returns the chain SDK of Network. It is called once, on first
	// use.
	Loader chain.Loader
	// DB keeps the pending transactions of this device.
	DB        multisafe.KVStore
	Auth      multisafe.Auth
	Navigator multisafe.Navigator
	Policy    matcher.Policy
	// Metrics defaults to a set of unregistered counters.
	Metrics *Metrics
	// Logger defaults to the logger of the request context.
	Logger log.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Safe implements multisafe.Safe for a multisig wallet.
type Safe struct {
	wallet    *multisafe.MasterWallet
	network   string
	caps      multisafe.CapabilitySet
	loader    chain.Loader
	store     *offline.Store
	auth      multisafe.Auth
	navigator multisafe.Navigator
	policy    matcher.Policy
	metrics   *Metrics
	logger    log.Logger
	now       func() time.Time

	mu      sync.Mutex
	sdk     chain.SDK
	matcher *matcher.Matcher
}

var _ multisafe.Safe = (*Safe)(nil)

// NewSafe returns a Safe of given wallet on given network.
func NewSafe(cfg Config) (*Safe, error) {
	var errs error
	if cfg.Wallet == nil {
		errs = errors.AppendField(errs, "Wallet", errors.ErrEmpty)
	} else if err := cfg.Wallet.Validate(); err != nil {
		errs = errors.AppendField(errs, "Wallet", err)
	}
	if cfg.Network == "" {
		errs = errors.AppendField(errs, "Network", errors.ErrEmpty)
	}
	if cfg.Loader == nil {
		errs = errors.AppendField(errs, "Loader", errors.ErrEmpty)
	}
	if cfg.DB == nil {
		errs = errors.AppendField(errs, "DB", errors.ErrEmpty)
	}
	if cfg.Auth == nil {
		errs = errors.AppendField(errs, "Auth", errors.ErrEmpty)
	}
	if cfg.Navigator == nil {
		errs = errors.AppendField(errs, "Navigator", errors.ErrEmpty)
	}
	if errs != nil {
		return nil, errors.Wrap(errs, "safe config")
	}

	s := &Safe{
		wallet:    cfg.Wallet,
		network:   cfg.Network,
		caps:      CapabilitiesFor(cfg.Network),
		loader:    cfg.Loader,
		auth:      cfg.Auth,
		navigator: cfg.Navigator,
		policy:    cfg.Policy,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.store = offline.NewStore(cfg.DB, offline.MergerFunc(s.mergeSignatures))
	return s, nil
}

// Wallet returns the master wallet of this Safe.
func (s *Safe) Wallet() *multisafe.MasterWallet {
	return s.wallet
}

// Network returns the network this Safe signs for.
func (s *Safe) Network() string {
	return s.network
}

// SubWallet returns the sub wallet this Safe signs for.
func (s *Safe) SubWallet() multisafe.SubWallet {
	return multisafe.SubWallet{MasterWalletID: s.wallet.ID, ID: s.network}
}

// Store returns the pending transactions of this device.
func (s *Safe) Store() *offline.Store {
	return s.store
}

func (s *Safe) Capabilities() multisafe.CapabilitySet {
	return s.caps
}

// Supports returns true if op is available on this network.
func (s *Safe) Supports(op multisafe.Operation) bool {
	return s.caps.Has(op)
}

// load returns the chain SDK, loading it on first use.
func (s *Safe) load() (chain.SDK, *matcher.Matcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sdk != nil {
		return s.sdk, s.matcher, nil
	}
	sdk, err := s.loader(s.network)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load %s sdk", s.network)
	}
	if sdk == nil {
		return nil, nil, errors.Wrapf(errors.ErrState, "no %s sdk", s.network)
	}
	s.sdk = sdk
	s.matcher = matcher.New(sdk, s.policy)
	return s.sdk, s.matcher, nil
}

func (s *Safe) log(ctx context.Context) log.Logger {
	logger := s.logger
	if logger == nil {
		logger = multisafe.GetLogger(ctx)
	}
	return logger.With("wallet", s.wallet.ID, "network", s.network)
}

func (s *Safe) checkSubWallet(sub multisafe.SubWallet) error {
	if err := sub.Validate(); err != nil {
		return errors.Wrap(err, "sub wallet")
	}
	if sub != s.SubWallet() {
		return errors.Wrapf(errors.ErrInput, "sub wallet %s/%s of safe %s/%s",
			sub.MasterWalletID, sub.ID, s.wallet.ID, s.network)
	}
	return nil
}

func (s *Safe) CreatePaymentTransaction(ctx context.Context, inputs []multisafe.UTXO, outputs []multisafe.Output, fee int64, memo string) (*multisafe.UnsignedTransaction, error) {
	if !s.Supports(multisafe.OpPayment) {
		return nil, nil
	}
	sdk, _, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, err := sdk.CreateTransaction(inputs, outputs, fee, memo)
	if err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	return &multisafe.UnsignedTransaction{Type: multisafe.OfflineTxMultisigStandard, RawTx: raw}, nil
}

func (s *Safe) CreateVoteTransaction(ctx context.Context, inputs []multisafe.UTXO, votes []multisafe.VoteContent, fee int64, memo string) (*multisafe.UnsignedTransaction, error) {
	if !s.Supports(multisafe.OpVote) {
		return nil, nil
	}
	sdk, _, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, err := sdk.CreateVoteTransaction(inputs, votes, fee, memo)
	if err != nil {
		return nil, errors.Wrap(err, "create vote")
	}
	return &multisafe.UnsignedTransaction{Type: multisafe.OfflineTxMultisigVote, RawTx: raw}, nil
}

// CreateProposalTransaction is never available for a multisig wallet.
func (s *Safe) CreateProposalTransaction(ctx context.Context, proposal []byte) (*multisafe.UnsignedTransaction, error) {
	return nil, nil
}

// CreateDIDPublicationTransaction is never available for a multisig
// wallet.
func (s *Safe) CreateDIDPublicationTransaction(ctx context.Context, document []byte) (*multisafe.UnsignedTransaction, error) {
	return nil, nil
}

// OfflineTransaction returns the record of rawTx as of now. The record is
// not stored.
func (s *Safe) OfflineTransaction(rawTx string) (*multisafe.OfflineTransaction, error) {
	sdk, _, err := s.load()
	if err != nil {
		return nil, err
	}
	tx, err := sdk.DecodeTx(rawTx)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	canonical, err := sdk.Canonicalize(rawTx)
	if err != nil {
		return nil, errors.Wrap(err, "canonicalize")
	}
	return multisafe.NewOfflineTransaction(canonical, tx.Type(), rawTx, s.now()), nil
}

// SignTransaction stores rawTx as a pending transaction, shows it through
// the Navigator and returns a delegated result. Any failure gives a failure
// result.
func (s *Safe) SignTransaction(ctx context.Context, sub multisafe.SubWallet, rawTx string, transfer *multisafe.Transfer) multisafe.SignTransactionResult {
	res, err := s.delegate(ctx, sub, rawTx, transfer)
	if err != nil {
		s.log(ctx).Error("cannot delegate signing", "err", err)
		res = multisafe.Failed()
	}
	s.metrics.observeSign(s.network, stepDelegate, res)
	return res
}

func (s *Safe) delegate(ctx context.Context, sub multisafe.SubWallet, rawTx string, transfer *multisafe.Transfer) (res multisafe.SignTransactionResult, err error) {
	defer errors.Recover(&err)

	if err := s.checkSubWallet(sub); err != nil {
		return res, err
	}
	otx, err := s.OfflineTransaction(rawTx)
	if err != nil {
		return res, err
	}
	stored, err := s.store.StoreTransaction(sub, otx)
	if err != nil {
		return res, errors.Wrap(err, "store")
	}
	pending := multisafe.PendingTransaction{
		MasterWalletID:     sub.MasterWalletID,
		SubWalletID:        sub.ID,
		OfflineTransaction: stored,
	}
	if err := s.navigator.ShowPendingTransaction(ctx, pending, transfer); err != nil {
		return res, errors.Wrap(err, "show pending transaction")
	}
	s.log(ctx).Info("signing delegated", "key", stored.TransactionKey)
	return multisafe.Delegated(), nil
}

// SignTransactionReal adds the signature of this device to rawTx. The
// wallet password is asked for every call and cleared afterwards.
func (s *Safe) SignTransactionReal(ctx context.Context, sub multisafe.SubWallet, rawTx string) multisafe.SignTransactionResult {
	res, err := s.signReal(ctx, sub, rawTx)
	if err != nil {
		s.log(ctx).Error("cannot sign", "err", err)
		res = multisafe.Failed()
	}
	s.metrics.observeSign(s.network, stepSign, res)
	return res
}

func (s *Safe) signReal(ctx context.Context, sub multisafe.SubWallet, rawTx string) (res multisafe.SignTransactionResult, err error) {
	defer errors.Recover(&err)

	if err := s.checkSubWallet(sub); err != nil {
		return res, err
	}
	sdk, _, err := s.load()
	if err != nil {
		return res, err
	}

	password, err := s.auth.WalletPassword(ctx, s.wallet.ID)
	defer clear(password)
	switch {
	case errors.ErrCancelled.Is(err):
		return multisafe.Cancelled(), nil
	case err != nil:
		return res, errors.Wrap(err, "wallet password")
	case len(password) == 0:
		return multisafe.Cancelled(), nil
	}

	out, err := sdk.SignTransaction(rawTx, password)
	if err != nil {
		return res, errors.Wrap(err, "sign")
	}
	if out.AlreadySigned {
		return multisafe.Signed(rawTx, true), nil
	}
	return multisafe.Signed(out.RawTx, false), nil
}

func (s *Safe) HasCosignerSigned(xpub, rawTx string) (bool, error) {
	_, m, err := s.load()
	if err != nil {
		return false, err
	}
	return m.HasCosignerSigned(rawTx, xpub)
}

func (s *Safe) HasSigningWalletSigned(rawTx string) (bool, error) {
	return s.HasCosignerSigned(s.wallet.ExtPubKey, rawTx)
}

func (s *Safe) HasEnoughSignaturesToPublish(rawTx string) (bool, error) {
	q, err := s.Quorum(rawTx)
	if err != nil {
		return false, err
	}
	return q.Reached(), nil
}

// Quorum returns the signature progress of rawTx against the wallet
// threshold.
func (s *Safe) Quorum(rawTx string) (matcher.Quorum, error) {
	_, m, err := s.load()
	if err != nil {
		return matcher.Quorum{}, err
	}
	return m.Quorum(rawTx, s.wallet.AllExtPubKeys(), s.wallet.RequiredSigners)
}

// ConvertSignedTransactionToPublishableTransaction returns the broadcast
// form of signedTx. It fails with errors.ErrState unless enough cosigners
// signed.
func (s *Safe) ConvertSignedTransactionToPublishableTransaction(ctx context.Context, sub multisafe.SubWallet, signedTx string) (string, error) {
	if err := s.checkSubWallet(sub); err != nil {
		return "", err
	}
	sdk, _, err := s.load()
	if err != nil {
		return "", err
	}
	q, err := s.Quorum(signedTx)
	if err != nil {
		return "", err
	}
	if !q.Reached() {
		return "", errors.Wrapf(errors.ErrState, "%d of %d signatures", q.Signed, q.Required)
	}
	wire, err := sdk.ConvertToRawTransaction(signedTx)
	if err != nil {
		return "", errors.Wrap(err, "convert")
	}
	s.metrics.observeConverted(s.network)
	s.log(ctx).Info("transaction ready for broadcast", "signers", q.Signed)
	return wire, nil
}

// GetOfflineTransactionHash returns the id the transaction will have on
// chain. It does not change as signatures are added.
func (s *Safe) GetOfflineTransactionHash(otx *multisafe.OfflineTransaction) (string, error) {
	if otx == nil || otx.RawTx == "" {
		return "", errors.Wrap(errors.ErrEmpty, "offline transaction")
	}
	sdk, _, err := s.load()
	if err != nil {
		return "", err
	}
	tx, err := sdk.DecodeTx(otx.RawTx)
	if err != nil {
		return "", errors.Wrap(err, "decode")
	}
	return tx.HashString(), nil
}

func (s *Safe) mergeSignatures(a, b string) (string, error) {
	sdk, _, err := s.load()
	if err != nil {
		return "", err
	}
	return sdk.MergeSignatures(a, b)
}
