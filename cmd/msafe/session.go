package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/iov-one/multisafe"
	"github.com/iov-one/multisafe/chain/utxo"
	"github.com/iov-one/multisafe/crypto"
	"github.com/iov-one/multisafe/errors"
	"github.com/iov-one/multisafe/store"
	"github.com/iov-one/multisafe/x/matcher"
	"github.com/iov-one/multisafe/x/multisig"
)

// session is everything a command needs to work with the wallet of this
// device. It must be closed to release the pending transactions database.
type session struct {
	cfg    *Config
	ctx    context.Context
	wallet *multisafe.MasterWallet
	db     *store.LevelDB
	safe   *multisig.Safe
	coord  *multisig.Coordinator
}

func openSession(cfg *Config) (*session, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	policy, err := matcher.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	wallet, err := multisafe.LoadMasterWallet(cfg.Wallet)
	if err != nil {
		return nil, errors.Wrap(err, "create a wallet with wallet-new first")
	}
	ks, err := crypto.LoadKeystore(cfg.Keystore)
	switch {
	case errors.ErrNotFound.Is(err):
		// Watch only. Signing fails, everything else works.
		ks = nil
	case err != nil:
		return nil, err
	case ks.ExtPubKey != wallet.ExtPubKey:
		return nil, errors.Wrap(errors.ErrUnauthorized, "keystore does not belong to the wallet")
	}

	db, err := store.OpenLevelDB(cfg.PendingDB())
	if err != nil {
		return nil, err
	}
	safe, err := multisig.NewSafe(multisig.Config{
		Wallet:    wallet,
		Network:   cfg.Network,
		Loader:    utxo.NewLoader(wallet, ks),
		DB:        db,
		Auth:      cfg.Auth(),
		Navigator: printNavigator{w: os.Stderr},
		Policy:    policy,
		Logger:    logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &session{
		cfg:    cfg,
		ctx:    multisafe.WithLogger(context.Background(), logger),
		wallet: wallet,
		db:     db,
		safe:   safe,
		coord:  multisig.NewCoordinator(safe),
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

func (s *session) sub() multisafe.SubWallet {
	return s.safe.SubWallet()
}

// withSession loads the configuration and runs fn with an open session.
func withSession(fn func(*session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// readPayload returns the hex payload given on input.
func readPayload(input io.Reader) (string, error) {
	raw, err := io.ReadAll(input)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	payload := strings.TrimSpace(string(raw))
	if payload == "" {
		return "", errors.Wrap(errors.ErrEmpty, "no input data")
	}
	return payload, nil
}
