package main

import (
	"os"
	"path/filepath"

	"github.com/iov-one/multisafe/errors"
	"github.com/kelseyhightower/envconfig"
	"github.com/tendermint/tendermint/libs/log"
)

// Config is read from MSAFE_ prefixed environment variables.
type Config struct {
	// Home holds the files of this device. Defaults to ~/.msafe
	Home     string `envconfig:"HOME"`
	Keystore string `envconfig:"KEYSTORE"`
	Wallet   string `envconfig:"WALLET"`
	Network  string `envconfig:"NETWORK" default:"tmsig"`
	// PasswordFile, when set, is read instead of prompting for the wallet
	// password.
	PasswordFile string `envconfig:"PASSWORD_FILE"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	Policy       string `envconfig:"POLICY" default:"first"`
	ScryptN      int    `envconfig:"SCRYPT_N" default:"262144"`
}

func loadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("msafe", &c); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	if c.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, err.Error())
		}
		c.Home = filepath.Join(home, ".msafe")
	}
	if c.Keystore == "" {
		c.Keystore = filepath.Join(c.Home, "keystore.json")
	}
	if c.Wallet == "" {
		c.Wallet = filepath.Join(c.Home, "wallet.json")
	}
	return &c, nil
}

// PendingDB is the directory of the pending transactions database.
func (c *Config) PendingDB() string {
	return filepath.Join(c.Home, "pending")
}

func (c *Config) Logger() (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	opt, err := log.AllowLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(logger, opt).With("module", "msafe"), nil
}
