// Copyright (C) 2019-2021 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/fredenrg/0rora/data/basics"
	"github.com/fredenrg/0rora/data/transactions"
	"github.com/fredenrg/0rora/util/codecs"
)

// ConfigFilename is the name of the config file in the data directory
const ConfigFilename = "dispatcher.json"

// LogFilename is the name of the live log file in the data directory
const LogFilename = "dispatcher.log"

// GetDefaultLocal returns a copy of the current defaultLocal config
func GetDefaultLocal() Local {
	cfg := defaultLocal
	cfg.ChannelAccounts = append([]string{}, defaultLocal.ChannelAccounts...)
	return cfg
}

// LoadConfigFromDisk returns a Local config structure based on merging the defaults
// with settings loaded from the config file from the custom dir. If the custom file
// cannot be loaded, the default config is returned (with the error from loading the
// custom file).
func LoadConfigFromDisk(custom string) (c Local, err error) {
	return loadConfigFromFile(filepath.Join(custom, ConfigFilename))
}

func loadConfigFromFile(configFile string) (c Local, err error) {
	c = GetDefaultLocal()
	c, err = mergeConfigFromFile(configFile, c)
	if err != nil {
		return
	}
	if c.Version > defaultLocal.Version {
		err = fmt.Errorf("config version %d is newer than supported version %d", c.Version, defaultLocal.Version)
	}
	return
}

func mergeConfigFromFile(configpath string, source Local) (Local, error) {
	err := codecs.LoadObjectFromFile(configpath, &source)
	return source, err
}

// SaveToDisk writes the non-default Local settings into a root/ConfigFilename file
func (cfg Local) SaveToDisk(root string) error {
	configpath := filepath.Join(root, ConfigFilename)
	filename := os.ExpandEnv(configpath)
	return cfg.SaveToFile(filename)
}

// SaveToFile saves the config to a specific filename, allowing overriding the default name
func (cfg Local) SaveToFile(filename string) error {
	var alwaysInclude []string
	alwaysInclude = append(alwaysInclude, "Version")
	return codecs.SaveNonDefaultValuesToFile(filename, cfg, defaultLocal, alwaysInclude, true)
}

// ResolvePaymentsDBFile returns the payments database path, resolved against dataDir
func (cfg Local) ResolvePaymentsDBFile(dataDir string) string {
	if filepath.IsAbs(cfg.PaymentsDBFile) {
		return cfg.PaymentsDBFile
	}
	return filepath.Join(dataDir, cfg.PaymentsDBFile)
}

// ChannelAccountAddresses parses ChannelAccounts
func (cfg Local) ChannelAccountAddresses() ([]basics.Address, error) {
	addrs := make([]basics.Address, 0, len(cfg.ChannelAccounts))
	seen := make(map[basics.Address]bool, len(cfg.ChannelAccounts))
	for _, s := range cfg.ChannelAccounts {
		addr, err := basics.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("ChannelAccounts: %w", err)
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

var errNoPaymentsDB = errors.New("PaymentsDBFile must be set")

// Check validates the settings that the dispatcher cannot run without.
func (cfg Local) Check() error {
	if cfg.PaymentsDBFile == "" {
		return errNoPaymentsDB
	}
	u, err := url.Parse(cfg.LedgerEndpoint)
	if err != nil {
		return fmt.Errorf("LedgerEndpoint %q: %w", cfg.LedgerEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("LedgerEndpoint %q must be an http or https URL", cfg.LedgerEndpoint)
	}
	if cfg.MaxBatchSize < 1 || cfg.MaxBatchSize > transactions.MaxOperations {
		return fmt.Errorf("MaxBatchSize %d must be between 1 and %d", cfg.MaxBatchSize, transactions.MaxOperations)
	}
	if cfg.LedgerRequestTimeout <= 0 || cfg.StoreQueryTimeout <= 0 {
		return errors.New("LedgerRequestTimeout and StoreQueryTimeout must be positive")
	}
	if cfg.RefreshDueTimeInterval <= 0 || cfg.AttemptProcessingInterval <= 0 {
		return errors.New("RefreshDueTimeInterval and AttemptProcessingInterval must be positive")
	}
	if cfg.AccountResyncInterval < 0 {
		return errors.New("AccountResyncInterval must not be negative")
	}
	if cfg.InboxSize < 1 {
		return fmt.Errorf("InboxSize %d must be positive", cfg.InboxSize)
	}
	if cfg.BaseLoggerDebugLevel > 5 {
		return fmt.Errorf("BaseLoggerDebugLevel %d out of range", cfg.BaseLoggerDebugLevel)
	}
	_, err = cfg.ChannelAccountAddresses()
	return err
}
