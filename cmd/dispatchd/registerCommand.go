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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredenrg/0rora/config"
	"github.com/fredenrg/0rora/daemon/dispatchd"
	"github.com/fredenrg/0rora/data/basics"
)

var persistAccount bool

func init() {
	registerCmd.Flags().BoolVarP(&persistAccount, "persist", "p", false, "Also add the account to ChannelAccounts in "+config.ConfigFilename)

	rootCmd.AddCommand(registerCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register [address]",
	Short: "Add a channel account to a running dispatcher",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := ensureDataDir()
		addr, err := basics.ParseAddress(args[0])
		if err != nil {
			reportErrorf("Invalid account address %s: %v", args[0], err)
		}

		if persistAccount {
			cfg := loadConfig(dir)
			if addChannelAccount(&cfg, addr) {
				if err := cfg.SaveToDisk(dir); err != nil {
					reportErrorf("Error saving config: %v", err)
				}
				reportInfof("Added %s to ChannelAccounts", addr)
			}
		}

		opsAddr, err := resolveOpsAddress(dir)
		if err != nil {
			if persistAccount {
				reportWarnf("dispatcher does not appear to be running; %s will be registered on next start", addr)
				return
			}
			reportErrorf("Unable to find the dispatcher's ops endpoint: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := postRegistration(ctx, http.DefaultClient, opsAddr, addr); err != nil {
			reportErrorf("Registration failed: %v", err)
		}
		reportInfof("Registration of %s requested", addr)
	},
}

// addChannelAccount appends addr to cfg.ChannelAccounts unless already present
func addChannelAccount(cfg *config.Local, addr basics.Address) bool {
	for _, existing := range cfg.ChannelAccounts {
		if existing == addr.String() {
			return false
		}
	}
	cfg.ChannelAccounts = append(cfg.ChannelAccounts, addr.String())
	return true
}

func resolveOpsAddress(dir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, dispatchd.NetFilename))
	if err != nil {
		return "", err
	}
	addr := strings.TrimSpace(string(raw))
	if addr == "" {
		return "", fmt.Errorf("%s is empty", dispatchd.NetFilename)
	}
	return addr, nil
}

func postRegistration(ctx context.Context, client *http.Client, opsAddr string, addr basics.Address) error {
	target := fmt.Sprintf("http://%s/v1/accounts/%s", opsAddr, addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("ops endpoint returned %s", resp.Status)
	}
	return nil
}
