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
	"os"

	"github.com/spf13/cobra"
)

const dataDirEnvVar = "DISPATCHD_DATA"

var dataDir string

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "datadir", "d", "", "Data directory for the dispatcher (defaults to $"+dataDirEnvVar+")")
}

var rootCmd = &cobra.Command{
	Use:   "dispatchd",
	Short: "Batches scheduled payments into ledger transactions",
	Long:  "dispatchd reads due payments from its queue, packs them into transactions sourced from a pool of channel accounts and submits them to the ledger gateway.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

func resolveDataDir() string {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv(dataDirEnvVar)
	}
	return dir
}

func ensureDataDir() string {
	dir := resolveDataDir()
	if dir == "" {
		reportErrorln(errorNoDataDirectory)
	}
	return dir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportErrorln(err)
	}
}
