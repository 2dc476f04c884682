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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/config"
	"github.com/fredenrg/0rora/test/partitiontest"
)

func TestGetObjectProperty(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	val, err := getObjectProperty(cfg, "MaxBatchSize")
	require.NoError(t, err)
	require.Equal(t, cfg.MaxBatchSize, val)

	_, err = getObjectProperty(cfg, "NoSuchField")
	require.Error(t, err)
}

func TestSetObjectProperty(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	require.NoError(t, setObjectProperty(&cfg, "MaxBatchSize", "25"))
	require.Equal(t, 25, cfg.MaxBatchSize)

	require.NoError(t, setObjectProperty(&cfg, "LedgerRequestTimeout", "1m30s"))
	require.Equal(t, 90*time.Second, cfg.LedgerRequestTimeout)

	require.NoError(t, setObjectProperty(&cfg, "LedgerEndpoint", "https://gateway.example:9000"))
	require.Equal(t, "https://gateway.example:9000", cfg.LedgerEndpoint)

	require.NoError(t, setObjectProperty(&cfg, "BaseLoggerDebugLevel", "5"))
	require.Equal(t, uint32(5), cfg.BaseLoggerDebugLevel)

	require.NoError(t, setObjectProperty(&cfg, "ChannelAccounts", "GA, GB,,"))
	require.Equal(t, []string{"GA", "GB"}, cfg.ChannelAccounts)

	require.Error(t, setObjectProperty(&cfg, "MaxBatchSize", "many"))
	require.Error(t, setObjectProperty(&cfg, "BaseLoggerDebugLevel", "-1"))
	require.Error(t, setObjectProperty(&cfg, "Unknown", "1"))
	require.Error(t, setObjectProperty(cfg, "MaxBatchSize", "1"))
}
