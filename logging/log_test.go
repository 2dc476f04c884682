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

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/test/partitiontest"
)

func TestNewLoggerOutput(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)

	nl.Info("dispatcher ready")
	a.Contains(buf.String(), "dispatcher ready")
	a.Contains(buf.String(), "log_test.go")
}

func TestSetGetLevel(t *testing.T) {
	partitiontest.PartitionTest(t)

	nl := NewLogger()
	require.Equal(t, Info, nl.GetLevel())
	nl.SetLevel(Error)
	require.Equal(t, Error, nl.GetLevel())
	require.True(t, nl.IsLevelEnabled(Error))
	require.False(t, nl.IsLevelEnabled(Warn))
}

func TestLevelFiltering(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	nl.SetLevel(Warn)

	nl.Info("hidden")
	nl.Warn("shown")
	a.NotContains(buf.String(), "hidden")
	a.Contains(buf.String(), "shown")
}

func TestWithFieldsJSON(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	nl.SetJSONFormatter()

	nl.WithFields(Fields{"batch": "b-1", "payments": 3}).With("account", "GA").Info("submitted")

	var entry map[string]interface{}
	a.NoError(json.Unmarshal(buf.Bytes(), &entry))
	a.Equal("b-1", entry["batch"])
	a.Equal(float64(3), entry["payments"])
	a.Equal("GA", entry["account"])
	a.Equal("submitted", entry["msg"])
}

func TestErrorIncludesStack(t *testing.T) {
	partitiontest.PartitionTest(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	nl.Errorf("store unavailable: %v", "timeout")

	out := buf.String()
	require.Contains(t, out, stackPrefix)
	require.Contains(t, out, "store unavailable: timeout")
	require.Equal(t, 2, strings.Count(out, "level=error"))
}
