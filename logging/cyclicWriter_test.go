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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/test/partitiontest"
)

func TestCyclicWrite(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	live := filepath.Join(dir, "dispatcher.log")
	archive := filepath.Join(dir, "dispatcher.archive.log")

	const limit = 1024
	w, err := MakeCyclicFileWriter(live, archive, limit)
	require.NoError(t, err)
	defer w.Close()

	first := bytes.Repeat([]byte{'A'}, limit)
	n, err := w.Write(first)
	require.NoError(t, err)
	require.Equal(t, limit, n)

	n, err = w.Write([]byte{'B'})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	liveData, err := os.ReadFile(live)
	require.NoError(t, err)
	require.Equal(t, []byte{'B'}, liveData)

	archived, err := os.ReadFile(archive)
	require.NoError(t, err)
	require.Equal(t, first, archived)
}

func TestCyclicWriteTooLarge(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	w, err := MakeCyclicFileWriter(filepath.Join(dir, "l"), filepath.Join(dir, "a"), 4)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("12345"))
	require.Error(t, err)
}

func TestCyclicWriteResumesSize(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	live := filepath.Join(dir, "l")
	archive := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(live, []byte("xxx"), 0666))

	w, err := MakeCyclicFileWriter(live, archive, 4)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("yy"))
	require.NoError(t, err)

	archived, err := os.ReadFile(archive)
	require.NoError(t, err)
	require.Equal(t, "xxx", string(archived))
}
