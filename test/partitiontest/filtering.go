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

// Package partitiontest splits the test suite across CI workers.
package partitiontest

import (
	"hash/fnv"
	"os"
	"runtime"
	"strconv"
	"testing"
)

// PartitionTest skips t unless it hashes into the partition selected by
// PARTITION_ID out of PARTITION_TOTAL. With either variable unset every test runs.
func PartitionTest(t testing.TB) {
	total, ok := envInt("PARTITION_TOTAL")
	if !ok || total <= 0 {
		return
	}
	id, ok := envInt("PARTITION_ID")
	if !ok {
		return
	}

	_, file, _, _ := runtime.Caller(1)
	h := fnv.New64a()
	h.Write([]byte(file + ":" + t.Name()))
	if part := h.Sum64() % uint64(total); part != uint64(id) {
		t.Skipf("skipping due to partitioning, assigned to partition %d", part)
	}
}

func envInt(name string) (int, bool) {
	v, found := os.LookupEnv(name)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
