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

package codecs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fredenrg/0rora/test/partitiontest"
)

type testValue struct {
	Bool   bool
	String string
	Int    int
	List   []string
}

func TestIsDefaultValue(t *testing.T) {
	partitiontest.PartitionTest(t)

	a := require.New(t)

	v := testValue{
		Bool:   true,
		String: "default",
		Int:    1,
		List:   []string{"a"},
	}
	def := testValue{
		Bool:   true,
		String: "default",
		Int:    2,
		List:   []string{"a"},
	}

	objectValues := createValueMap(v)
	defaultValues := createValueMap(def)

	a.True(isDefaultValue("Bool", objectValues, defaultValues))
	a.True(isDefaultValue("String", objectValues, defaultValues))
	a.True(isDefaultValue("List", objectValues, defaultValues))
	a.False(isDefaultValue("Int", objectValues, defaultValues))
	a.True(isDefaultValue("Missing", objectValues, defaultValues))
}

func TestSaveNonDefaultValuesToFile(t *testing.T) {
	partitiontest.PartitionTest(t)

	a := require.New(t)
	path := filepath.Join(t.TempDir(), "out.json")

	def := testValue{Bool: true, String: "default", Int: 2}
	v := def
	v.Int = 5
	v.List = []string{"x", "y"}

	a.NoError(SaveNonDefaultValuesToFile(path, v, def, []string{"String"}, true))

	raw, err := os.ReadFile(path)
	a.NoError(err)
	var m map[string]interface{}
	a.NoError(json.Unmarshal(raw, &m))
	a.Len(m, 3)
	a.Equal(float64(5), m["Int"])
	a.Equal("default", m["String"])
	a.Equal([]interface{}{"x", "y"}, m["List"])

	loaded := def
	a.NoError(LoadObjectFromFile(path, &loaded))
	a.Equal(v, loaded)
}
