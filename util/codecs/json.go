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
	"io"
	"os"
	"reflect"
)

// NewFormattedJSONEncoder returns a json encoder configured for
// pretty-printed output (human-readable)
func NewFormattedJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	return enc
}

// LoadObjectFromFile implements the common pattern for loading an instance
// of an object from a json file.
func LoadObjectFromFile(filename string, object interface{}) (err error) {
	f, err := os.Open(filename)
	if err != nil {
		return
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	err = dec.Decode(object)
	return
}

// SaveObjectToFile implements the common pattern for saving an object to a file as json
func SaveObjectToFile(filename string, object interface{}, prettyFormat bool) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	var enc *json.Encoder
	if prettyFormat {
		enc = NewFormattedJSONEncoder(f)
	} else {
		enc = json.NewEncoder(f)
	}
	return enc.Encode(object)
}

// SaveNonDefaultValuesToFile saves a struct to a file as json, but only fields that are not
// currently set to the default value.
// Fields named in alwaysInclude are written regardless.
func SaveNonDefaultValuesToFile(filename string, object, defaultObject interface{}, alwaysInclude []string, prettyFormat bool) error {
	objectValues := createValueMap(object)
	defaultValues := createValueMap(defaultObject)

	out := make(map[string]interface{}, len(objectValues))
	for name, value := range objectValues {
		if !inStringArray(name, alwaysInclude) && isDefaultValue(name, objectValues, defaultValues) {
			continue
		}
		out[name] = value
	}
	return SaveObjectToFile(filename, out, prettyFormat)
}

func inStringArray(item string, set []string) bool {
	for _, s := range set {
		if item == s {
			return true
		}
	}
	return false
}

func createValueMap(object interface{}) map[string]interface{} {
	valueMap := make(map[string]interface{})

	val := reflect.Indirect(reflect.ValueOf(object))
	for i := 0; i < val.NumField(); i++ {
		field := val.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		valueMap[field.Name] = val.Field(i).Interface()
	}
	return valueMap
}

func isDefaultValue(name string, values, defaults map[string]interface{}) bool {
	val, hasVal := values[name]
	def, hasDef := defaults[name]
	if hasVal != hasDef {
		return false
	}

	return reflect.DeepEqual(val, def)
}
