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
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredenrg/0rora/config"
)

var (
	parameterArg string
	valueArg     string
)

func init() {
	configGetCmd.Flags().StringVarP(&parameterArg, "parameter", "p", "", "Parameter to query")
	configGetCmd.MarkFlagRequired("parameter")

	configSetCmd.Flags().StringVarP(&parameterArg, "parameter", "p", "", "Parameter to set")
	configSetCmd.Flags().StringVarP(&valueArg, "value", "v", "", "Value to set the parameter to")
	configSetCmd.MarkFlagRequired("parameter")
	configSetCmd.MarkFlagRequired("value")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit " + config.ConfigFilename,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration with the current defaults",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		dir := ensureDataDir()
		if err := os.MkdirAll(dir, 0700); err != nil {
			reportErrorf(errorDataDirInvalid, dir, err)
		}
		if err := config.GetDefaultLocal().SaveToDisk(dir); err != nil {
			reportErrorf("Error saving config: %v", err)
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Retrieve the current value for the specified parameter",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg := loadConfig(ensureDataDir())
		val, err := getObjectProperty(cfg, parameterArg)
		if err != nil {
			reportErrorf("Error retrieving property '%s' - %s", parameterArg, err)
		}
		fmt.Printf("%v\n", val)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the specified parameter and save the configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		dir := ensureDataDir()
		cfg := loadConfig(dir)
		if err := setObjectProperty(&cfg, parameterArg, valueArg); err != nil {
			reportErrorf("Error setting property '%s' - %s", parameterArg, err)
		}
		if err := cfg.Check(); err != nil {
			reportErrorf("Invalid configuration: %v", err)
		}
		if err := cfg.SaveToDisk(dir); err != nil {
			reportErrorf("Error saving config: %v", err)
		}
	},
}

func loadConfig(dir string) config.Local {
	cfg, err := config.LoadConfigFromDisk(dir)
	if err != nil && !os.IsNotExist(err) {
		reportErrorf(errorLoadingConfig, dir, err)
	}
	return cfg
}

func getObjectProperty(object interface{}, property string) (ret interface{}, err error) {
	v := reflect.ValueOf(object)
	val := reflect.Indirect(v)
	f := val.FieldByName(property)

	if !f.IsValid() {
		return object, fmt.Errorf("unknown property named '%s'", property)
	}

	return f.Interface(), nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setObjectProperty(object interface{}, property string, value string) error {
	v := reflect.ValueOf(object)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("cannot set property on non-pointer %T", object)
	}
	f := v.Elem().FieldByName(property)
	if !f.IsValid() || !f.CanSet() {
		return fmt.Errorf("unknown property named '%s'", property)
	}

	if f.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		f.SetInt(int64(d))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(i)
	case reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(u)
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", f.Type())
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		f.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported property type %s", f.Type())
	}
	return nil
}
