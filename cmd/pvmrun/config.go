// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/pvm/internal/obslog"
)

var configFileFlag = cli.StringFlag{
	Name:  "config",
	Usage: "TOML configuration file",
}

// tomlSettings mirrors the node's own convention of keeping TOML keys
// identical to the Go struct field names, rather than lower-casing them.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// runConfig is pvmrun's full configuration, loadable from a TOML file and
// overridable by flags.
type runConfig struct {
	Image      string
	GasLimit   int64
	MaxSteps   uint64
	ArgsHex    string
	Host       string // "none" or "ref"
	Authorized bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		GasLimit:   10_000_000,
		Host:       "ref",
		Authorized: true,
	}
}

func loadConfig(file string, cfg *runConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeRunConfig loads defaults, then a config file if named, then flags,
// in that order of increasing precedence.
func makeRunConfig(ctx *cli.Context) runConfig {
	cfg := defaultRunConfig()

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			fatal(err)
		}
	}

	// run and dumpconfig declare the same flags as subcommand-local, but
	// pvmrun's bare (no-subcommand) action registers them globally on
	// app itself, so every lookup checks both scopes.
	str := func(name string) (string, bool) {
		if ctx.IsSet(name) {
			return ctx.String(name), true
		}
		if ctx.GlobalIsSet(name) {
			return ctx.GlobalString(name), true
		}
		return "", false
	}
	i64 := func(name string) (int64, bool) {
		if ctx.IsSet(name) {
			return ctx.Int64(name), true
		}
		if ctx.GlobalIsSet(name) {
			return ctx.GlobalInt64(name), true
		}
		return 0, false
	}

	if v, ok := str(imageFlag.Name); ok {
		cfg.Image = v
	}
	if ctx.NArg() > 0 {
		cfg.Image = ctx.Args().Get(0)
	}
	if v, ok := i64(gasLimitFlag.Name); ok {
		cfg.GasLimit = v
	}
	if v, ok := i64(maxStepsFlag.Name); ok {
		cfg.MaxSteps = uint64(v)
	}
	if v, ok := str(argsHexFlag.Name); ok {
		cfg.ArgsHex = v
	}
	if v, ok := str(hostFlag.Name); ok {
		cfg.Host = v
	}
	if ctx.IsSet(unauthorizedFlag.Name) || ctx.GlobalIsSet(unauthorizedFlag.Name) {
		cfg.Authorized = false
	}

	if cfg.Image == "" {
		fatal(fmt.Errorf("no program image given (pass a path or --%s)", imageFlag.Name))
	}
	return cfg
}

var dumpConfigCommand = cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Show the configuration pvmrun would run with",
	ArgsUsage:   "<image>",
	Flags:       runFlags,
	Description: "The dumpconfig command prints the resolved TOML configuration and exits.",
}

func dumpConfig(ctx *cli.Context) error {
	cfg := makeRunConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	os.Stdout.Write(out)
	return nil
}

func init() {
	// pvmrun has no persistent daemon state, so the only ambient logger
	// configuration worth exposing is verbosity; everything else about
	// obslog's defaults (stderr, Info level) is fine for a one-shot CLI.
	if os.Getenv("PVMRUN_DEBUG") != "" {
		obslog.SetLevel(-4) // slog.LevelDebug
	}
}
