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
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fatih/color"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/pvm/hostcall"
	"github.com/probechain/pvm/invoke"
	"github.com/probechain/pvm/vm"
)

var (
	imageFlag = cli.StringFlag{
		Name:  "image",
		Usage: "path to a program image (alternative to the positional argument)",
	}
	gasLimitFlag = cli.Int64Flag{
		Name:  "gas",
		Usage: "gas limit for the invocation",
		Value: 10_000_000,
	}
	maxStepsFlag = cli.Int64Flag{
		Name:  "max-steps",
		Usage: "defensive step-count cap (0 derives it from --gas)",
	}
	argsHexFlag = cli.StringFlag{
		Name:  "args",
		Usage: "hex-encoded bytes appended to the program's RW data before execution",
	}
	hostFlag = cli.StringFlag{
		Name:  "host",
		Usage: "host-call bridge to use for ECALLI: \"ref\" or \"none\"",
		Value: "ref",
	}
	unauthorizedFlag = cli.BoolFlag{
		Name:  "unauthorized",
		Usage: "make the reference host's is-authorized call report rejection",
	}
)

var runFlags = []cli.Flag{
	imageFlag,
	gasLimitFlag,
	maxStepsFlag,
	argsHexFlag,
	hostFlag,
	unauthorizedFlag,
}

var runCommand = cli.Command{
	Action:      runProgram,
	Name:        "run",
	Usage:       "run <image>",
	ArgsUsage:   "<image>",
	Flags:       runFlags,
	Description: "The run command parses a program image, executes it, and reports how it terminated.",
}

func runProgram(ctx *cli.Context) error {
	cfg := makeRunConfig(ctx)

	image, err := os.ReadFile(cfg.Image)
	if err != nil {
		return fmt.Errorf("reading program image: %w", err)
	}

	args, err := hex.DecodeString(cfg.ArgsHex)
	if err != nil {
		return fmt.Errorf("decoding --%s: %w", argsHexFlag.Name, err)
	}

	var host vm.HostFunc
	var rm *hostcall.RefMutator
	switch cfg.Host {
	case "none":
		host = nil
	case "ref":
		im := hostcall.NewImplications(1)
		rm, err = hostcall.NewRefMutator(im)
		if err != nil {
			return fmt.Errorf("starting reference host: %w", err)
		}
		defer rm.Close()
		rm.SetAuthorized(cfg.Authorized)
		host = rm.Bridge()
	default:
		return fmt.Errorf("unknown --%s value %q (want \"ref\" or \"none\")", hostFlag.Name, cfg.Host)
	}

	res, err := invoke.Invoke(image, invoke.Options{
		GasLimit: cfg.GasLimit,
		MaxSteps: cfg.MaxSteps,
		Args:     args,
		Host:     host,
	})
	if err != nil {
		return fmt.Errorf("invoking program: %w", err)
	}

	printResult(res)
	if res.Termination.Kind == vm.Panic || res.Termination.Kind == vm.Fault {
		os.Exit(1)
	}
	return nil
}

func printResult(res *invoke.Result) {
	status := color.New(color.FgGreen, color.Bold)
	switch res.Termination.Kind {
	case vm.Panic, vm.Fault:
		status = color.New(color.FgRed, color.Bold)
	case vm.OutOfGas:
		status = color.New(color.FgYellow, color.Bold)
	}
	status.Printf("%s\n", res.Termination.Kind)
	if res.Termination.Reason != "" {
		fmt.Printf("  reason:       %s\n", res.Termination.Reason)
	}
	fmt.Printf("  gas consumed: %d\n", res.GasConsumed)
	fmt.Printf("  fault addr:   0x%x\n", res.Termination.Addr)
	for i, v := range res.Regs {
		fmt.Printf("  r%-2d = 0x%016x\n", i, v)
	}
}
