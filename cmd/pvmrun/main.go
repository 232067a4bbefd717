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

// Command pvmrun loads a program image from disk, invokes it against the
// PVM execution core, and reports the termination outcome.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"gopkg.in/urfave/cli.v1"
)

const clientIdentifier = "pvmrun"

var app = cli.NewApp()

func init() {
	app.Name = clientIdentifier
	app.Usage = "run a PVM program image and report its termination"
	app.Version = "0.1.0"
	app.Flags = append(runFlags, configFileFlag)
	app.Commands = []cli.Command{
		runCommand,
		dumpConfigCommand,
	}
	app.Action = runProgram
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: ")
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(1)
}
