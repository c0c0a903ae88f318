// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/dataserve/internal/configdir"
	"github.com/traylinx/dataserve/internal/database"
)

// InspectOptions holds the parsed arguments of the inspect command.
type InspectOptions struct {
	Output    string
	Databases []string
}

// ParseInspectCommand parses inspect command arguments. Flags may appear
// anywhere; every other argument is a database file.
func ParseInspectCommand(args []string) (*InspectOptions, error) {
	opts := &InspectOptions{}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-output", "--output":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			opts.Output = args[i+1]
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return nil, fmt.Errorf("unknown option: %s", arg)
			}
			opts.Databases = append(opts.Databases, arg)
		}
	}

	if len(opts.Databases) == 0 {
		return nil, fmt.Errorf("no database files specified")
	}
	return opts, nil
}

// RunInspect hashes and counts every given database and emits the resulting
// inspection document, either to stdout or atomically to -output.
func RunInspect(opts *InspectOptions) {
	registry, err := configdir.BuildRegistry(opts.Databases, nil, nil)
	if err != nil {
		log.Errorf("failed to open databases: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := database.BuildInspectReport(ctx, registry, 0)
	if err != nil {
		log.Errorf("failed to inspect databases: %v", err)
		os.Exit(1)
	}

	if opts.Output == "" {
		data, err := report.JSON()
		if err != nil {
			log.Errorf("failed to encode inspect report: %v", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if err := report.WriteFile(opts.Output); err != nil {
		log.Errorf("failed to write %s: %v", opts.Output, err)
		os.Exit(1)
	}
	log.Infof("inspection data for %d databases written to %s", registry.Len(), opts.Output)
}

// PrintInspectUsage writes the inspect command help text.
func PrintInspectUsage() {
	fmt.Println("Usage: dataserve inspect [options] FILE.db [FILE.db ...]")
	fmt.Println()
	fmt.Println("Generates an inspection document with content hashes, file sizes and")
	fmt.Println("row counts. Serving the same files alongside the document later marks")
	fmt.Println("them immutable and skips live counting.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -output <file>    Write the document to <file> instead of stdout")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  dataserve inspect fixtures.db")
	fmt.Println("  dataserve inspect -output inspect-data.json fixtures.db extra.db")
}
