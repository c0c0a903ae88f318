// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the dataserve server.
// dataserve publishes SQLite database files from a configuration directory
// as a browsable HTML and JSON interface, honoring the directory's
// conventions for metadata, settings, templates, plugins and static assets.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/dataserve/internal/buildinfo"
	"github.com/traylinx/dataserve/internal/cmd"
	"github.com/traylinx/dataserve/internal/constant"
	"github.com/traylinx/dataserve/internal/logging"
	"github.com/traylinx/dataserve/internal/settings"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// settingList collects repeated -setting name=value flags.
type settingList struct {
	values map[string]any
}

func (s *settingList) String() string {
	if len(s.values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, s.values[k]))
	}
	return strings.Join(parts, ",")
}

func (s *settingList) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}
	if s.values == nil {
		s.values = map[string]any{}
	}
	s.values[name] = settings.Coerce(value)
	return nil
}

// main dispatches to the requested command. Without a command the binary
// serves, so `dataserve data/` and `dataserve serve data/` are equivalent.
func main() {
	// Environment loads first so both flag parsing and the env fallbacks
	// see .env values.
	if wd, err := os.Getwd(); err == nil {
		loadEnvFile(wd)
	}

	// Hand-parsed commands must see their raw arguments, so dispatch
	// happens before flag parsing.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "inspect":
			handleInspectCommand(os.Args[2:])
			return
		case "version":
			printVersion()
			return
		case "serve":
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	var (
		host         string
		port         int
		dirFlag      string
		metadataPath string
		logFile      string
		logLevel     string
		openBrowser  bool
		showVersion  bool
		settingFlags settingList
	)

	flag.StringVar(&host, "host", constant.DefaultHost, "Interface to listen on")
	flag.IntVar(&port, "port", constant.DefaultPort, "Port to listen on")
	flag.StringVar(&dirFlag, "dir", "", "Configuration directory to serve")
	flag.StringVar(&metadataPath, "metadata", "", "Path to a JSON or YAML metadata file")
	flag.Var(&settingFlags, "setting", "Override a setting as name=value (repeatable)")
	flag.BoolVar(&openBrowser, "open", false, "Open the served URL in a browser")
	flag.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Print version information and exit")

	flag.CommandLine.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "Usage: %s [command] [options] [DIRECTORY | FILE.db ...]\n\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(out, "Commands:")
		_, _ = fmt.Fprintln(out, "  serve      Serve a configuration directory over HTTP (default)")
		_, _ = fmt.Fprintln(out, "  inspect    Generate an inspection document for database files")
		_, _ = fmt.Fprintln(out, "  version    Print version information")
		_, _ = fmt.Fprintln(out, "")
		_, _ = fmt.Fprintln(out, "Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		printVersion()
		return
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	lookupEnv := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if value, ok := os.LookupEnv(key); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					return trimmed, true
				}
			}
		}
		return "", false
	}
	if !setFlags["host"] {
		if value, ok := lookupEnv("DATASERVE_HOST"); ok {
			host = value
		}
	}
	if !setFlags["port"] {
		if value, ok := lookupEnv("DATASERVE_PORT"); ok {
			parsed, errPort := strconv.Atoi(value)
			if errPort != nil {
				log.Warnf("ignoring DATASERVE_PORT %q: not a number", value)
			} else {
				port = parsed
			}
		}
	}
	if !setFlags["log-level"] {
		if value, ok := lookupEnv("DATASERVE_LOG_LEVEL"); ok {
			logLevel = value
		}
	}

	if errLog := logging.ConfigureLogOutput(logFile); errLog != nil {
		log.Errorf("failed to configure log output: %v", errLog)
		os.Exit(1)
	}
	logging.SetLevel(logLevel)

	log.Infof("dataserve version %s, commit %s, built at %s", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	dir, explicit, err := classifyArgs(flag.Args())
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	if dirFlag != "" {
		if dir != "" {
			log.Errorf("only one directory may be served, got %s and %s", dirFlag, dir)
			os.Exit(1)
		}
		dir = dirFlag
	}

	cmd.RunServe(&cmd.ServeOptions{
		Host:              host,
		Port:              port,
		Dir:               dir,
		ExplicitDatabases: explicit,
		MetadataPath:      metadataPath,
		SettingOverrides:  settingFlags.values,
		OpenBrowser:       openBrowser,
	})
}

// loadEnvFile loads environment variables from the .env file in dir when
// one exists. A missing file is not an error.
func loadEnvFile(dir string) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("failed to load .env file")
		}
	}
}

// classifyArgs splits positional arguments into the configuration directory
// and explicit database files. At most one directory may be served.
func classifyArgs(args []string) (string, []string, error) {
	var dir string
	var explicit []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			if dir != "" {
				return "", nil, fmt.Errorf("only one directory may be served, got %s and %s", dir, arg)
			}
			dir = arg
			continue
		}
		explicit = append(explicit, arg)
	}
	return dir, explicit, nil
}

// handleInspectCommand processes inspect subcommand arguments.
func handleInspectCommand(args []string) {
	opts, err := cmd.ParseInspectCommand(args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		cmd.PrintInspectUsage()
		os.Exit(1)
	}
	cmd.RunInspect(opts)
}

func printVersion() {
	fmt.Printf("dataserve %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
}
