// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/netperf/compare"
)

type config struct {
	addr      string
	dbDriver  string
	dbDSN     string
	staging   string
	gcsBucket string
	maxFiles  int
	maxSize   int64
	maxConns  int
	logLevel  slog.Level
	logJSON   bool
	retention time.Duration
}

// parseConfig defines the server flags on fs and parses args.
// A flag not given in args takes its value from the environment
// variable NETPERF_<NAME>, if set.
func parseConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (*config, error) {
	cfg := new(config)
	fs.StringVar(&cfg.addr, "addr", ":8080", "serve HTTP on `address`")
	fs.StringVar(&cfg.dbDriver, "db-driver", "sqlite3", "database `driver`: sqlite3, mysql, or postgres")
	fs.StringVar(&cfg.dbDSN, "db", ":memory:", "database data source `name`")
	fs.StringVar(&cfg.staging, "staging", "", "stage uploaded files in `dir` (default a temporary directory)")
	fs.StringVar(&cfg.gcsBucket, "gcs-bucket", "", "stage uploaded files in Google Cloud Storage `bucket`")
	fs.IntVar(&cfg.maxFiles, "max-files", compare.MaxSources, "accept at most `n` files per upload")
	fs.Int64Var(&cfg.maxSize, "max-file-size", 32<<20, "accept files of at most `bytes`")
	fs.IntVar(&cfg.maxConns, "max-conns", 0, "serve at most `n` simultaneous connections (0 for no limit)")
	fs.TextVar(&cfg.logLevel, "log-level", slog.LevelInfo, "minimum log `level`")
	fs.BoolVar(&cfg.logJSON, "log-json", false, "write logs as JSON")
	fs.DurationVar(&cfg.retention, "retention", 24*time.Hour, "delete stored comparisons after `duration` (0 keeps them)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if set[f.Name] || err != nil {
			return
		}
		key := envName(f.Name)
		if v := getenv(key); v != "" {
			if serr := f.Value.Set(v); serr != nil {
				err = fmt.Errorf("invalid value %q for %s: %v", v, key, serr)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if cfg.maxFiles < 1 || cfg.maxFiles > compare.MaxSources {
		return nil, fmt.Errorf("-max-files must be between 1 and %d", compare.MaxSources)
	}
	switch cfg.dbDriver {
	case "sqlite3", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.dbDriver)
	}
	return cfg, nil
}

// envName returns the environment variable for the flag name.
func envName(name string) string {
	return "NETPERF_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
