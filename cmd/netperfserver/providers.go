// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/wire"
	_ "github.com/lib/pq"
	"golang.org/x/net/netutil"

	"golang.org/x/netperf/server"
	"golang.org/x/netperf/storage/db"
	_ "golang.org/x/netperf/storage/db/sqlite3"
	"golang.org/x/netperf/storage/fs"
	"golang.org/x/netperf/storage/fs/gcs"
)

// service is a configured server ready to run.
type service struct {
	cfg      *config
	app      *server.App
	logger   *slog.Logger
	listener net.Listener
	http     *http.Server
}

var providerSet = wire.NewSet(
	provideLogger,
	provideDB,
	provideFS,
	server.NewMetrics,
	provideApp,
	provideListener,
	newService,
)

func provideLogger(cfg *config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.logLevel}
	var h slog.Handler
	if cfg.logJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func provideDB(cfg *config, logger *slog.Logger) (*db.DB, func(), error) {
	d, err := db.OpenSQL(cfg.dbDriver, cfg.dbDSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("opened database", "driver", cfg.dbDriver)
	return d, func() { d.Close() }, nil
}

func provideFS(ctx context.Context, cfg *config, logger *slog.Logger) (fs.FS, func(), error) {
	if cfg.gcsBucket != "" {
		gfs, err := gcs.NewFS(ctx, cfg.gcsBucket)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("staging uploads in Cloud Storage", "bucket", cfg.gcsBucket)
		return gfs, func() {}, nil
	}
	dfs, err := fs.NewDirFS(cfg.staging)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("staging uploads on disk", "dir", dfs.Dir())
	cleanup := func() {}
	if cfg.staging == "" {
		cleanup = func() { os.RemoveAll(dfs.Dir()) }
	}
	return dfs, cleanup, nil
}

func provideApp(cfg *config, d *db.DB, f fs.FS, logger *slog.Logger, m *server.Metrics) *server.App {
	return &server.App{
		DB:          d,
		FS:          f,
		Logger:      logger,
		Metrics:     m,
		MaxFiles:    cfg.maxFiles,
		MaxFileSize: cfg.maxSize,
	}
}

func provideListener(cfg *config) (net.Listener, func(), error) {
	l, err := net.Listen("tcp", cfg.addr)
	if err != nil {
		return nil, nil, err
	}
	if cfg.maxConns > 0 {
		l = netutil.LimitListener(l, cfg.maxConns)
	}
	return l, func() { l.Close() }, nil
}

func newService(cfg *config, app *server.App, logger *slog.Logger, l net.Listener) *service {
	return &service{
		cfg:      cfg,
		app:      app,
		logger:   logger,
		listener: l,
		http: &http.Server{
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
	}
}
