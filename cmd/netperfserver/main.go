// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Netperfserver serves the iperf3 result comparison service.
//
// Usage:
//
//	netperfserver [flags]
//
// Every flag may also be set through an environment variable named
// NETPERF_ followed by the flag name in upper case with dashes
// replaced by underscores, for example NETPERF_DB_DRIVER. Flags given
// on the command line take precedence.
//
// By default uploads are stored in an in-memory SQLite database and
// staged in a temporary directory, so nothing outlives the process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log.SetPrefix("netperfserver: ")
	log.SetFlags(0)

	cfg, err := parseConfig(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := initializeService(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if err := svc.run(ctx); err != nil {
		svc.logger.Error("server terminated", "err", err)
		cleanup()
		os.Exit(1)
	}
}

// run serves until ctx is done, then shuts down gracefully.
func (s *service) run(ctx context.Context) error {
	if s.cfg.retention > 0 {
		go s.app.Expire(ctx, s.cfg.retention, expireInterval(s.cfg.retention))
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.listener.Addr().String())
		errc <- s.http.Serve(s.listener)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// expireInterval returns how often to look for expired uploads.
func expireInterval(retention time.Duration) time.Duration {
	return max(retention/4, time.Minute)
}
