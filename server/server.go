// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server implements the measurement comparison service.
// Combine an App with a database and a staging filesystem to get an
// HTTP handler.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"golang.org/x/netperf/compare"
	"golang.org/x/netperf/storage/db"
	"golang.org/x/netperf/storage/fs"
)

// DefaultMaxFileSize is the largest record file accepted when
// App.MaxFileSize is zero.
const DefaultMaxFileSize = 32 << 20

// App manages the comparison service. Construct an App using a
// literal with DB and FS objects and serve the result of Handler.
type App struct {
	DB *db.DB
	FS fs.FS

	// Logger receives request and processing logs.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics, if non-nil, instruments the handler and serves
	// /metrics.
	Metrics *Metrics

	// MaxFiles is the largest number of files accepted in one
	// upload. It defaults to compare.MaxSources and may not exceed
	// it.
	MaxFiles int

	// MaxFileSize is the largest accepted record file in bytes.
	MaxFileSize int64
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *App) maxFiles() int {
	if a.MaxFiles <= 0 || a.MaxFiles > compare.MaxSources {
		return compare.MaxSources
	}
	return a.MaxFiles
}

func (a *App) maxFileSize() int64 {
	if a.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return a.MaxFileSize
}

// Handler returns the HTTP handler serving the app's routes.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if a.Metrics != nil {
		r.Use(a.Metrics.Middleware)
	}

	r.Post("/upload", a.upload)
	// Path used by the original single-page frontend.
	r.Post("/api/upload-multiplos", a.upload)
	r.Get("/compare/{uploadID}", a.serveComparison)
	r.Delete("/compare/{uploadID}", a.deleteUpload)
	r.Get("/chart/{uploadID}/{chart}", a.serveChart)
	r.Get("/view/{uploadID}", a.serveView)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	if a.Metrics != nil {
		r.Handle("/metrics", a.Metrics.Handler())
	}
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger().ErrorContext(r.Context(), "writing response", "err", err, "request_id", middleware.GetReqID(r.Context()))
	}
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		a.logger().ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "err", err,
			"request_id", middleware.GetReqID(r.Context()))
	}
	a.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

// statusOf maps a storage error to an HTTP status.
func statusOf(err error) int {
	if errors.Is(err, db.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
