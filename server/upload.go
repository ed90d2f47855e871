// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"golang.org/x/netperf/iperf"
	"golang.org/x/netperf/storage/fs"
)

var (
	errNoFiles      = errors.New("no files uploaded")
	errTooManyFiles = errors.New("too many files uploaded")
	errNoValidFiles = errors.New("no file could be processed")
)

// A requestError is an error caused by the client's request.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// uploadStatus is the response to an /upload POST served as JSON.
type uploadStatus struct {
	// Error is set when no file could be processed.
	Error string `json:"error,omitempty"`
	// UploadID is the ID under which the measurements were stored.
	UploadID string `json:"uploadId,omitempty"`
	// Filenames lists the original names of the processed files,
	// parallel to AllStats.
	Filenames []string             `json:"filenames"`
	AllStats  []*iperf.Measurement `json:"allStats"`
	Failures  []fileFailure        `json:"failures"`
	// ViewURL is the path of the rendered comparison.
	ViewURL string `json:"viewUrl,omitempty"`
}

type fileFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// A stagedFile is an uploaded file written to the staging filesystem.
type stagedFile struct {
	filename string // name given by the client
	name     string // name in the staging filesystem
	err      error  // set if the file was rejected while staging
}

// upload is the handler for the /upload endpoint. It processes files
// in a multipart/form-data POST request.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// We use r.MultipartReader instead of r.ParseMultipartForm to
	// avoid storing uploaded data in memory.
	mr, err := r.MultipartReader()
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	files, err := a.stage(ctx, mr)
	defer a.unstage(ctx, files)
	if err != nil {
		var rerr *requestError
		if errors.As(err, &rerr) {
			a.writeError(w, r, http.StatusBadRequest, err)
		} else {
			a.writeError(w, r, http.StatusInternalServerError, err)
		}
		return
	}

	status, err := a.processUpload(ctx, files)
	if err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	code := http.StatusOK
	if status.UploadID == "" {
		code = http.StatusBadRequest
	}
	a.logger().InfoContext(ctx, "upload processed",
		"upload_id", status.UploadID,
		"files", len(files),
		"failures", len(status.Failures),
		"request_id", middleware.GetReqID(ctx))
	a.writeJSON(w, r, code, status)
}

// stage writes every file part of mr to the staging filesystem.
// The returned files must be passed to unstage even if stage fails.
func (a *App) stage(ctx context.Context, mr *multipart.Reader) ([]*stagedFile, error) {
	var files []*stagedFile
	limit := a.maxFileSize()
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, &requestError{err}
		}

		if name := p.FormName(); name != "files" && name != "file" {
			p.Close()
			continue
		}
		if len(files) == a.maxFiles() {
			return files, &requestError{fmt.Errorf("%w: at most %d files are accepted", errTooManyFiles, a.maxFiles())}
		}

		f := &stagedFile{filename: p.FileName()}
		if f.filename == "" {
			f.filename = fmt.Sprintf("file%d", len(files))
		}
		f.name = fmt.Sprintf("uploads/%s-%s", uuid.NewString(), path.Base(f.filename))
		meta := map[string]string{
			"filename": f.filename,
			"position": strconv.Itoa(len(files)),
		}
		fw, err := a.FS.NewWriter(ctx, f.name, meta)
		if err != nil {
			return files, fmt.Errorf("staging %s: %w", f.filename, err)
		}
		files = append(files, f)

		n, err := io.Copy(fw, io.LimitReader(p, limit+1))
		if err != nil {
			fw.CloseWithError(err)
			return files, &requestError{fmt.Errorf("reading %s: %w", f.filename, err)}
		}
		if n > limit {
			f.err = fmt.Errorf("file exceeds %d bytes", limit)
			fw.CloseWithError(f.err)
			continue
		}
		if err := fw.Close(); err != nil {
			return files, fmt.Errorf("staging %s: %w", f.filename, err)
		}
	}
	if len(files) == 0 {
		return nil, &requestError{errNoFiles}
	}
	return files, nil
}

// unstage deletes the staged files. It runs after the request
// context may have been canceled.
func (a *App) unstage(ctx context.Context, files []*stagedFile) {
	ctx = context.WithoutCancel(ctx)
	for _, f := range files {
		if err := a.FS.Delete(ctx, f.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger().WarnContext(ctx, "deleting staged file", "name", f.name, "err", err)
		}
	}
}

// processUpload normalizes the staged files concurrently and stores
// the successful ones, in upload order, as a new upload.
func (a *App) processUpload(ctx context.Context, files []*stagedFile) (*uploadStatus, error) {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.filename
	}
	ids := iperf.Disambiguate(names)

	results := make([]*iperf.Measurement, len(files))
	errs := make([]error, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		i, f := i, f
		if f.err != nil {
			errs[i] = f.err
			a.Metrics.fileProcessed("rejected", 0)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i], errs[i] = a.normalize(gctx, f.name, ids[i])
			a.Metrics.fileProcessed(outcome(errs[i]), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := &uploadStatus{
		Filenames: []string{},
		AllStats:  []*iperf.Measurement{},
		Failures:  []fileFailure{},
	}
	for i, f := range files {
		if errs[i] != nil {
			status.Failures = append(status.Failures, fileFailure{Filename: f.filename, Error: errs[i].Error()})
			continue
		}
		status.Filenames = append(status.Filenames, f.filename)
		status.AllStats = append(status.AllStats, results[i])
	}
	if len(status.AllStats) == 0 {
		status.Error = errNoValidFiles.Error()
		return status, nil
	}

	u, err := a.DB.NewUpload(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range status.AllStats {
		if err := u.Insert(m); err != nil {
			u.Abort()
			return nil, err
		}
	}
	if err := u.Commit(); err != nil {
		return nil, err
	}
	status.UploadID = u.ID
	status.ViewURL = "/view/" + u.ID
	return status, nil
}

// normalize decodes and normalizes the staged file name.
func (a *App) normalize(ctx context.Context, name, sourceID string) (*iperf.Measurement, error) {
	r, err := a.FS.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	rec, err := iperf.Decode(r)
	if err != nil {
		var me *iperf.MalformedInputError
		if errors.As(err, &me) {
			me.Source = sourceID
		}
		return nil, err
	}
	return iperf.Normalize(rec, sourceID)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, iperf.ErrMalformed):
		return "malformed"
	}
	return "error"
}
