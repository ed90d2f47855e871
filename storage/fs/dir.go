// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirFS stores files in a directory on the local disk. Metadata is
// not stored.
type DirFS struct {
	dir string
}

// NewDirFS returns a DirFS rooted at dir, creating dir if needed.
// If dir is empty, a new temporary directory is used.
func NewDirFS(dir string) (*DirFS, error) {
	if dir == "" {
		d, err := os.MkdirTemp("", "netperf-staging-")
		if err != nil {
			return nil, err
		}
		return &DirFS{dir: d}, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &DirFS{dir: dir}, nil
}

// Dir returns the root directory of fs.
func (fs *DirFS) Dir() string { return fs.dir }

func (fs *DirFS) path(name string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(fs.dir, clean), nil
}

func (fs *DirFS) NewWriter(_ context.Context, name string, _ map[string]string) (Writer, error) {
	p, err := fs.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}
	// Write to a temporary name so readers never see partial files.
	f, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return nil, err
	}
	return &dirFile{File: f, final: p}, nil
}

func (fs *DirFS) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := fs.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (fs *DirFS) Delete(_ context.Context, name string) error {
	p, err := fs.path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

type dirFile struct {
	*os.File
	final string
}

func (f *dirFile) Close() error {
	if err := f.File.Close(); err != nil {
		os.Remove(f.File.Name())
		return err
	}
	return os.Rename(f.File.Name(), f.final)
}

func (f *dirFile) CloseWithError(error) error {
	f.File.Close()
	return os.Remove(f.File.Name())
}
