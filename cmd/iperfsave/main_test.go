// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.json", "b.json", "bad.json"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o666); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestUpload(t *testing.T) {
	paths := writeFiles(t, map[string]string{"a.json": `{"name":"a"}`, "b.json": `{"name":"b"}`})

	var gotPath, gotAuth string
	var gotFields, gotFiles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			gotFields = append(gotFields, p.FormName())
			gotFiles = append(gotFiles, p.FileName())
		}
		json.NewEncoder(w).Encode(map[string]any{
			"uploadId":  "7",
			"filenames": gotFiles,
			"failures":  []any{},
			"viewUrl":   "/view/7",
		})
	}))
	defer srv.Close()

	status, err := upload(newClient(context.Background(), "secret"), srv.URL+"/", paths)
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/upload" {
		t.Errorf("posted to %q, want /upload", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", gotAuth)
	}
	if diff := cmp.Diff([]string{"files", "files"}, gotFields); diff != "" {
		t.Errorf("form fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.json", "b.json"}, gotFiles); diff != "" {
		t.Errorf("file names mismatch (-want +got):\n%s", diff)
	}
	if status.UploadID != "7" || status.ViewURL != "/view/7" {
		t.Errorf("got upload %q view %q", status.UploadID, status.ViewURL)
	}
}

func TestUploadRejected(t *testing.T) {
	paths := writeFiles(t, map[string]string{"bad.json": "{"})

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"no file could be processed","failures":[{"filename":"bad.json","error":"bad.json: invalid record"}]}`)
	}))
	defer srv.Close()

	_, err := upload(newClient(context.Background(), ""), srv.URL, paths)
	if err == nil || !strings.Contains(err.Error(), "no file could be processed") {
		t.Errorf("got error %v, want server error", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q without a token", gotAuth)
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	if _, err := upload(http.DefaultClient, srv.URL, []string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("want error for missing file")
	}
}
