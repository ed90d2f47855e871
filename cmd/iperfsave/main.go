// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Iperfsave uploads iperf3 results to a comparison server.
//
// Usage:
//
//	iperfsave [-v] [-server url] [-token token] file...
//
// Each input file should contain the JSON output of one iperf3 run.
// Iperfsave uploads up to six files as one batch and prints the URL
// where their comparison can be viewed. Files the server could not
// process are listed on standard error.
//
// If the server requires authentication, pass a bearer token with
// -token or the NETPERF_TOKEN environment variable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var (
	server  = flag.String("server", "http://localhost:8080", "upload results to server at `url`")
	token   = flag.String("token", "", "authenticate with bearer `token` (default $NETPERF_TOKEN)")
	verbose = flag.Bool("v", false, "print verbose log messages")
)

type uploadStatus struct {
	Error     string   `json:"error"`
	UploadID  string   `json:"uploadId"`
	Filenames []string `json:"filenames"`
	Failures  []struct {
		Filename string `json:"filename"`
		Error    string `json:"error"`
	} `json:"failures"`
	ViewURL string `json:"viewUrl"`
}

// writeOneFile reads name and writes it to mpw.
func writeOneFile(mpw *multipart.Writer, name string) error {
	w, err := mpw.CreateFormFile("files", filepath.Base(name))
	if err != nil {
		return err
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// newClient returns the HTTP client for talking to the server.
func newClient(ctx context.Context, tok string) *http.Client {
	if tok == "" {
		return http.DefaultClient
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}))
}

// upload posts files to the server at base as one multipart request.
func upload(hc *http.Client, base string, files []string) (*uploadStatus, error) {
	pr, pw := io.Pipe()
	mpw := multipart.NewWriter(pw)

	go func() {
		for _, name := range files {
			if err := writeOneFile(mpw, name); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mpw.Close())
	}()

	resp, err := hc.Post(strings.TrimSuffix(base, "/")+"/upload", mpw.FormDataContentType(), pr)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	status := new(uploadStatus)
	if err := json.NewDecoder(resp.Body).Decode(status); err != nil {
		return nil, fmt.Errorf("upload failed: %v: cannot parse response: %v", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		for _, f := range status.Failures {
			log.Printf("%s: %s", f.Filename, f.Error)
		}
		return nil, fmt.Errorf("upload failed: %v: %s", resp.Status, status.Error)
	}
	return status, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage of iperfsave:
	iperfsave [flags] file...
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("iperfsave: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("no files to upload")
	}
	tok := *token
	if tok == "" {
		tok = os.Getenv("NETPERF_TOKEN")
	}

	start := time.Now()
	status, err := upload(newClient(context.Background(), tok), *server, files)
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range status.Failures {
		log.Printf("%s: %s", f.Filename, f.Error)
	}
	if *verbose {
		s := ""
		if len(status.Filenames) != 1 {
			s = "s"
		}
		log.Printf("%d file%s uploaded in %.2f seconds.", len(status.Filenames), s, time.Since(start).Seconds())
	}
	if status.ViewURL != "" {
		fmt.Printf("%s%s\n", strings.TrimSuffix(*server, "/"), status.ViewURL)
	}
}
