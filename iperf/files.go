// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iperf

import (
	"fmt"
	"os"
	"strings"
)

// Files reads and normalizes a sequence of record files.
//
// Each file's source identifier is its path. If AllowLabels is set,
// a path may be given as label=path and the label is used instead.
// Identifiers are made unique by Disambiguate.
type Files struct {
	Paths       []string
	AllowLabels bool
}

// A FileResult is the outcome of reading one file.
// Exactly one of Measurement and Err is non-nil.
type FileResult struct {
	Path        string
	SourceID    string
	Measurement *Measurement
	Err         error
}

// Read reads every file in f.Paths, in order. A failure in one file
// is recorded in its FileResult and does not stop the others.
func (f *Files) Read() []FileResult {
	results := f.sources()
	for i := range results {
		r := &results[i]
		r.Measurement, r.Err = ReadFile(r.Path, r.SourceID)
	}
	return results
}

func (f *Files) sources() []FileResult {
	var out []FileResult
	var names []string
	for _, path := range f.Paths {
		name := path
		if i := strings.Index(path, "="); f.AllowLabels && i >= 0 {
			name, path = path[:i], path[i+1:]
		}
		out = append(out, FileResult{Path: path})
		names = append(names, name)
	}
	for i, id := range Disambiguate(names) {
		out[i].SourceID = id
	}
	return out
}

// TimeKey is the JSON key of the time value in series points and in
// aligned rows. It is never used as a source identifier.
const TimeKey = "timeSeconds"

// Disambiguate returns names with every duplicated name replaced by
// "name#N", where N counts that name's occurrences from 0. The name
// TimeKey is always suffixed. Suffixes that would collide with another
// name are skipped, so the results are distinct.
func Disambiguate(names []string) []string {
	count := make(map[string]int)
	for _, n := range names {
		count[n]++
	}
	unique := func(n string) bool { return count[n] == 1 && n != TimeKey }
	taken := make(map[string]bool)
	for _, n := range names {
		if unique(n) {
			taken[n] = true
		}
	}
	out := make([]string, len(names))
	next := make(map[string]int)
	for i, n := range names {
		if unique(n) {
			out[i] = n
			continue
		}
		for {
			id := fmt.Sprintf("%s#%d", n, next[n])
			next[n]++
			if !taken[id] {
				taken[id] = true
				out[i] = id
				break
			}
		}
	}
	return out
}

// ReadFile decodes and normalizes the record stored at path.
func ReadFile(path, sourceID string) (*Measurement, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	rec, err := Decode(file)
	if err != nil {
		if me, ok := err.(*MalformedInputError); ok {
			me.Source = sourceID
		}
		return nil, err
	}
	return Normalize(rec, sourceID)
}
