// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/netperf/align"
)

// WriteAlignment writes a as a text table with one column per source.
func WriteAlignment(w io.Writer, a *align.Alignment) error {
	var t table
	t.row(append([]string{"time"}, a.Sources...)...)
	for _, r := range a.Rows {
		cells := []string{strconv.Itoa(r.Time) + "s"}
		for _, v := range r.Values {
			if v == nil {
				cells = append(cells, NA)
			} else {
				cells = append(cells, strconv.FormatFloat(*v, 'f', 2, 64))
			}
		}
		t.row(cells...)
	}
	return t.format(w)
}

// WriteCSV writes a as CSV. Absent values are empty cells.
func WriteCSV(w io.Writer, a *align.Alignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"time"}, a.Sources...)); err != nil {
		return err
	}
	for _, r := range a.Rows {
		rec := []string{strconv.Itoa(r.Time)}
		for _, v := range r.Values {
			if v == nil {
				rec = append(rec, "")
			} else {
				rec = append(rec, strconv.FormatFloat(*v, 'f', -1, 64))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBars writes a bar dataset as a two-column text table.
func WriteBars(w io.Writer, bars []align.Bar, format func(float64) string) error {
	if format == nil {
		format = func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	}
	var t table
	for _, b := range bars {
		t.row(b.Name, format(b.Value))
	}
	return t.format(w)
}
