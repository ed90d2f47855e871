// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// A table does layout of text-based tables. Columns are separated by
// two spaces; the first column is left-aligned and the rest are
// right-aligned.
type table struct {
	rows [][]string
	cols int
}

// row appends a row of cells.
func (t *table) row(cells ...string) *table {
	t.rows = append(t.rows, cells)
	if len(cells) > t.cols {
		t.cols = len(cells)
	}
	return t
}

func (t *table) format(w io.Writer) error {
	widths := make([]int, t.cols)
	for _, r := range t.rows {
		for i, c := range r {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	var buf strings.Builder
	for _, r := range t.rows {
		buf.Reset()
		for i, c := range r {
			if i > 0 {
				buf.WriteString("  ")
			}
			pad := widths[i] - utf8.RuneCountInString(c)
			if i == 0 {
				buf.WriteString(c)
				if i < len(r)-1 {
					buf.WriteString(strings.Repeat(" ", pad))
				}
			} else {
				fmt.Fprintf(&buf, "%*s", widths[i], c)
			}
		}
		buf.WriteByte('\n')
		if _, err := io.WriteString(w, buf.String()); err != nil {
			return err
		}
	}
	return nil
}
