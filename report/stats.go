// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aclements/go-moremath/stats"

	"golang.org/x/netperf/align"
	"golang.org/x/netperf/iperf"
)

// SeriesStats describes the present values of one source's series.
type SeriesStats struct {
	Source       string
	N            int
	Min, Max     float64
	Mean, Median float64
	StdDev       float64
}

// Describe computes statistics over the values extract returns for
// m's series, after transform. It reports false if there are none.
func Describe(m *iperf.Measurement, extract align.PointExtractor, transform align.Transform) (SeriesStats, bool) {
	if transform == nil {
		transform = align.Identity
	}
	var xs []float64
	for i := range m.Series {
		if v := extract(&m.Series[i]); v != nil {
			xs = append(xs, transform(*v))
		}
	}
	if len(xs) == 0 {
		return SeriesStats{}, false
	}
	sample := stats.Sample{Xs: xs}
	st := SeriesStats{Source: m.Summary.SourceID, N: len(xs), Mean: sample.Mean(), Median: sample.Quantile(0.5)}
	st.Min, st.Max = sample.Bounds()
	if len(xs) > 1 {
		st.StdDev = sample.StdDev()
	}
	return st, true
}

// WriteStats writes a table of series statistics, with values
// formatted to two decimals followed by unit.
func WriteStats(w io.Writer, unit string, all []SeriesStats) error {
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64) + unit
	}
	var t table
	t.row("source", "n", "min", "median", "mean", "max", "stddev")
	for _, s := range all {
		t.row(s.Source, fmt.Sprint(s.N), f(s.Min), f(s.Median), f(s.Mean), f(s.Max), "±"+f(s.StdDev))
	}
	return t.format(w)
}
