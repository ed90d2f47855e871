// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align merges the normalized measurements of several test
// runs into comparison datasets.
//
// Continuous metrics are aligned on the union of every source's
// sample times, with an explicit nil wherever a source has no sample
// at a given time. Terminal metrics become one bar per source that
// reports the metric. All operations are pure: inputs are only read
// and every result is freshly allocated.
package align

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aclements/go-gg/generic/slice"

	"golang.org/x/netperf/iperf"
	"golang.org/x/netperf/units"
)

// A PointExtractor selects one optional value from a series point.
type PointExtractor func(p *iperf.Point) *float64

// A Transform maps a present value for display.
type Transform func(v float64) float64

// Point extractors.
var (
	Throughput PointExtractor = func(p *iperf.Point) *float64 {
		v := p.Throughput
		return &v
	}
	Latency PointExtractor = func(p *iperf.Point) *float64 { return p.Latency }
	Jitter  PointExtractor = func(p *iperf.Point) *float64 { return p.Jitter }

	Retransmits PointExtractor = func(p *iperf.Point) *float64 {
		if p.Retransmits == nil {
			return nil
		}
		v := float64(*p.Retransmits)
		return &v
	}
)

// Transforms.
var (
	// Megabits converts bits per second to megabits per second,
	// rounded to two decimals.
	Megabits Transform = units.Megabits
	// Round2 rounds to two decimals.
	Round2 Transform = units.Round2
	// Identity leaves values unchanged.
	Identity Transform = func(v float64) float64 { return v }
)

// A Row is the set of source values at one time.
type Row struct {
	Time int

	// Values has one entry per source, in source order.
	// A nil entry means the source has no sample at Time.
	Values []*float64
}

// An Alignment is a multi-source series aligned on time.
type Alignment struct {
	Sources []string
	Rows    []Row
}

// Align aligns the series of sources on the union of their sample
// times, in ascending order. Each row holds, for each source in
// order, transform applied to the value extract returns for that
// source's point at the row's time, or nil if the source has no
// point there or extract returns nil. transform may be nil.
func Align(sources []*iperf.Measurement, extract PointExtractor, transform Transform) *Alignment {
	a := &Alignment{Sources: make([]string, len(sources)), Rows: []Row{}}
	if len(sources) == 0 {
		return a
	}
	if transform == nil {
		transform = Identity
	}

	timeSets := make([]slice.T, len(sources))
	byTime := make([]map[int]*iperf.Point, len(sources))
	for i, m := range sources {
		a.Sources[i] = m.Summary.SourceID
		times := make([]int, 0, len(m.Series))
		byTime[i] = make(map[int]*iperf.Point, len(m.Series))
		for j := range m.Series {
			p := &m.Series[j]
			times = append(times, p.Time)
			if _, ok := byTime[i][p.Time]; !ok {
				byTime[i][p.Time] = p
			}
		}
		timeSets[i] = times
	}
	times := slice.NubAppend(timeSets...).([]int)
	slice.Sort(times)

	for _, t := range times {
		row := Row{Time: t, Values: make([]*float64, len(sources))}
		for i := range sources {
			p, ok := byTime[i][t]
			if !ok {
				continue
			}
			if v := extract(p); v != nil {
				x := transform(*v)
				row.Values[i] = &x
			}
		}
		a.Rows = append(a.Rows, row)
	}
	return a
}

// Displayable reports whether any row has a value for any source.
// An alignment that is not displayable should not be charted.
func (a *Alignment) Displayable() bool {
	for _, row := range a.Rows {
		for _, v := range row.Values {
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Column returns the values of source i, one per row.
func (a *Alignment) Column(i int) []*float64 {
	col := make([]*float64, len(a.Rows))
	for r, row := range a.Rows {
		col[r] = row.Values[i]
	}
	return col
}

// Restrict returns a copy of a holding only the sources for which
// keep returns true. Rows are kept even if they become all nil.
func (a *Alignment) Restrict(keep func(i int, source string) bool) *Alignment {
	var idx []int
	out := &Alignment{Rows: make([]Row, len(a.Rows))}
	for i, s := range a.Sources {
		if keep(i, s) {
			idx = append(idx, i)
			out.Sources = append(out.Sources, s)
		}
	}
	for r, row := range a.Rows {
		vals := make([]*float64, len(idx))
		for j, i := range idx {
			vals[j] = row.Values[i]
		}
		out.Rows[r] = Row{Time: row.Time, Values: vals}
	}
	return out
}

// MarshalJSON encodes the alignment as a list of flat rows of the
// form {"timeSeconds": t, "<source>": value or null, ...}, with
// sources in order. Source names must be distinct and differ from
// iperf.TimeKey.
func (a *Alignment) MarshalJSON() ([]byte, error) {
	keys := map[string]bool{iperf.TimeKey: true}
	for _, src := range a.Sources {
		if keys[src] {
			return nil, fmt.Errorf("align: source name %q is not a distinct row key", src)
		}
		keys[src] = true
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for r, row := range a.Rows {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"` + iperf.TimeKey + `":`)
		buf.WriteString(strconv.Itoa(row.Time))
		for i, src := range a.Sources {
			key, err := json.Marshal(src)
			if err != nil {
				return nil, err
			}
			buf.WriteByte(',')
			buf.Write(key)
			buf.WriteByte(':')
			if v := row.Values[i]; v == nil {
				buf.WriteString("null")
			} else {
				val, err := json.Marshal(*v)
				if err != nil {
					return nil, err
				}
				buf.Write(val)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
