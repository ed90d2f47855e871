// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/plot/plotter"

	"golang.org/x/netperf/align"
	"golang.org/x/netperf/compare"
	"golang.org/x/netperf/iperf"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func testComparison() *compare.Comparison {
	return compare.Build([]*iperf.Measurement{
		{
			Summary: iperf.Summary{SourceID: "udp", Protocol: iperf.UDP, FinalThroughput: 1e6,
				FinalJitter: f64(0.02), TotalLostOrRetransmitted: i64(1), TotalSentPackets: i64(900)},
			Series: []iperf.Point{{Time: 0, Throughput: 1e6}, {Time: 2, Throughput: 1.1e6}, {Time: 6, Throughput: 1.2e6}},
		},
		{
			Summary: iperf.Summary{SourceID: "tcp", Protocol: iperf.TCP, FinalThroughput: 9e8,
				FinalLatency: f64(1.5), TotalLostOrRetransmitted: i64(4), TotalSentBytes: i64(1 << 30)},
			Series: []iperf.Point{{Time: 0, Throughput: 9e8, Latency: f64(1.2)}, {Time: 4, Throughput: 8e8, Latency: f64(1.4)}},
		},
	})
}

func TestSegments(t *testing.T) {
	col := []*float64{f64(1), f64(2), nil, f64(4), nil, nil, f64(7)}
	got := segments(col, func(r int) float64 { return float64(r * 2) })
	want := []plotter.XYs{
		{{X: 0, Y: 1}, {X: 2, Y: 2}},
		{{X: 6, Y: 4}},
		{{X: 12, Y: 7}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got := segments([]*float64{nil, nil}, nil); len(got) != 0 {
		t.Errorf("all-nil column: got %v", got)
	}
}

func TestWriteFormats(t *testing.T) {
	c := testComparison()
	magic := map[Format]string{PNG: "\x89PNG", SVG: "<svg", PDF: "%PDF"}
	for _, ch := range c.Charts {
		pl, err := Render(ch, func(src string) color.Color { return c.Color(src) })
		if err != nil {
			t.Fatalf("%s: %v", ch.ID, err)
		}
		for f, prefix := range magic {
			var buf bytes.Buffer
			if err := Write(&buf, pl, f, Width, Height); err != nil {
				t.Fatalf("%s.%s: %v", ch.ID, f, err)
			}
			if !bytes.Contains(buf.Bytes()[:min(256, buf.Len())], []byte(prefix)) {
				t.Errorf("%s.%s: output does not start with %q", ch.ID, f, prefix)
			}
		}
	}
}

func TestRenderAllGaps(t *testing.T) {
	ch := &compare.Chart{
		ID:    "latency",
		Title: "Latency",
		Kind:  compare.Line,
		Rows: &align.Alignment{
			Sources: []string{"a"},
			Rows:    []align.Row{{Time: 0, Values: []*float64{nil}}, {Time: 2, Values: []*float64{nil}}},
		},
	}
	pl, err := Render(ch, func(string) color.Color { return color.Black })
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(new(bytes.Buffer), pl, PNG, Width, Height); err != nil {
		t.Fatal(err)
	}

	ch.Kind = "pie"
	if _, err := Render(ch, nil); err == nil {
		t.Errorf("unknown chart kind rendered without error")
	}
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	c := testComparison()
	paths, err := WriteDir(dir, c, SVG)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(c.Charts) {
		t.Fatalf("wrote %d files, want %d", len(paths), len(c.Charts))
	}
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() == 0 {
			t.Errorf("%s is empty", p)
		}
	}
	if want := filepath.Join(dir, "throughput.svg"); paths[0] != want {
		t.Errorf("first chart at %s, want %s", paths[0], want)
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"png", "svg", "pdf"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Errorf("ParseFormat(gif) succeeded")
	}
	if got := SVG.ContentType(); got != "image/svg+xml" {
		t.Errorf("SVG content type %q", got)
	}
}
