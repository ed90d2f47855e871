// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compare

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"golang.org/x/netperf/iperf"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func tcp(id string, latency bool) *iperf.Measurement {
	m := &iperf.Measurement{
		Summary: iperf.Summary{
			SourceID:                 id,
			Protocol:                 iperf.TCP,
			FinalThroughput:          9e9,
			TotalLostOrRetransmitted: i64(4),
			TotalSentBytes:           i64(1 << 30),
		},
		Series: []iperf.Point{{Time: 0, Throughput: 9e9}, {Time: 2, Throughput: 8e9}},
	}
	if latency {
		m.Summary.FinalLatency = f64(1.5)
		for i := range m.Series {
			m.Series[i].Latency = f64(1.234)
		}
	}
	return m
}

func udp(id string) *iperf.Measurement {
	return &iperf.Measurement{
		Summary: iperf.Summary{
			SourceID:                 id,
			Protocol:                 iperf.UDP,
			FinalThroughput:          1e6,
			FinalJitter:              f64(0.02),
			TotalLostOrRetransmitted: i64(1),
			TotalSentPackets:         i64(900),
			TotalSentBytes:           i64(1314000),
		},
		Series: []iperf.Point{{Time: 0, Throughput: 1e6, Jitter: f64(0.01)}, {Time: 4, Throughput: 1e6}},
	}
}

func chartIDs(c *Comparison) []string {
	var ids []string
	for _, ch := range c.Charts {
		ids = append(ids, ch.ID)
	}
	return ids
}

func TestBuildCatalog(t *testing.T) {
	for _, test := range []struct {
		name    string
		sources []*iperf.Measurement
		want    []string
	}{
		{"udp only", []*iperf.Measurement{udp("u")}, []string{"throughput", "sent-packets", "lost-packets", "jitter"}},
		{"tcp only", []*iperf.Measurement{tcp("t", true)}, []string{"throughput", "latency", "lost-packets", "sent-bytes"}},
		{"tcp without rtt", []*iperf.Measurement{tcp("t", false)}, []string{"throughput", "lost-packets", "sent-bytes"}},
		{"mixed", []*iperf.Measurement{udp("u"), tcp("t", true)}, []string{"throughput", "latency", "sent-packets", "lost-packets", "jitter", "sent-bytes"}},
		{"empty", nil, nil},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := Build(test.sources)
			if diff := cmp.Diff(test.want, chartIDs(c)); diff != "" {
				t.Errorf("charts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildLatencyTCPOnly(t *testing.T) {
	c := Build([]*iperf.Measurement{udp("u"), tcp("t", true), tcp("t2", true)})
	lat := c.Chart("latency")
	if lat == nil {
		t.Fatal("no latency chart")
	}
	if diff := cmp.Diff([]string{"t", "t2"}, lat.Rows.Sources); diff != "" {
		t.Errorf("latency sources mismatch (-want +got):\n%s", diff)
	}
	// The UDP source's time 4 remains a row with no values.
	if len(lat.Rows.Rows) != 3 {
		t.Errorf("got %d latency rows, want 3", len(lat.Rows.Rows))
	}
	if v := lat.Rows.Rows[0].Values[0]; v == nil || *v != 1.23 {
		t.Errorf("latency at 0 = %v, want 1.23", v)
	}

	thr := c.Chart("throughput")
	if diff := cmp.Diff([]string{"u", "t", "t2"}, thr.Rows.Sources); diff != "" {
		t.Errorf("throughput sources mismatch (-want +got):\n%s", diff)
	}
	if v := thr.Rows.Rows[1].Values[1]; v == nil || *v != 8000 {
		t.Errorf("throughput of t at 2 = %v, want 8000", v)
	}
}

func TestColors(t *testing.T) {
	var sources []*iperf.Measurement
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		sources = append(sources, udp(id))
	}
	c := Build(sources)
	for i, s := range c.Sources {
		if s.Color != Palette[i] {
			t.Errorf("source %s: color %s, want %s", s.ID, s.Color, Palette[i])
		}
	}
	if got, want := c.Color("b"), (color.RGBA{0x00, 0xc4, 0x9f, 0xff}); got != want {
		t.Errorf("Color(b) = %v, want %v", got, want)
	}
	if got := c.Color("nope"); got != (color.RGBA{A: 0xff}) {
		t.Errorf("Color(nope) = %v, want black", got)
	}
	if _, err := ParseColor("0088FE"); err == nil {
		t.Errorf("ParseColor accepted a color without #")
	}
}

func TestLayout(t *testing.T) {
	c := Build([]*iperf.Measurement{udp("u")})
	slots := c.Layout()
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}
	c = Build([]*iperf.Measurement{tcp("t", false)})
	slots = c.Layout()
	if len(slots) != 4 || !slots[3].Placeholder || slots[2].Item.ID != "sent-bytes" {
		t.Errorf("unexpected layout for three charts: %+v", slots)
	}
}
