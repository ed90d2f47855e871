// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compare assembles the set of comparison charts for a batch
// of normalized measurements.
package compare

import (
	"fmt"
	"image/color"

	"golang.org/x/netperf/align"
	"golang.org/x/netperf/iperf"
)

// MaxSources is the largest number of sources in one comparison.
const MaxSources = 6

// Palette holds the source colors, assigned by upload order.
var Palette = []string{"#0088FE", "#00C49F", "#FFBB28", "#FF8042", "#A020F0", "#FF69B4", "#FF4500", "#2E8B57"}

// A Kind is the presentation of a chart.
type Kind string

const (
	Line Kind = "line"
	Bar  Kind = "bar"
)

// A Chart is one displayable comparison chart. Line charts carry an
// alignment, bar charts carry one bar per applicable source.
type Chart struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Kind   Kind   `json:"kind"`
	XLabel string `json:"xLabel"`
	YLabel string `json:"yLabel"`

	Rows *align.Alignment `json:"rows,omitempty"`
	Bars []align.Bar      `json:"bars,omitempty"`
}

// A Source identifies one input of a comparison.
type Source struct {
	ID       string         `json:"id"`
	Protocol iperf.Protocol `json:"protocol"`
	Color    string         `json:"color"`
}

// A Comparison is the full set of charts and summaries for a batch.
type Comparison struct {
	Sources   []Source        `json:"sources"`
	Charts    []*Chart        `json:"charts"`
	Summaries []iperf.Summary `json:"summaries"`
}

type lineSpec struct {
	id, title, ylabel string
	extract           align.PointExtractor
	transform         align.Transform
	tcpOnly           bool
}

type barSpec struct {
	id, title, ylabel string
	extract           align.SummaryExtractor
}

// Build assembles the comparison for sources, given in upload order.
// Charts that would be empty are left out. The remaining charts are
// ordered throughput, latency, sent packets, lost packets, jitter,
// sent bytes.
func Build(sources []*iperf.Measurement) *Comparison {
	c := &Comparison{Sources: []Source{}, Charts: []*Chart{}, Summaries: []iperf.Summary{}}
	anyTCP := false
	for i, m := range sources {
		c.Sources = append(c.Sources, Source{
			ID:       m.Summary.SourceID,
			Protocol: m.Summary.Protocol,
			Color:    Palette[i%len(Palette)],
		})
		c.Summaries = append(c.Summaries, m.Summary)
		if m.Summary.Protocol == iperf.TCP {
			anyTCP = true
		}
	}

	c.addLine(sources, lineSpec{"throughput", "Throughput (Mbps)", "Mbps", align.Throughput, align.Megabits, false})
	if anyTCP {
		c.addLine(sources, lineSpec{"latency", "Latency/RTT (ms) (TCP)", "ms", align.Latency, align.Round2, true})
	}

	for _, spec := range []barSpec{
		{"sent-packets", "Sent packets (UDP)", "packets", align.SentPacketsUDP},
		{"lost-packets", "Lost packets / retransmits", "count", align.LostOrRetransmitted},
		{"jitter", "Jitter (ms) (UDP)", "ms", align.FinalJitterUDP},
		{"sent-bytes", "Sent bytes (TCP)", "bytes", align.SentBytesTCP},
	} {
		bars := align.Summarize(sources, spec.extract)
		if len(bars) == 0 {
			continue
		}
		c.Charts = append(c.Charts, &Chart{
			ID:     spec.id,
			Title:  spec.title,
			Kind:   Bar,
			XLabel: "source",
			YLabel: spec.ylabel,
			Bars:   bars,
		})
	}
	return c
}

func (c *Comparison) addLine(sources []*iperf.Measurement, spec lineSpec) {
	a := align.Align(sources, spec.extract, spec.transform)
	if !a.Displayable() {
		return
	}
	if spec.tcpOnly {
		a = a.Restrict(func(i int, _ string) bool {
			return sources[i].Summary.Protocol == iperf.TCP
		})
	}
	c.Charts = append(c.Charts, &Chart{
		ID:     spec.id,
		Title:  spec.title,
		Kind:   Line,
		XLabel: "time (s)",
		YLabel: spec.ylabel,
		Rows:   a,
	})
}

// Chart returns the chart with the given ID, or nil.
func (c *Comparison) Chart(id string) *Chart {
	for _, ch := range c.Charts {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// Layout returns the charts laid out two per row.
func (c *Comparison) Layout() []align.Slot[*Chart] {
	return align.Slots(c.Charts)
}

// Color returns the color of the named source. Unknown sources are
// drawn black.
func (c *Comparison) Color(source string) color.RGBA {
	for _, s := range c.Sources {
		if s.ID == source {
			if rgba, err := ParseColor(s.Color); err == nil {
				return rgba
			}
		}
	}
	return color.RGBA{A: 0xff}
}

// ParseColor parses a color of the form "#RRGGBB".
func ParseColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %v", s, err)
	}
	return color.RGBA{r, g, b, 0xff}, nil
}
