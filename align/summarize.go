// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import "golang.org/x/netperf/iperf"

// A SummaryExtractor selects one terminal value from a summary. It
// returns nil if the value is absent or does not apply to the
// summary's protocol.
type SummaryExtractor func(s *iperf.Summary) *float64

// A Bar is one source's terminal value.
type Bar struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Summarize returns one bar per source for which extract returns a
// value, in source order. Sources without a value are left out.
func Summarize(sources []*iperf.Measurement, extract SummaryExtractor) []Bar {
	bars := []Bar{}
	for _, m := range sources {
		if v := extract(&m.Summary); v != nil {
			bars = append(bars, Bar{Name: m.Summary.SourceID, Value: *v})
		}
	}
	return bars
}

func intValue(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// only restricts extract to summaries of protocol p.
func only(p iperf.Protocol, extract SummaryExtractor) SummaryExtractor {
	return func(s *iperf.Summary) *float64 {
		if s.Protocol != p {
			return nil
		}
		return extract(s)
	}
}

// Summary extractors.
var (
	// LostOrRetransmitted is lost packets for UDP sources and
	// retransmits for TCP sources.
	LostOrRetransmitted SummaryExtractor = func(s *iperf.Summary) *float64 {
		return intValue(s.TotalLostOrRetransmitted)
	}
	SentPacketsUDP = only(iperf.UDP, func(s *iperf.Summary) *float64 {
		return intValue(s.TotalSentPackets)
	})
	SentBytesTCP = only(iperf.TCP, func(s *iperf.Summary) *float64 {
		return intValue(s.TotalSentBytes)
	})
	FinalJitterUDP = only(iperf.UDP, func(s *iperf.Summary) *float64 {
		return s.FinalJitter
	})
	FinalLatencyTCP = only(iperf.TCP, func(s *iperf.Summary) *float64 {
		return s.FinalLatency
	})
	FinalThroughput SummaryExtractor = func(s *iperf.Summary) *float64 {
		v := s.FinalThroughput
		return &v
	}
)
