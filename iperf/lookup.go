// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iperf

// A lookup retrieves one optional field from an interval.
type lookup[T any] func(iv *Interval) *T

// first returns the result of the first lookup that finds a value.
func first[T any](iv *Interval, lookups []lookup[T]) *T {
	for _, l := range lookups {
		if v := l(iv); v != nil {
			return v
		}
	}
	return nil
}

func (iv *Interval) stream0() *IntervalStream {
	if len(iv.Streams) == 0 {
		return nil
	}
	return &iv.Streams[0]
}

func (iv *Interval) sender0() *SenderStats {
	if s := iv.stream0(); s != nil {
		return s.Sender
	}
	return nil
}

// rttLookups finds an interval's round-trip time, in microseconds.
var rttLookups = []lookup[float64]{
	func(iv *Interval) *float64 {
		if s := iv.stream0(); s != nil {
			return s.RTT
		}
		return nil
	},
	func(iv *Interval) *float64 {
		if s := iv.sender0(); s != nil {
			return s.RTT
		}
		return nil
	},
}

// retransmitLookups finds an interval's retransmit count.
var retransmitLookups = []lookup[int64]{
	func(iv *Interval) *int64 {
		if iv.Sum != nil {
			return iv.Sum.Retransmits
		}
		return nil
	},
	func(iv *Interval) *int64 {
		if s := iv.sender0(); s != nil {
			return s.Retransmits
		}
		return nil
	},
	func(iv *Interval) *int64 {
		if s := iv.stream0(); s != nil {
			return s.Retransmits
		}
		return nil
	},
}
