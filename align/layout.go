// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

// A Slot is one cell of a two-column layout.
type Slot[T any] struct {
	Item        T
	Placeholder bool
}

// Slots lays items out two per row, preserving their order. If there
// is an odd number of items, a single placeholder slot is appended so
// the last row is full.
func Slots[T any](items []T) []Slot[T] {
	slots := make([]Slot[T], 0, len(items)+1)
	for _, it := range items {
		slots = append(slots, Slot[T]{Item: it})
	}
	if len(items)%2 == 1 {
		slots = append(slots, Slot[T]{Placeholder: true})
	}
	return slots
}

// Pairs groups slots into rows of two. len(slots) must be even.
func Pairs[T any](slots []Slot[T]) [][2]Slot[T] {
	rows := make([][2]Slot[T], 0, len(slots)/2)
	for i := 0; i+1 < len(slots); i += 2 {
		rows = append(rows, [2]Slot[T]{slots[i], slots[i+1]})
	}
	return rows
}
