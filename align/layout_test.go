// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlots(t *testing.T) {
	test := func(items []string, want ...string) {
		t.Helper()
		var got []string
		for _, s := range Slots(items) {
			if s.Placeholder {
				got = append(got, "_")
			} else {
				got = append(got, s.Item)
			}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Slots(%q) mismatch (-want +got):\n%s", items, diff)
		}
	}

	test(nil)
	test([]string{"a"}, "a", "_")
	test([]string{"a", "b"}, "a", "b")
	test([]string{"a", "b", "c"}, "a", "b", "c", "_")
	test([]string{"a", "b", "c", "d", "e", "f"}, "a", "b", "c", "d", "e", "f")

	for k := 0; k < 10; k++ {
		items := make([]int, k)
		slots := Slots(items)
		want := k + k%2
		if len(slots) != want {
			t.Errorf("k=%d: got %d slots, want %d", k, len(slots), want)
		}
		placeholders := 0
		for _, s := range slots {
			if s.Placeholder {
				placeholders++
			}
		}
		if placeholders != k%2 || (k%2 == 1 && !slots[len(slots)-1].Placeholder) {
			t.Errorf("k=%d: %d placeholders, want %d at the end", k, placeholders, k%2)
		}
		if rows := Pairs(slots); len(rows) != want/2 {
			t.Errorf("k=%d: got %d rows, want %d", k, len(rows), want/2)
		}
	}
}
