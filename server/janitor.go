// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"time"
)

// Expire deletes stored uploads older than retention every interval
// until ctx is done. Stored comparisons are a hand-off between the
// upload and the viewer, not an archive.
func (a *App) Expire(ctx context.Context, retention, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		a.expireOnce(ctx, retention)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (a *App) expireOnce(ctx context.Context, retention time.Duration) {
	n, err := a.DB.ExpireBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		if ctx.Err() == nil {
			a.logger().ErrorContext(ctx, "expiring uploads", "err", err)
		}
		return
	}
	if n > 0 {
		a.logger().InfoContext(ctx, "expired uploads", "count", n)
	}
}
