// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

func initializeService(ctx context.Context, cfg *config) (*service, func(), error) {
	panic(wire.Build(providerSet))
}
