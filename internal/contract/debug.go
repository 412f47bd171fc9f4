// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build compositor_debug

package contract

const debugBuild = true
