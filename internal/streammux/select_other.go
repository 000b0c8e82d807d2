// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !unix

package streammux

const selectSupported = false

// newSelectMux is never reached on this platform; New rejects the select
// backend with ErrUnsupportedBackend first.
func newSelectMux() Multiplexer {
	return nil
}
