// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	tests := []struct {
		name       string
		noColor    string
		forceColor string
		want       bool
	}{
		{name: "NO_COLOR disables", noColor: "1", forceColor: "", want: false},
		{name: "NO_COLOR wins over FORCE_COLOR", noColor: "1", forceColor: "1", want: false},
		{name: "FORCE_COLOR enables", noColor: "", forceColor: "1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(NoColor, tt.noColor)
			t.Setenv(ForceColor, tt.forceColor)

			assert.Equal(t, tt.want, isColorCapable())
		})
	}
}

func TestColorize(t *testing.T) {
	old := enabled

	t.Cleanup(func() { enabled = old })

	enabled = false
	assert.Equal(t, "plain", Colorize("plain", FgRed), "disabled output passes through unchanged")

	enabled = true
	assert.Equal(t, "\033[31mred\033[0m", Colorize("red", FgRed))
	assert.Equal(t, "\033[1;31mboth\033[0m", Colorize("both", Bold, FgRed), "multiple codes join with semicolons")
}
