// SPDX-License-Identifier: MIT

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPathTraversal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"plain filename", "movie.mp4", false},
		{"underscores and dots", "my_clip.v2.mp4", false},
		{"unicode filename", "café.mp4", false},
		{"parent reference", "../secret.mp4", true},
		{"double dots only", "..", true},
		{"forward slash", "a/b.mp4", true},
		{"backslash", `a\b.mp4`, true},
		{"encoded slash", "a%2Fb.mp4", true},
		{"encoded parent", "%2e%2e%2fsecret.mp4", true},
		{"double encoded", "%252e%252e%252fsecret.mp4", true},
		{"nul byte", "movie\x00.mp4", true},
		{"encoded nul", "movie%00.mp4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPathTraversal(tt.input), "input %q", tt.input)
		})
	}
}
