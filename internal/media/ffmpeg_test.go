// SPDX-License-Identifier: MIT

package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    float64
		wantErr bool
	}{
		{"plain", "12.5\n", 12.5, false},
		{"integer", "42", 42, false},
		{"trailing whitespace", "  3.125  \n", 3.125, false},
		{"empty", "", 0, true},
		{"garbage", "N/A", 0, true},
		{"negative", "-1.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbeDuration([]byte(tt.out))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteConcatManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "concat_list.txt")

	inputs := []string{
		filepath.Join(dir, "segment_000.mp4"),
		filepath.Join(dir, "segment_001.mp4"),
		filepath.Join(dir, "segment_002.mp4"),
	}
	require.NoError(t, writeConcatManifest(manifest, inputs))

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Equal(t, "file '"+inputs[i]+"'", line, "line %d must preserve input order", i)
		assert.True(t, filepath.IsAbs(strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")),
			"manifest paths must be absolute")
	}
}

func TestWriteConcatManifestEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "concat_list.txt")

	input := filepath.Join(dir, "it's a clip.mp4")
	require.NoError(t, writeConcatManifest(manifest, []string{input}))

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `it'\''s a clip.mp4`)
}

func TestFFmpegAvailable(t *testing.T) {
	t.Run("missing explicit path", func(t *testing.T) {
		tool := NewFFmpeg("/nonexistent/ffmpeg", "/nonexistent/ffprobe")
		err := tool.Available(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrToolUnavailable)
	})

	t.Run("missing on PATH", func(t *testing.T) {
		tool := NewFFmpeg("definitely-not-a-real-binary-name", "")
		err := tool.Available(context.Background())
		assert.ErrorIs(t, err, ErrToolUnavailable)
	})
}

func TestErrorTypes(t *testing.T) {
	base := errors.New("exit status 1")

	t.Run("extraction carries stderr", func(t *testing.T) {
		err := &ExtractionError{Source: "in.mp4", Stderr: "moov atom not found", Err: base}
		assert.Contains(t, err.Error(), "moov atom not found")
		assert.ErrorIs(t, err, base)
	})

	t.Run("concatenation carries stderr", func(t *testing.T) {
		err := &ConcatenationError{Stderr: "invalid data", Err: base}
		assert.Contains(t, err.Error(), "invalid data")
		assert.ErrorIs(t, err, base)
	})

	t.Run("probe without stderr", func(t *testing.T) {
		err := &ProbeError{Path: "x.mp4", Err: base}
		assert.Contains(t, err.Error(), "x.mp4")
		assert.ErrorIs(t, err, base)
	})
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "short", stderrTail("  short \n"))

	long := strings.Repeat("x", stderrTailLimit+100)
	tail := stderrTail(long)
	assert.Len(t, tail, stderrTailLimit+3)
	assert.True(t, strings.HasPrefix(tail, "..."))
}
