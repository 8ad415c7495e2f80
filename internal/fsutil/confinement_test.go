// SPDX-License-Identifier: MIT

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "movie.mp4"), []byte("x"), 0o600))

	t.Run("existing file", func(t *testing.T) {
		path, err := ConfineRelPath(root, "movie.mp4")
		require.NoError(t, err)
		assert.Equal(t, "movie.mp4", filepath.Base(path))
	})

	t.Run("nonexistent leaf allowed", func(t *testing.T) {
		path, err := ConfineRelPath(root, "new.mp4")
		require.NoError(t, err)
		assert.Equal(t, "new.mp4", filepath.Base(path))
	})

	t.Run("rejections", func(t *testing.T) {
		for _, target := range []string{
			"../escape.mp4",
			"..",
			"../../etc/passwd",
			"a/../../escape.mp4",
			"/etc/passwd",
			`a\b.mp4`,
		} {
			_, err := ConfineRelPath(root, target)
			assert.Error(t, err, target)
		}
	})
}

func TestConfineRelPathSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o600))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(root, "link")))

	_, err := ConfineRelPath(root, "link")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes root")
}

func TestConfineRelPathSymlinkInside(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.mp4"), []byte("x"), 0o600))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.mp4"), filepath.Join(root, "alias.mp4")))

	path, err := ConfineRelPath(root, "alias.mp4")
	require.NoError(t, err)
	assert.Equal(t, "real.mp4", filepath.Base(path), "symlinks resolve to the physical target")
}

func TestConfineRelPathMissingRoot(t *testing.T) {
	_, err := ConfineRelPath(filepath.Join(t.TempDir(), "does-not-exist"), "a.mp4")
	assert.Error(t, err)
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	assert.NoError(t, IsRegularFile(file))
	assert.Error(t, IsRegularFile(dir), "directories are not regular files")
	assert.Error(t, IsRegularFile(filepath.Join(dir, "missing")))
}
