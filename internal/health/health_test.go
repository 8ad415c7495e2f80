// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker struct {
	name   string
	result CheckResult
}

func (c staticChecker) Name() string                      { return c.name }
func (c staticChecker) Check(context.Context) CheckResult { return c.result }

func TestManagerAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no checkers", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins over degraded", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test")
			for i, s := range tt.statuses {
				m.RegisterChecker(staticChecker{name: string(rune('a' + i)), result: CheckResult{Status: s}})
			}
			overall, results := m.Check(context.Background())
			assert.Equal(t, tt.want, overall)
			assert.Len(t, results, len(tt.statuses))
		})
	}
}

func TestToolChecker(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		c := NewToolChecker("ffmpeg", func(context.Context) error { return nil })
		res := c.Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status)
	})

	t.Run("unavailable", func(t *testing.T) {
		c := NewToolChecker("ffmpeg", func(context.Context) error { return errors.New("not on PATH") })
		res := c.Check(context.Background())
		assert.Equal(t, StatusUnhealthy, res.Status)
		assert.Contains(t, res.Error, "not on PATH")
	})
}

func TestDirWritableChecker(t *testing.T) {
	t.Run("writable directory", func(t *testing.T) {
		c := NewDirWritableChecker("upload_dir", t.TempDir())
		res := c.Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status)
	})

	t.Run("missing directory", func(t *testing.T) {
		c := NewDirWritableChecker("upload_dir", filepath.Join(t.TempDir(), "gone"))
		res := c.Check(context.Background())
		assert.Equal(t, StatusUnhealthy, res.Status)
	})

	t.Run("probe file does not linger", func(t *testing.T) {
		dir := t.TempDir()
		c := NewDirWritableChecker("upload_dir", dir)
		_ = c.Check(context.Background())

		entries, err := filepath.Glob(filepath.Join(dir, ".healthcheck-*"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
