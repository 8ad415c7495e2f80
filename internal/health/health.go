// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness checks for the daemon.
package health

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Status represents the overall health/readiness status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Checker defines the interface for component health checks.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager aggregates registered checkers into an overall status.
type Manager struct {
	version  string
	checkers []Checker
}

// NewManager creates a health check manager.
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds a health checker to the manager.
func (m *Manager) RegisterChecker(c Checker) {
	m.checkers = append(m.checkers, c)
}

// Version returns the build version reported in health responses.
func (m *Manager) Version() string { return m.version }

// Check runs every registered checker and returns the per-component results
// with the aggregated status.
func (m *Manager) Check(ctx context.Context) (Status, map[string]CheckResult) {
	overall := StatusHealthy
	results := make(map[string]CheckResult, len(m.checkers))
	for _, c := range m.checkers {
		res := c.Check(ctx)
		results[c.Name()] = res
		switch res.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}
	return overall, results
}

// ToolChecker adapts an availability probe (like the ffmpeg check) into a
// Checker.
type ToolChecker struct {
	name  string
	probe func(ctx context.Context) error
}

// NewToolChecker creates a checker from an availability probe function.
func NewToolChecker(name string, probe func(ctx context.Context) error) *ToolChecker {
	return &ToolChecker{name: name, probe: probe}
}

func (c *ToolChecker) Name() string { return c.name }

func (c *ToolChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.probe(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "tool available"}
}

// DirWritableChecker verifies a storage directory exists and accepts writes.
type DirWritableChecker struct {
	name string
	dir  string
}

// NewDirWritableChecker creates a checker for a storage directory.
func NewDirWritableChecker(name, dir string) *DirWritableChecker {
	return &DirWritableChecker{name: name, dir: dir}
}

func (c *DirWritableChecker) Name() string { return c.name }

func (c *DirWritableChecker) Check(_ context.Context) CheckResult {
	info, err := os.Stat(c.dir)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "not a directory", Message: c.dir}
	}
	// A real write is the only reliable permission check across platforms.
	probe := filepath.Join(c.dir, ".healthcheck-"+uuid.NewString())
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.dir}
	}
	_ = os.Remove(probe)
	return CheckResult{Status: StatusHealthy, Message: "directory writable"}
}
