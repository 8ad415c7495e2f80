// SPDX-License-Identifier: MIT

// Package config loads the daemon configuration from environment variables
// with precedence ENV > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AppConfig holds the full runtime configuration of the daemon.
type AppConfig struct {
	// ListenAddr is the HTTP listen address, e.g. ":8000".
	ListenAddr string

	// DataDir is the root under which the storage areas live.
	DataDir string
	// UploadDir and OutputDir are the two disjoint asset areas.
	UploadDir string
	OutputDir string
	// WorkDir holds the per-job transient trim workspaces.
	WorkDir string

	// FFmpegBin and FFprobeBin name the external tool binaries.
	FFmpegBin  string
	FFprobeBin string

	// MaxUploadBytes caps the size of a single multipart upload.
	MaxUploadBytes int64
	// TrimConcurrency bounds the number of trim jobs running at once.
	TrimConcurrency int
	// ProbeConcurrency bounds parallel ffprobe calls during listing.
	ProbeConcurrency int
	// ProbeTimeout and TrimTimeout bound single tool invocations.
	ProbeTimeout time.Duration
	TrimTimeout  time.Duration

	// AllowedOrigins is the CORS allowlist (empty means dev defaults).
	AllowedOrigins []string
	// RateLimitRPM is the per-IP request budget per minute (0 disables).
	RateLimitRPM int

	LogLevel string
	Version  string
}

// FromEnv builds an AppConfig from CLIPTRIM_* environment variables.
func FromEnv(version string) AppConfig {
	dataDir := ParseString("CLIPTRIM_DATA", "./data")
	cfg := AppConfig{
		ListenAddr:       ParseString("CLIPTRIM_LISTEN", ":8000"),
		DataDir:          dataDir,
		UploadDir:        ParseString("CLIPTRIM_UPLOAD_DIR", filepath.Join(dataDir, "uploads")),
		OutputDir:        ParseString("CLIPTRIM_OUTPUT_DIR", filepath.Join(dataDir, "output")),
		WorkDir:          ParseString("CLIPTRIM_WORK_DIR", filepath.Join(dataDir, "work")),
		FFmpegBin:        ParseString("CLIPTRIM_FFMPEG", "ffmpeg"),
		FFprobeBin:       ParseString("CLIPTRIM_FFPROBE", "ffprobe"),
		MaxUploadBytes:   ParseInt64("CLIPTRIM_MAX_UPLOAD_BYTES", 4<<30),
		TrimConcurrency:  ParseInt("CLIPTRIM_TRIM_CONCURRENCY", 2),
		ProbeConcurrency: ParseInt("CLIPTRIM_PROBE_CONCURRENCY", 4),
		ProbeTimeout:     ParseDuration("CLIPTRIM_PROBE_TIMEOUT", 30*time.Second),
		TrimTimeout:      ParseDuration("CLIPTRIM_TRIM_TIMEOUT", 30*time.Minute),
		RateLimitRPM:     ParseInt("CLIPTRIM_RATE_LIMIT_RPM", 600),
		LogLevel:         ParseString("CLIPTRIM_LOG_LEVEL", "info"),
		Version:          version,
	}
	if raw := ParseString("CLIPTRIM_ALLOWED_ORIGINS", ""); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, p)
			}
		}
	}
	return cfg
}

// Validate rejects configurations the daemon cannot safely run with.
func (c AppConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.UploadDir == "" || c.OutputDir == "" || c.WorkDir == "" {
		return fmt.Errorf("upload, output and work directories must all be set")
	}
	if c.UploadDir == c.OutputDir {
		return fmt.Errorf("upload and output directories must be disjoint")
	}
	if c.TrimConcurrency < 1 {
		return fmt.Errorf("trim concurrency must be at least 1, got %d", c.TrimConcurrency)
	}
	if c.ProbeConcurrency < 1 {
		return fmt.Errorf("probe concurrency must be at least 1, got %d", c.ProbeConcurrency)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// EnsureDirs creates the storage areas if they do not exist yet.
func (c AppConfig) EnsureDirs() error {
	for _, dir := range []string{c.UploadDir, c.OutputDir, c.WorkDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
