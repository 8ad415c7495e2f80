// SPDX-License-Identifier: MIT

// Package media models the external media tool as a narrow capability
// interface so the trim pipeline can be exercised without a real binary.
package media

import (
	"context"
	"errors"
	"fmt"
)

// Tool is the capability surface the core needs from the external media tool:
// metadata probing, stream-copy range extraction and stream-copy concatenation.
type Tool interface {
	// Available reports whether the tool can be invoked at all.
	Available(ctx context.Context) error
	// Probe returns the duration of the media file at path, in seconds.
	Probe(ctx context.Context, path string) (float64, error)
	// Extract cuts [start,end) seconds from src into dest using stream-copy,
	// overwriting dest unconditionally. Requires 0 <= start < end.
	Extract(ctx context.Context, src string, start, end float64, dest string) error
	// Concat merges the ordered inputs into dest using the concat demuxer in
	// stream-copy mode. All inputs must share a compatible codec/container.
	Concat(ctx context.Context, inputs []string, dest string) error
}

// ErrToolUnavailable indicates the external media tool binary is missing.
var ErrToolUnavailable = errors.New("media tool unavailable")

// ProbeError indicates a failed metadata probe.
type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("probe %s: %v: %s", e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ExtractionError indicates the tool failed while cutting a segment. Stderr
// carries the tool's diagnostics for the response body.
type ExtractionError struct {
	Source string
	Stderr string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("extract from %s: %v: %s", e.Source, e.Err, e.Stderr)
	}
	return fmt.Sprintf("extract from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConcatenationError indicates the tool failed while merging segments.
type ConcatenationError struct {
	Stderr string
	Err    error
}

func (e *ConcatenationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("concatenate segments: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("concatenate segments: %v", e.Err)
}

func (e *ConcatenationError) Unwrap() error { return e.Err }
