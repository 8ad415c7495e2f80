// SPDX-License-Identifier: MIT

// Package trim orchestrates segment extraction and concatenation into a
// single output file with all-or-nothing semantics.
package trim

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/cliptrim/internal/log"
	"github.com/ManuGH/cliptrim/internal/media"
	"github.com/ManuGH/cliptrim/internal/metrics"
)

// outputSuffix is appended to the source stem to derive the output name.
// Repeated trims of the same source overwrite the previous output.
const outputSuffix = "_trimmed.mp4"

// durationSlack tolerates encoder-boundary imprecision when checking a
// segment end against the probed source duration.
const durationSlack = 0.5

// Segment is a closed-open time interval [Start,End) in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ValidationError marks a rejected trim request (bad segment bounds).
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Result describes the committed output of a successful trim job.
type Result struct {
	OutputName string
	OutputPath string
	Size       int64
	Segments   int
}

// Pipeline runs trim jobs. Each job gets its own workspace subdirectory
// under workRoot so concurrent jobs never share temp state; a semaphore
// additionally bounds how many jobs run at once.
type Pipeline struct {
	tool      media.Tool
	workRoot  string
	outputDir string
	timeout   time.Duration
	sem       chan struct{}
}

// New returns a Pipeline writing outputs into outputDir and workspaces under
// workRoot. concurrency bounds simultaneous jobs and must be at least 1.
func New(tool media.Tool, workRoot, outputDir string, concurrency int, timeout time.Duration) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		tool:      tool,
		workRoot:  workRoot,
		outputDir: outputDir,
		timeout:   timeout,
		sem:       make(chan struct{}, concurrency),
	}
}

// Trim extracts every segment of sourcePath in request order and merges them
// into a single output file. Any failure aborts the whole job: the workspace
// is removed and no partial output ever becomes visible in the output area.
func (p *Pipeline) Trim(ctx context.Context, sourcePath string, segments []Segment) (*Result, error) {
	if len(segments) == 0 {
		return nil, validationf("no segments provided")
	}

	jobID := uuid.NewString()
	ctx = log.ContextWithJobID(ctx, jobID)
	logger := log.WithComponentFromContext(ctx, "trim")

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// Validate the whole request before any extraction begins. The probed
	// duration bounds every segment end; ordering and overlap stay
	// unconstrained on purpose, request order defines output order.
	duration, err := p.tool.Probe(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	for i, seg := range segments {
		if seg.Start < 0 || seg.End <= seg.Start {
			metrics.ObserveTrim("validation", len(segments), 0)
			return nil, validationf("segment %d: start must satisfy 0 <= start < end, got [%g,%g)", i, seg.Start, seg.End)
		}
		if seg.End > duration+durationSlack {
			metrics.ObserveTrim("validation", len(segments), 0)
			return nil, validationf("segment %d: end %gs exceeds source duration %.3fs", i, seg.End, duration)
		}
	}

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	started := time.Now()
	result, err := p.run(ctx, logger, sourcePath, segments)
	if err != nil {
		metrics.ObserveTrim("failure", len(segments), time.Since(started))
		return nil, err
	}
	metrics.ObserveTrim("success", len(segments), time.Since(started))

	logger.Info().
		Str("event", "trim.completed").
		Str("source", filepath.Base(sourcePath)).
		Str("output", result.OutputName).
		Int("segments", result.Segments).
		Int64("size", result.Size).
		Dur("elapsed", time.Since(started)).
		Msg("trim job completed")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, logger zerolog.Logger, sourcePath string, segments []Segment) (*Result, error) {
	workspace := filepath.Join(p.workRoot, "job-"+log.JobIDFromContext(ctx))
	if err := os.MkdirAll(workspace, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	// The workspace is removed on every exit path so no job's temp state
	// leaks into the next one.
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Warn().Err(err).Str("workspace", workspace).Msg("failed to purge workspace")
		}
	}()

	// Zero-padded index names keep lexical order equal to request order, but
	// the ordered slice below is what actually drives concatenation.
	extracted := make([]string, 0, len(segments))
	for i, seg := range segments {
		dest := filepath.Join(workspace, fmt.Sprintf("segment_%03d.mp4", i))
		if err := p.tool.Extract(ctx, sourcePath, seg.Start, seg.End, dest); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		extracted = append(extracted, dest)
	}

	outputName := outputName(sourcePath)
	outputPath := filepath.Join(p.outputDir, outputName)

	if len(extracted) == 1 {
		// Single segment: the extracted file is the output, committed as a
		// byte copy without another encode pass.
		if err := commitCopy(extracted[0], outputPath); err != nil {
			return nil, fmt.Errorf("commit output: %w", err)
		}
	} else {
		// Merge inside the workspace first, then move the finished file into
		// the output area so a failed concat never becomes visible.
		merged := filepath.Join(workspace, "merged.mp4")
		if err := p.tool.Concat(ctx, extracted, merged); err != nil {
			return nil, err
		}
		if err := commitRename(merged, outputPath); err != nil {
			return nil, fmt.Errorf("commit output: %w", err)
		}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}
	return &Result{
		OutputName: outputName,
		OutputPath: outputPath,
		Size:       info.Size(),
		Segments:   len(segments),
	}, nil
}

// outputName derives the deterministic output filename from the source stem.
func outputName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + outputSuffix
}

// commitCopy copies src into dest atomically: bytes land in a pending temp
// file that replaces dest only after a complete, synced write.
func commitCopy(src, dest string) error {
	in, err := os.Open(src) // #nosec G304 -- src lives in the job workspace
	if err != nil {
		return err
	}
	defer in.Close()

	pending, err := renameio.NewPendingFile(dest)
	if err != nil {
		return err
	}
	defer pending.Cleanup() //nolint:errcheck

	if _, err := io.Copy(pending, in); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}

// commitRename moves a finished workspace file into the output area. The
// workspace lives on the same filesystem as the output area, so the rename
// is atomic.
func commitRename(src, dest string) error {
	return os.Rename(src, dest)
}
