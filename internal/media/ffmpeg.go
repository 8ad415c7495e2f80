// SPDX-License-Identifier: MIT

package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/cliptrim/internal/log"
)

const (
	// concatManifestName is the transient file the concat demuxer reads.
	concatManifestName = "concat_list.txt"
	// stderrTailLimit caps how much tool stderr is carried into errors.
	stderrTailLimit = 2000
)

// FFmpeg implements Tool by invoking the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	FFmpegBin  string
	FFprobeBin string
	logger     zerolog.Logger
}

// NewFFmpeg returns an FFmpeg tool using the given binary names or paths.
// Empty values fall back to the binaries on PATH.
func NewFFmpeg(ffmpegBin, ffprobeBin string) *FFmpeg {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &FFmpeg{
		FFmpegBin:  ffmpegBin,
		FFprobeBin: ffprobeBin,
		logger:     log.WithComponent("ffmpeg"),
	}
}

var _ Tool = (*FFmpeg)(nil)

// Available checks that both binaries can be resolved.
func (f *FFmpeg) Available(_ context.Context) error {
	for _, bin := range []string{f.FFmpegBin, f.FFprobeBin} {
		if strings.ContainsRune(bin, os.PathSeparator) {
			if _, err := os.Stat(bin); err != nil {
				return fmt.Errorf("%w: %s", ErrToolUnavailable, bin)
			}
			continue
		}
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %s", ErrToolUnavailable, bin)
		}
	}
	return nil
}

// Probe returns the container duration of path in seconds. It is read-only
// and never mutates the target.
func (f *FFmpeg) Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.FFprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	) // #nosec G204 -- binary comes from configuration, path from confined storage
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return 0, &ProbeError{Path: path, Stderr: stderrTail(stderr.String()), Err: err}
	}
	dur, err := parseProbeDuration(out)
	if err != nil {
		return 0, &ProbeError{Path: path, Err: err}
	}
	return dur, nil
}

// parseProbeDuration parses ffprobe's bare duration output.
func parseProbeDuration(out []byte) (float64, error) {
	raw := strings.TrimSpace(string(out))
	dur, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable duration %q: %w", raw, err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return dur, nil
}

// Extract stream-copies [start,end) of src into dest. The seek flag precedes
// the input flag so ffmpeg seeks on the demuxer, which is what keeps a
// stream-copy cut fast on large files.
func (f *FFmpeg) Extract(ctx context.Context, src string, start, end float64, dest string) error {
	if start < 0 || end <= start {
		return &ExtractionError{Source: src, Err: fmt.Errorf("invalid range [%f,%f)", start, end)}
	}
	args := []string{
		"-nostdin",
		"-ss", formatTimestamp(start),
		"-i", src,
		"-t", formatTimestamp(end - start),
		"-c", "copy",
		"-y",
		dest,
	}
	if stderr, err := f.run(ctx, args); err != nil {
		return &ExtractionError{Source: src, Stderr: stderr, Err: err}
	}
	f.logger.Debug().
		Str("event", "ffmpeg.extract").
		Str("src", src).
		Str("dest", dest).
		Float64("start", start).
		Float64("end", end).
		Msg("segment extracted")
	return nil
}

// Concat merges the ordered inputs into dest via the concat demuxer. The
// manifest is written next to the first input, inside the job workspace, and
// removed again before returning.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, dest string) error {
	if len(inputs) == 0 {
		return &ConcatenationError{Err: fmt.Errorf("no input files")}
	}
	manifest := filepath.Join(filepath.Dir(inputs[0]), concatManifestName)
	if err := writeConcatManifest(manifest, inputs); err != nil {
		return &ConcatenationError{Err: err}
	}
	defer os.Remove(manifest)

	args := []string{
		"-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		"-y",
		dest,
	}
	if stderr, err := f.run(ctx, args); err != nil {
		return &ConcatenationError{Stderr: stderr, Err: err}
	}
	f.logger.Debug().
		Str("event", "ffmpeg.concat").
		Int("inputs", len(inputs)).
		Str("dest", dest).
		Msg("segments concatenated")
	return nil
}

// run invokes ffmpeg and returns the stderr tail alongside any error.
func (f *FFmpeg) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, f.FFmpegBin, args...) // #nosec G204 -- binary comes from configuration
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stderrTail(stderr.String()), err
	}
	return "", nil
}

// writeConcatManifest writes the newline-delimited list of absolute input
// paths the concat demuxer consumes, in the given order.
func writeConcatManifest(path string, inputs []string) error {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", in, err)
		}
		// Single quotes inside the path must be closed, escaped and reopened
		// per the demuxer's quoting rules.
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// stderrTail keeps the last stderrTailLimit bytes of tool output.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTailLimit {
		return s
	}
	return "..." + s[len(s)-stderrTailLimit:]
}
