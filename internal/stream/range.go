// SPDX-License-Identifier: MIT

// Package stream implements the HTTP byte-range responder used for seeking
// and progressive playback of stored videos.
package stream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"

	"github.com/ManuGH/cliptrim/internal/log"
	"github.com/ManuGH/cliptrim/internal/metrics"
)

// ChunkSize is the fixed read size of the streaming loop. 128 KiB keeps
// per-request memory flat while staying large enough for smooth playback.
const ChunkSize = 128 * 1024

// ErrNotFound indicates the file to stream does not exist.
var ErrNotFound = errors.New("stream source not found")

// rangePattern matches the single-range form "bytes=<start>-<end>?". Anything
// else is deliberately treated as "no range" rather than rejected; clients
// then get the whole file with status 200 (lenient by design, see ParseRange).
var rangePattern = regexp.MustCompile(`bytes=(\d+)-(\d*)`)

// Window is the byte window served for one request.
type Window struct {
	Start int64
	End   int64
	Total int64
}

// Length returns the number of bytes the window covers.
func (w Window) Length() int64 {
	return w.End - w.Start + 1
}

// ContentRange renders the Content-Range header value for the window.
func (w Window) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, w.Total)
}

// ParseRange computes the serving window for a file of the given size. The
// returned bool reports whether the header matched; a missing or malformed
// header yields the whole file. A malformed-but-present header is NOT an
// error: the original behavior serves the full file with 200 instead of
// answering 416, and that leniency is preserved here.
func ParseRange(header string, size int64) (Window, bool) {
	w := Window{Start: 0, End: size - 1, Total: size}
	if header == "" {
		return w, false
	}
	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return w, false
	}
	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || start >= size {
		return w, false
	}
	w.Start = start
	if m[2] != "" {
		end, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil || end < start {
			return Window{Start: 0, End: size - 1, Total: size}, false
		}
		w.End = end
	}
	// A window reaching past EOF is clamped so Content-Length never
	// overstates the bytes actually served.
	if w.End > size-1 {
		w.End = size - 1
	}
	return w, true
}

// ServeFile streams path to the client, honoring a single-range Range header.
// It returns ErrNotFound before writing anything if path does not exist.
// Delivery is chunked: the loop reads at most ChunkSize bytes at a time and
// stops as soon as the window is exhausted, the source ends, or the client
// disconnects, so no file is ever buffered whole in memory.
func ServeFile(w http.ResponseWriter, r *http.Request, path, contentType string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	rangeHeader := r.Header.Get("Range")
	window, matched := ParseRange(rangeHeader, info.Size())

	f, err := os.Open(path) // #nosec G304 -- path resolved by the confined store
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if window.Start > 0 {
		if _, err := f.Seek(window.Start, io.SeekStart); err != nil {
			return fmt.Errorf("seek %s: %w", path, err)
		}
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(window.Length(), 10))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")

	mode := "full"
	status := http.StatusOK
	if matched {
		w.Header().Set("Content-Range", window.ContentRange())
		status = http.StatusPartialContent
		mode = "partial"
	} else if rangeHeader != "" {
		mode = "fallback"
	}
	metrics.IncRangeRequest(mode)
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return nil
	}

	sent := copyWindow(r, w, f, window.Length())
	metrics.AddStreamedBytes(sent)

	logger := log.WithComponentFromContext(r.Context(), "stream")
	logger.Debug().
		Str("event", "stream.served").
		Str("path", path).
		Str("mode", mode).
		Int64("offset", window.Start).
		Int64("sent", sent).
		Msg("stream finished")
	return nil
}

// copyWindow pushes up to remaining bytes from f to the client in fixed-size
// chunks. It checks the request context between chunks so a disconnected
// client stops the read loop promptly; transport-level backpressure applies
// through the blocking writes.
func copyWindow(r *http.Request, w http.ResponseWriter, f *os.File, remaining int64) int64 {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, ChunkSize)
	var sent int64

	for remaining > 0 {
		if r.Context().Err() != nil {
			break
		}
		chunk := int64(len(buf))
		if remaining < chunk {
			chunk = remaining
		}
		n, readErr := f.Read(buf[:chunk])
		if n > 0 {
			written, writeErr := w.Write(buf[:n])
			sent += int64(written)
			remaining -= int64(written)
			if writeErr != nil {
				// Client went away mid-stream; nothing to propagate.
				break
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			// io.EOF means the source is exhausted before the window;
			// either way the stream ends here.
			break
		}
	}
	return sent
}
