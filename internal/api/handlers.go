// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/cliptrim/internal/health"
	"github.com/ManuGH/cliptrim/internal/log"
	"github.com/ManuGH/cliptrim/internal/metrics"
	"github.com/ManuGH/cliptrim/internal/store"
	"github.com/ManuGH/cliptrim/internal/stream"
	"github.com/ManuGH/cliptrim/internal/trim"
)

// VideoInfo is the asset shape returned by upload and listing.
type VideoInfo struct {
	Filename string  `json:"filename"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

// TrimRequest is the POST /api/trim body.
type TrimRequest struct {
	VideoFilename string         `json:"video_filename"`
	Segments      []trim.Segment `json:"segments"`
}

// TrimResponse is the POST /api/trim success body.
type TrimResponse struct {
	Success        bool   `json:"success"`
	OutputFilename string `json:"output_filename"`
	OutputURL      string `json:"output_url"`
	OutputSize     int64  `json:"output_size"`
	SegmentsCount  int    `json:"segments_count"`
}

func uploadStreamURL(name string) string {
	return "/api/stream/uploads/" + url.PathEscape(name)
}

func outputStreamURL(name string) string {
	return "/api/stream/output/" + url.PathEscape(name)
}

// handleHealth reports liveness plus whether the external tool is usable.
// The response is always 200; ffmpeg_available carries the actual signal.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	available := s.tool.Available(r.Context()) == nil

	resp := map[string]any{
		"status":           "healthy",
		"ffmpeg_available": available,
	}
	if r.URL.Query().Get("verbose") == "true" {
		status, checks := s.health.Check(r.Context())
		resp["status"] = status
		resp["checks"] = checks
		resp["version"] = s.health.Version()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReady reports readiness: storage areas writable and tool present.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, checks := s.health.Check(r.Context())
	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"ready":  status != health.StatusUnhealthy,
		"status": status,
		"checks": checks,
	})
}

// handleUpload accepts one multipart video file, stores it and probes its
// duration. A failed probe deletes the just-written file again so broken
// uploads never linger in the upload area.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	if err := s.tool.Available(r.Context()); err != nil {
		metrics.IncUpload("failed")
		writeErrorFor(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	part, err := firstFilePart(r)
	if err != nil {
		metrics.IncUpload("rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer part.Close()

	name := part.FileName()
	if !store.AllowedExtension(name) {
		metrics.IncUpload("rejected")
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid file type %q, allowed: %s", name, strings.Join(store.AllowedExtensions(), ", ")))
		return
	}

	info, err := s.store.SaveUpload(name, part)
	if err != nil {
		metrics.IncUpload("failed")
		writeErrorFor(w, err)
		return
	}

	probeCtx, cancel := context.WithTimeout(r.Context(), s.cfg.ProbeTimeout)
	defer cancel()
	duration, err := s.tool.Probe(probeCtx, info.Path)
	if err != nil {
		// The stored bytes are useless without a readable duration.
		if delErr := s.store.DeleteUpload(info.Name); delErr != nil {
			logger.Warn().Err(delErr).Str("filename", info.Name).Msg("failed to remove unreadable upload")
		}
		metrics.IncUpload("failed")
		writeErrorFor(w, err)
		return
	}

	metrics.IncUpload("accepted")
	metrics.AddUploadBytes(info.Size)
	logger.Info().
		Str("event", "upload.accepted").
		Str("filename", info.Name).
		Int64("size", info.Size).
		Float64("duration", duration).
		Msg("video uploaded")

	writeJSON(w, http.StatusOK, VideoInfo{
		Filename: info.Name,
		Size:     info.Size,
		Duration: duration,
		URL:      uploadStreamURL(info.Name),
	})
}

// firstFilePart returns the first "file" part of the multipart body.
func firstFilePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("expected multipart upload: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New("multipart body carries no file field")
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart body: %w", err)
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

// handleListVideos lists the upload area. Files whose probe fails are
// excluded per item rather than failing the whole listing; each skip is
// logged and counted so the degradation stays visible.
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	files, err := s.store.ListUploads()
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	// Each goroutine writes only its own index, so the slice needs no lock.
	results := make([]*VideoInfo, len(files))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.ProbeConcurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
			defer cancel()
			duration, err := s.tool.Probe(probeCtx, f.Path)
			if err != nil {
				metrics.IncListProbeSkip()
				logger.Warn().
					Err(err).
					Str("event", "list.probe_skipped").
					Str("filename", f.Name).
					Msg("excluding unreadable file from listing")
				return nil
			}
			results[i] = &VideoInfo{
				Filename: f.Name,
				Size:     f.Size,
				Duration: duration,
				URL:      uploadStreamURL(f.Name),
			}
			return nil
		})
	}
	_ = g.Wait()

	videos := make([]VideoInfo, 0, len(files))
	for _, v := range results {
		if v != nil {
			videos = append(videos, *v)
		}
	}
	writeJSON(w, http.StatusOK, videos)
}

// handleTrim runs the extract/concat pipeline for one request.
func (s *Server) handleTrim(w http.ResponseWriter, r *http.Request) {
	var req TrimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Segments) == 0 {
		writeError(w, http.StatusBadRequest, "no segments provided")
		return
	}

	sourcePath, err := s.store.UploadPath(req.VideoFilename)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if err := s.tool.Available(r.Context()); err != nil {
		writeErrorFor(w, err)
		return
	}

	result, err := s.pipeline.Trim(r.Context(), sourcePath, req.Segments)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TrimResponse{
		Success:        true,
		OutputFilename: result.OutputName,
		OutputURL:      outputStreamURL(result.OutputName),
		OutputSize:     result.Size,
		SegmentsCount:  result.Segments,
	})
}

// filenameParam extracts and screens the {filename} route parameter.
func filenameParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "filename")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	if isPathTraversal(name) {
		return "", fmt.Errorf("%w: %q", store.ErrInvalidName, name)
	}
	return name, nil
}

// handleStreamUpload serves a stored source video with range support.
func (s *Server) handleStreamUpload(w http.ResponseWriter, r *http.Request) {
	name, err := filenameParam(r)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	path, err := s.store.UploadPath(name)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	s.serveStream(w, r, path, store.ContentType(name))
}

// handleStreamOutput serves a trim output with range support.
func (s *Server) handleStreamOutput(w http.ResponseWriter, r *http.Request) {
	name, err := filenameParam(r)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	path, err := s.store.OutputPath(name)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	s.serveStream(w, r, path, "video/mp4")
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, path, contentType string) {
	if err := stream.ServeFile(w, r, path, contentType); err != nil {
		if errors.Is(err, stream.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		// Headers may already be gone; log instead of double-writing.
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("path", path).
			Msg("streaming failed")
	}
}

// handleDownloadOutput serves a trim output as an attachment download.
func (s *Server) handleDownloadOutput(w http.ResponseWriter, r *http.Request) {
	name, err := filenameParam(r)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	path, err := s.store.OutputPath(name)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	f, err := os.Open(path) // #nosec G304 -- path resolved by the confined store
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stat output file")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	// ServeContent handles Range requests and Content-Length for the download.
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// handleDeleteVideo removes an uploaded source video.
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	s.deleteAsset(w, r, s.store.DeleteUpload)
}

// handleDeleteOutput removes a trim output.
func (s *Server) handleDeleteOutput(w http.ResponseWriter, r *http.Request) {
	s.deleteAsset(w, r, s.store.DeleteOutput)
}

func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request, del func(string) error) {
	name, err := filenameParam(r)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if err := del(name); err != nil {
		writeErrorFor(w, err)
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str("event", "asset.deleted").
		Str("filename", name).
		Msg("asset deleted")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Deleted " + name,
	})
}
