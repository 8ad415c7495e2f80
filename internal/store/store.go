// SPDX-License-Identifier: MIT

// Package store owns the two disjoint on-disk asset areas: uploaded sources
// and trim outputs. All client-supplied names are confined to their area.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ManuGH/cliptrim/internal/fsutil"
)

// ErrNotFound indicates the named asset does not exist in its area.
var ErrNotFound = errors.New("asset not found")

// ErrInvalidName indicates a client-supplied filename was rejected.
var ErrInvalidName = errors.New("invalid filename")

// allowedExtensions is the upload container allowlist.
var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
}

// contentTypes maps known container extensions to their MIME type. Unknown
// extensions default to video/mp4.
var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".flv":  "video/x-flv",
}

// FileInfo describes one stored asset.
type FileInfo struct {
	Name string
	Size int64
	Path string
}

// Store resolves, saves, lists and deletes assets in the upload and output
// areas. It keeps no state beyond the two directory paths; every call reads
// the filesystem directly.
type Store struct {
	uploadDir string
	outputDir string
}

// New returns a Store over the given upload and output directories.
func New(uploadDir, outputDir string) *Store {
	return &Store{uploadDir: uploadDir, outputDir: outputDir}
}

// AllowedExtension reports whether name carries an accepted container suffix.
func AllowedExtension(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// AllowedExtensions returns the accepted suffixes for error messages.
func AllowedExtensions() []string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ContentType returns the MIME type for name's extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "video/mp4"
}

// cleanName validates a client-supplied filename: it must be a bare name
// without separators or traversal components.
func cleanName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// UploadPath resolves name inside the upload area, requiring it to exist.
func (s *Store) UploadPath(name string) (string, error) {
	return s.resolve(s.uploadDir, name)
}

// OutputPath resolves name inside the output area, requiring it to exist.
func (s *Store) OutputPath(name string) (string, error) {
	return s.resolve(s.outputDir, name)
}

func (s *Store) resolve(root, name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	path, err := fsutil.ConfineRelPath(root, clean)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := fsutil.IsRegularFile(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// SaveUpload streams r into the upload area under name and returns the
// stored file's info. An existing file of the same name is overwritten.
func (s *Store) SaveUpload(name string, r io.Reader) (FileInfo, error) {
	clean, err := cleanName(name)
	if err != nil {
		return FileInfo{}, err
	}
	path, err := fsutil.ConfineRelPath(s.uploadDir, clean)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640) // #nosec G304 -- path confined above
	if err != nil {
		return FileInfo{}, fmt.Errorf("create upload file: %w", err)
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(path)
		return FileInfo{}, fmt.Errorf("write upload file: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(path)
		return FileInfo{}, fmt.Errorf("close upload file: %w", closeErr)
	}
	return FileInfo{Name: clean, Size: size, Path: path}, nil
}

// ListUploads returns every regular file in the upload area, sorted by name.
func (s *Store) ListUploads() ([]FileInfo, error) {
	return listArea(s.uploadDir)
}

// ListOutputs returns every regular file in the output area, sorted by name.
func (s *Store) ListOutputs() ([]FileInfo, error) {
	return listArea(s.outputDir)
}

func listArea(root string) ([]FileInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", root, err)
	}
	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		infos = append(infos, FileInfo{
			Name: entry.Name(),
			Size: fi.Size(),
			Path: filepath.Join(root, entry.Name()),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DeleteUpload removes name from the upload area.
func (s *Store) DeleteUpload(name string) error {
	return s.delete(s.uploadDir, name)
}

// DeleteOutput removes name from the output area.
func (s *Store) DeleteOutput(name string) error {
	return s.delete(s.outputDir, name)
}

func (s *Store) delete(root, name string) error {
	path, err := s.resolve(root, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// OutputDir exposes the output area root for the trim pipeline to commit into.
func (s *Store) OutputDir() string {
	return s.outputDir
}
