// Package media manages the local overlay media library: uploaded video,
// audio, and image files that overlay cues reference by URL.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/logger"
)

// Common errors
var (
	ErrUnsupportedFormat = errors.New("unsupported media format")
	ErrFileNotFound      = errors.New("media file not found")
)

// mimeByExtension maps supported extensions to the MIME types the content
// script uses to pick the overlay element (video, audio, img).
var mimeByExtension = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"wav":  "audio/wav",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// MIMEForExtension returns the MIME type for a file extension (without the
// leading dot), or "" when the extension is not a supported media format.
func MIMEForExtension(ext string) string {
	return mimeByExtension[strings.ToLower(ext)]
}

// StoredFile describes a file saved into the library.
type StoredFile struct {
	FileName string // name within the library directory
	MIME     string
	Size     int64
}

// Library is the on-disk overlay media store. Files are stored flat under
// the root, named by a fresh UUID plus the original extension, so uploads
// can never collide or traverse out of the root.
type Library struct {
	root    string
	formats map[string]struct{}
}

// NewLibrary creates the library, creating the root directory if needed.
// formats is the allowed extension whitelist, without leading dots.
func NewLibrary(root string, formats []string) (*Library, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media library directory: %w", err)
	}

	allowed := make(map[string]struct{}, len(formats))
	for _, f := range formats {
		allowed[strings.ToLower(strings.TrimPrefix(f, "."))] = struct{}{}
	}

	return &Library{root: root, formats: allowed}, nil
}

// Root returns the library directory.
func (l *Library) Root() string {
	return l.root
}

// Allowed reports whether the extension (without leading dot) is in the
// configured whitelist and has a known MIME type.
func (l *Library) Allowed(ext string) bool {
	ext = strings.ToLower(ext)
	if _, ok := l.formats[ext]; !ok {
		return false
	}
	return MIMEForExtension(ext) != ""
}

// Save stores an upload into the library and returns where it landed. The
// original name only contributes its extension; the stored name is always
// generated.
func (l *Library) Save(originalName string, src io.Reader) (StoredFile, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !l.Allowed(ext) {
		return StoredFile{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	fileName := uuid.New().String() + "." + ext
	path := filepath.Join(l.root, fileName)

	dst, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to create media file: %w", err)
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path) // nolint:errcheck // best-effort cleanup
		return StoredFile{}, fmt.Errorf("failed to write media file: %w", err)
	}

	logger.Log.Info().
		Str("file_name", fileName).
		Str("original_name", originalName).
		Int64("size", size).
		Msg("Media file stored")

	return StoredFile{
		FileName: fileName,
		MIME:     MIMEForExtension(ext),
		Size:     size,
	}, nil
}

// Path resolves a stored file name to its absolute path within the library.
// Names containing path separators are rejected outright.
func (l *Library) Path(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) {
		return "", fmt.Errorf("%w: invalid file name %q", ErrFileNotFound, fileName)
	}
	path := filepath.Join(l.root, fileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, fileName)
	}
	return path, nil
}

// Remove deletes a stored file. Missing files are not an error: the row may
// outlive the file after a manual cleanup.
func (l *Library) Remove(fileName string) error {
	if fileName == "" || fileName != filepath.Base(fileName) {
		return fmt.Errorf("%w: invalid file name %q", ErrFileNotFound, fileName)
	}
	if err := os.Remove(filepath.Join(l.root, fileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}
