// Package attachments validates images and documents before they can join a
// request. Rejected payloads never reach the pending list.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"finintel/internal/apperr"
	"finintel/internal/logging"
	"finintel/internal/types"
)

// MaxSize is the per-attachment ceiling in bytes (10 MiB).
const MaxSize = 10 << 20

// allowed reports whether the sniffed MIME type is accepted.
func allowed(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		t := m.String()
		switch {
		case strings.HasPrefix(t, "image/"),
			strings.HasPrefix(t, "text/"),
			strings.HasPrefix(t, "application/pdf"):
			return true
		}
	}
	return false
}

// Ingest validates raw bytes and wraps them as an Attachment.
func Ingest(name string, data []byte) (types.Attachment, error) {
	if len(data) == 0 {
		return types.Attachment{}, apperr.Validationf("%s is empty.", displayName(name))
	}
	if len(data) > MaxSize {
		return types.Attachment{}, tooLarge(name, int64(len(data)))
	}
	mime := mimetype.Detect(data)
	if !allowed(mime) {
		return types.Attachment{}, apperr.Validationf("%s has unsupported type %s. Attach an image, PDF or text file.",
			displayName(name), mime.String())
	}
	mimeType := strings.SplitN(mime.String(), ";", 2)[0]
	logging.Attachments("Attachment accepted: %s (%s, %d bytes)", name, mimeType, len(data))
	return types.NewAttachment(name, mimeType, data), nil
}

// LoadFile reads and ingests a file. The size ceiling is checked before reading.
func LoadFile(path string) (types.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Attachment{}, apperr.Validationf("Cannot read %s: %v", path, err)
	}
	if info.IsDir() {
		return types.Attachment{}, apperr.Validationf("%s is a directory.", path)
	}
	if info.Size() > MaxSize {
		return types.Attachment{}, tooLarge(path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Attachment{}, apperr.Validationf("Cannot read %s: %v", path, err)
	}
	return Ingest(filepath.Base(path), data)
}

func tooLarge(name string, size int64) *apperr.AppError {
	logging.Attachments("Attachment rejected: %s is %d bytes (max %d)", name, size, MaxSize)
	return apperr.Validationf("%s exceeds the 10 MiB attachment limit (%.1f MiB).",
		displayName(name), float64(size)/float64(1<<20))
}

func displayName(name string) string {
	if name == "" {
		return "Attachment"
	}
	return name
}

// =============================================================================
// MEDIA CAPTURE
// =============================================================================

// ErrPermissionDenied is returned by a Capturer when the device refuses access.
var ErrPermissionDenied = errors.New("media capture permission denied")

// Capturer produces one frame or document from a device such as a camera.
type Capturer interface {
	Capture(ctx context.Context) (name string, data []byte, err error)
}

// Capture runs c and ingests the result. A denied device maps to PERMISSIONS.
func Capture(ctx context.Context, c Capturer) (types.Attachment, error) {
	if c == nil {
		return types.Attachment{}, apperr.Permissions("No capture device is available.", nil)
	}
	name, data, err := c.Capture(ctx)
	if errors.Is(err, ErrPermissionDenied) {
		return types.Attachment{}, apperr.Permissions("Camera access was denied. Grant permission and try again.", err)
	}
	if err != nil {
		return types.Attachment{}, fmt.Errorf("capture failed: %w", err)
	}
	return Ingest(name, data)
}

// FileCapturer "captures" by reading a fixed path; used by the terminal
// client where no camera is available.
type FileCapturer struct {
	Path string
}

func (f FileCapturer) Capture(ctx context.Context) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrPermission) {
		return "", nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(f.Path), data, nil
}
