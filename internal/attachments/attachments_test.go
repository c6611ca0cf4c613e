package attachments

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finintel/internal/apperr"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestIngestAcceptsSupportedTypes(t *testing.T) {
	img, err := Ingest("chart.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, "chart.png", img.Name)

	pdf, err := Ingest("10k.pdf", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.MIMEType)

	txt, err := Ingest("notes.txt", []byte("AAPL 190 support\n"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", txt.MIMEType)
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	zip := []byte{'P', 'K', 0x03, 0x04, 0x14, 0, 0, 0, 0, 0}
	_, err := Ingest("archive.zip", zip)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestIngestRejectsOversize(t *testing.T) {
	big := append(append([]byte(nil), pngHeader...), bytes.Repeat([]byte{0}, MaxSize)...)
	_, err := Ingest("huge.png", big)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryValidation, ae.Category)
	assert.Contains(t, ae.Message, "10 MiB")
}

func TestLoadFileChecksSizeBeforeReading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxSize+1))
	require.NoError(t, f.Close())

	_, err = LoadFile(path)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	a, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "chart.png", a.Name)
	raw, err := a.Decode()
	require.NoError(t, err)
	assert.Equal(t, pngHeader, raw)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

type stubCapturer struct {
	name string
	data []byte
	err  error
}

func (s stubCapturer) Capture(context.Context) (string, []byte, error) {
	return s.name, s.data, s.err
}

func TestCapturePermissionDenied(t *testing.T) {
	_, err := Capture(context.Background(), stubCapturer{err: ErrPermissionDenied})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryPermissions, ae.Category)
	assert.False(t, ae.Retryable)

	_, err = Capture(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrPermissions)
}

func TestCaptureIngests(t *testing.T) {
	a, err := Capture(context.Background(), stubCapturer{name: "frame.png", data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.MIMEType)

	_, err = Capture(context.Background(), stubCapturer{err: errors.New("usb reset")})
	require.Error(t, err)
	_, isApp := apperr.As(err)
	assert.False(t, isApp)
}
