package upload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestStorePNG(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, 5)

	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 100)...)
	result, err := svc.Store(context.Background(), "products", bytes.NewReader(payload), int64(len(payload)))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/uploads/products/"))
	assert.True(t, strings.HasSuffix(result.Filename, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, "products", result.Filename))
	assert.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestStoreRejectsNonImage(t *testing.T) {
	svc := NewService(t.TempDir(), 5)

	_, err := svc.Store(context.Background(), "products", strings.NewReader("plain text content"), 18)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestStoreRejectsOversize(t *testing.T) {
	svc := NewService(t.TempDir(), 1)

	_, err := svc.Store(context.Background(), "products", bytes.NewReader(pngHeader), 2<<20)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestStoreRejectsUnknownKind(t *testing.T) {
	svc := NewService(t.TempDir(), 5)

	_, err := svc.Store(context.Background(), "../etc", bytes.NewReader(pngHeader), 8)
	assert.ErrorIs(t, err, ErrInvalidKind)
}
