package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.tif", "f.bmp", "g.gif"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.txt", "noext", "archive.tar.gz"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		input, dir, suffix, ext, expected string
	}{
		{"photos/shoe.png", "cropped_images", "_cropped", "", filepath.Join("cropped_images", "shoe_cropped.png")},
		{"shoe.JPG", "out", "_cropped", "", filepath.Join("out", "shoe_cropped.JPG")},
		{"shoe", "out", "_sq", "", filepath.Join("out", "shoe_sq.jpg")},
		{"shoe.png", "out", "", ".webp", filepath.Join("out", "shoe.webp")},
		{"shoe.png", "", "_cropped", "jpg", "shoe_cropped.jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GenerateOutputFilename(tt.input, tt.dir, tt.suffix, tt.ext))
	}
}

func TestListImageFilesAndExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt", filepath.Join("sub", "c.webp")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "sub", "c.webp"),
	}, files)

	expanded, err := ExpandInputs([]string{"missing.jpg", dir})
	require.NoError(t, err)
	assert.Equal(t, "missing.jpg", expanded[0])
	assert.Len(t, expanded, 4)
}

func TestEnsureDirAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir), "second call is a no-op")
	assert.True(t, DirExists(dir))
	assert.False(t, FileExists(dir))

	file := filepath.Join(dir, "f.png")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.png")))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c.png", SanitizeFilename(" a/b:c.png "))
	assert.Equal(t, "report", SanitizeFilename("..report.."))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
