package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSinkPut(t *testing.T) {
	root := t.TempDir()
	sink := NewLocalSink(root)

	path, err := sink.Put(context.Background(), filepath.Join("nested", "dir", "a.jpg"), []byte("data"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "nested", "dir", "a.jpg"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestLocalSinkAbsoluteKey(t *testing.T) {
	dir := t.TempDir()
	sink := NewLocalSink("ignored-root")

	target := filepath.Join(dir, "b.png")
	path, err := sink.Put(context.Background(), target, []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, target, path)
}

func TestLocalSinkOverwrites(t *testing.T) {
	sink := &LocalSink{}
	target := filepath.Join(t.TempDir(), "c.png")

	_, err := sink.Put(context.Background(), target, []byte("first"), "")
	require.NoError(t, err)
	_, err = sink.Put(context.Background(), target, []byte("second"), "")
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestLocalSinkWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// A regular file where a directory is expected
	_, err := (&LocalSink{}).Put(context.Background(), filepath.Join(blocker, "out.jpg"), []byte("x"), "")
	assert.ErrorIs(t, err, ErrWrite)
}

func TestLocalSinkCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalSink(t.TempDir()).Put(ctx, "x.jpg", []byte("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("square", "shoes/red shoe.png")

	assert.True(t, strings.HasPrefix(key, "square/red shoe_"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, GenerateKey("square", "shoes/red shoe.png"))

	assert.True(t, strings.HasPrefix(GenerateKey("", ".jpg"), "image_"))
}
