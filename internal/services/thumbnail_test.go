package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangang/researchhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitBox(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"landscape", 600, 400, 300, 300, 300, 200},
		{"portrait", 400, 800, 300, 300, 150, 300},
		{"square", 1000, 1000, 300, 300, 300, 300},
		{"already small", 120, 80, 300, 300, 120, 80},
		{"defaults", 900, 300, 0, 0, 300, 100},
		{"thin strip", 3000, 1, 300, 300, 300, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitBox(tt.srcW, tt.srcH, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestNewThumbnailer(t *testing.T) {
	cfg := config.DefaultConfig().Upload
	assert.IsType(t, ResizeThumbnailer{}, NewThumbnailer(&cfg))

	cfg.ThumbnailMode = ThumbnailModeCopy
	assert.IsType(t, CopyThumbnailer{}, NewThumbnailer(&cfg))
}

func TestCopyThumbnailer(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "files-1-2.GIF")
	require.NoError(t, os.WriteFile(src, []byte("GIF89a"), 0644))

	name, err := CopyThumbnailer{}.Thumbnail(src, filepath.Join(dir, "thumbs"), "files-1-2.GIF")
	require.NoError(t, err)
	assert.Equal(t, "files-1-2_thumb.gif", name)

	data, err := os.ReadFile(filepath.Join(dir, "thumbs", name))
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))
}

func TestResizeThumbnailer_RejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fake.png")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0644))

	_, err := ResizeThumbnailer{Width: 300, Height: 300}.Thumbnail(src, dir, "fake.png")
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "fake_thumb.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}
