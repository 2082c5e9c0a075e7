package services

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangang/researchhub/internal/config"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	ThumbnailModeResize = "resize"
	ThumbnailModeCopy   = "copy"
)

// Thumbnailer derives a preview for an uploaded image and returns the
// generated file name inside dstDir.
type Thumbnailer interface {
	Thumbnail(srcPath, dstDir, name string) (string, error)
}

func NewThumbnailer(cfg *config.UploadConfig) Thumbnailer {
	if cfg.ThumbnailMode == ThumbnailModeCopy {
		return CopyThumbnailer{}
	}
	return ResizeThumbnailer{
		Width:   cfg.ThumbnailWidth,
		Height:  cfg.ThumbnailHeight,
		Quality: cfg.ThumbnailQuality,
	}
}

func thumbStem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "_thumb"
}

// CopyThumbnailer stores a byte copy of the original.
type CopyThumbnailer struct{}

func (CopyThumbnailer) Thumbnail(srcPath, dstDir, name string) (string, error) {
	thumbName := thumbStem(name) + strings.ToLower(filepath.Ext(name))

	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(dstDir, thumbName))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return thumbName, dst.Close()
}

// ResizeThumbnailer scales the image to fit a Width x Height box and
// writes a JPEG. Images already inside the box are not enlarged.
type ResizeThumbnailer struct {
	Width   int
	Height  int
	Quality int
}

func (t ResizeThumbnailer) Thumbnail(srcPath, dstDir, name string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	w, h := fitBox(src.Bounds().Dx(), src.Bounds().Dy(), t.Width, t.Height)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha channel
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", err
	}
	thumbName := thumbStem(name) + ".jpg"
	out, err := os.Create(filepath.Join(dstDir, thumbName))
	if err != nil {
		return "", err
	}

	quality := t.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: quality}); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	return thumbName, out.Close()
}

// fitBox returns the largest size with the source aspect ratio that fits
// maxW x maxH, never larger than the source.
func fitBox(srcW, srcH, maxW, maxH int) (int, int) {
	if maxW <= 0 {
		maxW = 300
	}
	if maxH <= 0 {
		maxH = 300
	}
	if srcW <= maxW && srcH <= maxH {
		return max(srcW, 1), max(srcH, 1)
	}
	w, h := maxW, srcH*maxW/srcW
	if h > maxH {
		w, h = srcW*maxH/srcH, maxH
	}
	return max(w, 1), max(h, 1)
}
