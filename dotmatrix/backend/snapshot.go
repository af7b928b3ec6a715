package backend

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// FrameImage converts a frame to an image.
func FrameImage(frame *video.FrameBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := range video.FramebufferHeight {
		for x := range video.FramebufferWidth {
			img.SetRGBA(x, y, rgba(frame.GetPixel(uint(x), uint(y))))
		}
	}
	return img
}

// rgba unpacks a 0xAARRGGBB pixel.
func rgba(pixel uint32) color.RGBA {
	return color.RGBA{
		A: uint8(pixel >> 24),
		R: uint8(pixel >> 16),
		G: uint8(pixel >> 8),
		B: uint8(pixel),
	}
}

// SaveFramePNG writes frame as <dir>/<name>.png and returns the path.
// An empty dir means the working directory.
func SaveFramePNG(frame *video.FrameBuffer, dir, name string) (string, error) {
	path := filepath.Join(dir, name+".png")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, FrameImage(frame)); err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	slog.Info("Snapshot saved", "path", path)
	return path, nil
}
