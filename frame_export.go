package stagecraft

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// FrameImage copies the pixels of a frame into a new image of the frame's
// untrimmed size. Trimmed areas are transparent and rotated frames are
// turned upright.
func (tm *TextureManager) FrameImage(key, frame string) (*image.NRGBA, error) {
	f := tm.GetFrame(key, frame)
	if f == nil {
		return nil, fmt.Errorf("stagecraft: no texture %q", key)
	}
	if f.source == nil || f.source.Image == nil {
		return nil, fmt.Errorf("stagecraft: frame %q of %q has no source image", f.Name, key)
	}

	out := image.NewNRGBA(image.Rect(0, 0, f.RealWidth(), f.RealHeight()))
	src := f.source.Image
	min := src.Bounds().Min

	if !f.Rotated {
		dst := image.Rect(f.X, f.Y, f.X+f.CutWidth, f.Y+f.CutHeight)
		draw.Draw(out, dst, src, image.Pt(min.X+f.CutX, min.Y+f.CutY), draw.Src)
		return out, nil
	}

	// Rotated frames are stored 90° clockwise: the sheet region is
	// CutHeight wide and CutWidth tall.
	for y := 0; y < f.CutHeight; y++ {
		for x := 0; x < f.CutWidth; x++ {
			sx := min.X + f.CutX + (f.CutHeight - 1 - y)
			sy := min.Y + f.CutY + x
			out.Set(f.X+x, f.Y+y, src.At(sx, sy))
		}
	}
	return out, nil
}

// ExportFrame writes a frame as PNG to w.
func (tm *TextureManager) ExportFrame(w io.Writer, key, frame string) error {
	img, err := tm.FrameImage(key, frame)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("stagecraft: encode frame %q: %w", frame, err)
	}
	return nil
}

// ExportFrames writes every frame of a texture, except the base frame, as
// PNG files into dir and returns the paths written.
func (tm *TextureManager) ExportFrames(dir, key string) ([]string, error) {
	t, ok := tm.list[key]
	if !ok {
		return nil, fmt.Errorf("stagecraft: no texture %q", key)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("stagecraft: mkdir %s: %w", dir, err)
	}
	var paths []string
	for _, name := range t.GetFrameNames(false) {
		path := filepath.Join(dir, sanitizeFileName(name)+".png")
		if err := tm.writeFramePNG(path, key, name); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (tm *TextureManager) writeFramePNG(path, key, frame string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stagecraft: create %s: %w", path, err)
	}
	if err := tm.ExportFrame(f, key, frame); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sanitizeFileName replaces characters that are unsafe in file names with
// underscores and falls back to "unnamed" for empty strings.
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
