package stagecraft

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// TextureSource is one pixel buffer of a Texture. The CPU-side image is kept
// for pixel queries; the GPU-side ebiten image is created on first draw.
type TextureSource struct {
	Image    image.Image
	Width    int
	Height   int
	IsCanvas bool
	Filter   ScaleMode

	texture *Texture
	gpu     *ebiten.Image
}

func newTextureSource(t *Texture, img image.Image, canvas bool) *TextureSource {
	s := &TextureSource{Image: img, IsCanvas: canvas, texture: t}
	if img != nil {
		b := img.Bounds()
		s.Width, s.Height = b.Dx(), b.Dy()
	}
	return s
}

// EbitenImage returns the GPU image for this source, uploading it on first
// use. An *ebiten.Image source is returned as is.
func (s *TextureSource) EbitenImage() *ebiten.Image {
	if s.gpu != nil {
		return s.gpu
	}
	switch img := s.Image.(type) {
	case nil:
		return nil
	case *ebiten.Image:
		s.gpu = img
	default:
		s.gpu = ebiten.NewImageFromImage(img)
	}
	return s.gpu
}

// SetFilter sets the scale filter used when drawing this source.
func (s *TextureSource) SetFilter(mode ScaleMode) {
	s.Filter = mode
}

// Update marks a canvas source as changed so the next draw uploads it again.
func (s *TextureSource) Update() {
	if !s.IsCanvas || s.gpu == nil {
		return
	}
	s.gpu.Deallocate()
	s.gpu = nil
}

func (s *TextureSource) ebitenFilter() ebiten.Filter {
	if s.Filter == ScaleNearest {
		return ebiten.FilterNearest
	}
	return ebiten.FilterLinear
}

func (s *TextureSource) destroy() {
	if s.gpu != nil {
		if _, own := s.Image.(*ebiten.Image); !own {
			s.gpu.Deallocate()
		}
	}
	s.gpu = nil
	s.Image = nil
	s.texture = nil
}
