package stagecraft

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Renderer receives the draw calls of every visible scene, once per camera.
// BeginCamera and EndCamera bracket the calls for one camera.
type Renderer interface {
	BeginCamera(cam *Camera)
	// DrawFrame draws the cut pixels of f. geo maps frame pixel space, with
	// the frame unrotated and its top-left at the origin, to screen space.
	DrawFrame(f *Frame, geo ebiten.GeoM, alpha float64, blend BlendMode)
	EndCamera(cam *Camera)
}

// EbitenRenderer draws frames onto an ebiten image, clipped to each camera's
// viewport.
type EbitenRenderer struct {
	target *ebiten.Image
	dst    *ebiten.Image
	op     ebiten.DrawImageOptions

	// DrawCalls counts DrawImage calls since the last SetTarget.
	DrawCalls int
}

// NewEbitenRenderer creates a renderer drawing onto target.
func NewEbitenRenderer(target *ebiten.Image) *EbitenRenderer {
	return &EbitenRenderer{target: target}
}

// SetTarget changes the destination image and resets DrawCalls.
func (r *EbitenRenderer) SetTarget(target *ebiten.Image) {
	r.target = target
	r.DrawCalls = 0
}

// BeginCamera implements Renderer.
func (r *EbitenRenderer) BeginCamera(cam *Camera) {
	vp := cam.Viewport
	rect := image.Rect(int(vp.X), int(vp.Y), int(vp.X+vp.Width), int(vp.Y+vp.Height))
	r.dst = r.target.SubImage(rect).(*ebiten.Image)
	if cam.BackgroundColor.A > 0 {
		r.dst.Fill(cam.BackgroundColor)
	}
}

// DrawFrame implements Renderer.
func (r *EbitenRenderer) DrawFrame(f *Frame, geo ebiten.GeoM, alpha float64, blend BlendMode) {
	if r.dst == nil || f == nil || f.Source() == nil {
		return
	}
	page := f.Source().EbitenImage()
	if page == nil {
		return
	}

	var sub image.Rectangle
	if f.Rotated {
		sub = image.Rect(f.CutX, f.CutY, f.CutX+f.CutHeight, f.CutY+f.CutWidth)
	} else {
		sub = image.Rect(f.CutX, f.CutY, f.CutX+f.CutWidth, f.CutY+f.CutHeight)
	}

	op := &r.op
	op.GeoM.Reset()
	// Rotated frames are stored 90° CW; rotate back and shift into place.
	if f.Rotated {
		op.GeoM.Rotate(-1.5707963267948966)
		op.GeoM.Translate(0, float64(f.CutHeight))
	}
	op.GeoM.Concat(geo)

	op.ColorScale.Reset()
	a := float32(alpha)
	op.ColorScale.Scale(a, a, a, a)
	op.Blend = blend.EbitenBlend()
	op.Filter = f.Source().ebitenFilter()

	r.dst.DrawImage(page.SubImage(sub).(*ebiten.Image), op)
	r.DrawCalls++
}

// EndCamera implements Renderer.
func (r *EbitenRenderer) EndCamera(*Camera) {
	r.dst = nil
}
