package stagecraft

import (
	"maps"
	"math"
)

// Bounds is an integer rectangle with its right and bottom edges cached.
type Bounds struct {
	X, Y, W, H int
	R, B       int
}

func newBounds(x, y, w, h int) Bounds {
	return Bounds{X: x, Y: y, W: w, H: h, R: x + w, B: y + h}
}

// Size is an integer width/height pair.
type Size struct {
	W, H int
}

// DrawImage holds the source rectangle a canvas-style renderer copies from.
type DrawImage struct {
	X, Y, Width, Height int
}

// FrameData is the cut and trim metadata of a Frame.
type FrameData struct {
	Cut              Bounds
	Trim             bool
	SourceSize       Size
	SpriteSourceSize Bounds
	Radius           float64
	DrawImage        DrawImage
}

// Frame is a named rectangle within one source of a Texture.
//
// CutX/CutY/CutWidth/CutHeight locate the pixels in the source image. X/Y and
// Width/Height describe where those pixels sit inside the original untrimmed
// sprite: for an untrimmed frame X and Y are zero and the size equals the cut.
type Frame struct {
	Name        string
	SourceIndex int

	CutX, CutY          int
	CutWidth, CutHeight int

	X, Y          int
	Width, Height int

	HalfWidth, HalfHeight float64
	CenterX, CenterY      int

	PivotX, PivotY float64
	CustomPivot    bool

	// Rotated frames are stored 90 degrees clockwise in the source.
	Rotated bool

	U0, V0, U1, V1 float64

	Data       FrameData
	CustomData map[string]any

	texture *Texture
	source  *TextureSource
}

func newFrame(t *Texture, name string, sourceIndex, x, y, w, h int) *Frame {
	f := &Frame{
		Name:        name,
		SourceIndex: sourceIndex,
		CustomData:  map[string]any{},
		texture:     t,
	}
	if sourceIndex >= 0 && sourceIndex < len(t.Source) {
		f.source = t.Source[sourceIndex]
	}
	f.SetSize(w, h, x, y)
	return f
}

// Texture returns the texture that owns this frame.
func (f *Frame) Texture() *Texture { return f.texture }

// Source returns the texture source the frame cuts from.
func (f *Frame) Source() *TextureSource { return f.source }

// SetSize sets the cut rectangle and resets trim data to match it.
func (f *Frame) SetSize(width, height, x, y int) *Frame {
	f.CutX = x
	f.CutY = y
	f.CutWidth = width
	f.CutHeight = height

	f.Width = width
	f.Height = height
	f.HalfWidth = math.Floor(float64(width) * 0.5)
	f.HalfHeight = math.Floor(float64(height) * 0.5)
	f.CenterX = width / 2
	f.CenterY = height / 2

	d := &f.Data
	d.Cut = newBounds(x, y, width, height)
	d.SourceSize = Size{W: width, H: height}
	d.SpriteSourceSize.W = width
	d.SpriteSourceSize.H = height
	d.SpriteSourceSize.R = d.SpriteSourceSize.X + width
	d.SpriteSourceSize.B = d.SpriteSourceSize.Y + height
	d.Radius = 0.5 * math.Sqrt(float64(width*width+height*height))
	d.DrawImage = DrawImage{X: x, Y: y, Width: width, Height: height}

	return f.UpdateUVs()
}

// SetTrim records that the frame was trimmed: actualWidth/actualHeight is the
// original sprite size and dest* is where the cut pixels sit inside it.
func (f *Frame) SetTrim(actualWidth, actualHeight, destX, destY, destWidth, destHeight int) *Frame {
	d := &f.Data
	d.Trim = true
	d.SourceSize = Size{W: actualWidth, H: actualHeight}
	d.SpriteSourceSize = newBounds(destX, destY, destWidth, destHeight)

	f.X = destX
	f.Y = destY
	f.Width = destWidth
	f.Height = destHeight
	f.HalfWidth = float64(destWidth) * 0.5
	f.HalfHeight = float64(destHeight) * 0.5
	f.CenterX = destWidth / 2
	f.CenterY = destHeight / 2

	return f.UpdateUVs()
}

// SetPivot sets a custom pivot in normalized frame coordinates.
func (f *Frame) SetPivot(x, y float64) *Frame {
	f.CustomPivot = true
	f.PivotX = x
	f.PivotY = y
	return f
}

// UpdateUVs recomputes the UV coordinates from the cut rectangle.
func (f *Frame) UpdateUVs() *Frame {
	f.Data.DrawImage.Width = f.CutWidth
	f.Data.DrawImage.Height = f.CutHeight

	tw, th := f.sourceSize()
	f.U0 = float64(f.CutX) / tw
	f.V0 = float64(f.CutY) / th
	f.U1 = float64(f.CutX+f.CutWidth) / tw
	f.V1 = float64(f.CutY+f.CutHeight) / th
	return f
}

// UpdateUVsInverted recomputes UVs for a frame stored rotated in the source.
func (f *Frame) UpdateUVsInverted() *Frame {
	tw, th := f.sourceSize()
	f.U0 = float64(f.CutX+f.CutHeight) / tw
	f.V0 = float64(f.CutY) / th
	f.U1 = float64(f.CutX) / tw
	f.V1 = float64(f.CutY+f.CutWidth) / th
	return f
}

func (f *Frame) sourceSize() (float64, float64) {
	if f.source == nil || f.source.Width == 0 || f.source.Height == 0 {
		return 1, 1
	}
	return float64(f.source.Width), float64(f.source.Height)
}

// Clone returns a copy of the frame bound to the same texture and source.
func (f *Frame) Clone() *Frame {
	c := *f
	c.CustomData = maps.Clone(f.CustomData)
	c.UpdateUVs()
	if f.Rotated {
		c.UpdateUVsInverted()
	}
	return &c
}

// RealWidth is the untrimmed width of the sprite.
func (f *Frame) RealWidth() int { return f.Data.SourceSize.W }

// RealHeight is the untrimmed height of the sprite.
func (f *Frame) RealHeight() int { return f.Data.SourceSize.H }

// Trimmed reports whether the frame carries trim data.
func (f *Frame) Trimmed() bool { return f.Data.Trim }

// Radius is half the diagonal of the cut rectangle.
func (f *Frame) Radius() float64 { return f.Data.Radius }

func (f *Frame) destroy() {
	f.texture = nil
	f.source = nil
	f.CustomData = nil
}
