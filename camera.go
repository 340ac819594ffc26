package stagecraft

import (
	"image/color"
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Followable is anything a camera can track.
type Followable interface {
	WorldPosition() (x, y float64)
	IsDestroyed() bool
}

// Camera controls a scene's view: position, zoom, rotation and viewport.
type Camera struct {
	Name string
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect
	// RoundPixels snaps the view translation to whole pixels.
	RoundPixels bool
	Visible     bool
	// BackgroundColor fills the viewport before objects are drawn. A zero
	// alpha skips the fill.
	BackgroundColor color.NRGBA

	// CullEnabled skips objects whose bounds don't intersect the camera's
	// visible bounds.
	CullEnabled bool

	followTarget  Followable
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	Bounds        Rect

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	scrollTween *scrollAnim
}

// NewCamera creates a camera looking at the center of its viewport.
func NewCamera(name string, viewport Rect) *Camera {
	return &Camera{
		Name:        name,
		X:           viewport.Width / 2,
		Y:           viewport.Height / 2,
		Zoom:        1.0,
		Viewport:    viewport,
		Visible:     true,
		CullEnabled: true,
		dirty:       true,
	}
}

func newCameraFromConfig(cfg CameraConfig, fallback Rect) *Camera {
	vp := Rect{X: cfg.X, Y: cfg.Y, Width: cfg.Width, Height: cfg.Height}
	if vp.Width <= 0 {
		vp.Width = fallback.Width
	}
	if vp.Height <= 0 {
		vp.Height = fallback.Height
	}
	cam := NewCamera(cfg.Name, vp)
	if cfg.Zoom > 0 {
		cam.Zoom = cfg.Zoom
	}
	cam.Rotation = cfg.Rotation
	cam.SetScroll(cfg.ScrollX, cfg.ScrollY)
	cam.RoundPixels = cfg.RoundPixels
	return cam
}

// Scroll returns the world position of the viewport's top-left corner at
// zoom 1.
func (c *Camera) Scroll() (x, y float64) {
	return c.X - c.Viewport.Width/2, c.Y - c.Viewport.Height/2
}

// SetScroll positions the camera so the viewport's top-left corner sits at
// (x, y) in world space.
func (c *Camera) SetScroll(x, y float64) {
	c.X = x + c.Viewport.Width/2
	c.Y = y + c.Viewport.Height/2
	c.dirty = true
}

// CenterOn moves the camera center to (x, y).
func (c *Camera) CenterOn(x, y float64) {
	c.X, c.Y = x, y
	c.ClampToBounds()
	c.dirty = true
}

// Follow makes the camera track a target with the given offset and lerp
// factor. A lerp of 1.0 snaps immediately; lower values give smoother
// following.
func (c *Camera) Follow(target Followable, offsetX, offsetY, lerp float64) {
	c.followTarget = target
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera center to the given world position.
func (c *Camera) ScrollTo(x, y float64, duration time.Duration, easeFn ease.TweenFunc) {
	d := float32(duration.Seconds())
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), d, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), d, easeFn),
	}
}

// IsScrolling reports whether a ScrollTo animation is running.
func (c *Camera) IsScrolling() bool { return c.scrollTween != nil }

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// ClampToBounds immediately clamps the camera position so the visible area
// stays within Bounds. No-op if BoundsEnabled is false.
func (c *Camera) ClampToBounds() {
	if c.BoundsEnabled {
		c.clampToBounds()
	}
}

// update advances follow, scroll and bounds clamping.
func (c *Camera) update(delta time.Duration) {
	prevX, prevY := c.X, c.Y
	prevZoom, prevRot := c.Zoom, c.Rotation
	dt := float32(delta.Seconds())

	if c.followTarget != nil {
		if c.followTarget.IsDestroyed() {
			c.followTarget = nil
		} else {
			tx, ty := c.followTarget.WorldPosition()
			c.X += (tx + c.followOffsetX - c.X) * c.followLerp
			c.Y += (ty + c.followOffsetY - c.Y) * c.followLerp
		}
	}

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			c.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			c.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}

	if c.X != prevX || c.Y != prevY || c.Zoom != prevZoom || c.Rotation != prevRot {
		c.dirty = true
	}
}

// clampToBounds restricts camera position so the visible area stays within Bounds.
func (c *Camera) clampToBounds() {
	halfW := c.Viewport.Width / (2 * c.Zoom)
	halfH := c.Viewport.Height / (2 * c.Zoom)

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// Bounds smaller than the visible area center the camera.
	if minX > maxX {
		c.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		c.X = clamp(c.X, minX, maxX)
	}
	if minY > maxY {
		c.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		c.Y = clamp(c.Y, minY, maxY)
	}
}

// computeViewMatrix recomputes the cached view matrix if dirty.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) computeViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2

	sin, cos := math.Sincos(-c.Rotation)
	z := c.Zoom

	tx := cx + z*(-cos*c.X+sin*c.Y)
	ty := cy + z*(-sin*c.X-cos*c.Y)
	if c.RoundPixels {
		tx, ty = math.Round(tx), math.Round(ty)
	}

	c.viewMatrix = [6]float64{z * cos, z * sin, -z * sin, z * cos, tx, ty}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	c.computeViewMatrix()
	return transformPoint(c.viewMatrix, wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.computeViewMatrix()
	return transformPoint(c.invViewMatrix, sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's
// visible area in world space.
func (c *Camera) VisibleBounds() Rect {
	c.computeViewMatrix()
	return worldAABB(c.invViewMatrix, c.Viewport)
}

// MarkDirty forces a recomputation of the view matrix.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

// worldAABB computes the axis-aligned bounds of r transformed by m.
func worldAABB(m [6]float64, r Rect) Rect {
	x0, y0 := transformPoint(m, r.X, r.Y)
	x1, y1 := transformPoint(m, r.X+r.Width, r.Y)
	x2, y2 := transformPoint(m, r.X+r.Width, r.Y+r.Height)
	x3, y3 := transformPoint(m, r.X, r.Y+r.Height)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// CameraManager owns a scene's cameras. Cameras are built from the scene's
// camera configs when it starts and dropped when it shuts down.
type CameraManager struct {
	sys     *Systems
	cameras []*Camera
	main    *Camera
	handle  ListenerHandle
}

// Boot implements ScenePluginInstance.
func (m *CameraManager) Boot(sys *Systems) {
	m.sys = sys
	m.handle = sys.events.On(EventUpdate, func(args ...any) {
		delta, _ := args[1].(time.Duration)
		for _, c := range m.cameras {
			c.update(delta)
		}
	})
}

// Start implements PluginStarter.
func (m *CameraManager) Start() {
	if len(m.cameras) > 0 {
		return
	}
	full := Rect{}
	if g := m.sys.game; g != nil {
		full.Width = float64(g.Config.Width)
		full.Height = float64(g.Config.Height)
	}
	if len(m.sys.settings.Cameras) == 0 {
		m.Add(NewCamera("main", full))
		return
	}
	for _, cc := range m.sys.settings.Cameras {
		m.Add(newCameraFromConfig(cc, full))
	}
}

// Add appends cam. The first camera added becomes the main camera.
func (m *CameraManager) Add(cam *Camera) *Camera {
	m.cameras = append(m.cameras, cam)
	if m.main == nil {
		m.main = cam
	}
	return cam
}

// Remove drops cam and reports whether it was present.
func (m *CameraManager) Remove(cam *Camera) bool {
	for i, c := range m.cameras {
		if c == cam {
			m.cameras = append(m.cameras[:i], m.cameras[i+1:]...)
			if m.main == cam {
				m.main = nil
				if len(m.cameras) > 0 {
					m.main = m.cameras[0]
				}
			}
			return true
		}
	}
	return false
}

// GetCamera returns the camera called name, or nil.
func (m *CameraManager) GetCamera(name string) *Camera {
	for _, c := range m.cameras {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Cameras returns the cameras in render order.
func (m *CameraManager) Cameras() []*Camera { return m.cameras }

// Main returns the main camera, or nil before the scene starts.
func (m *CameraManager) Main() *Camera { return m.main }

// Render draws the display list once per visible camera.
func (m *CameraManager) Render(r Renderer, dl *DisplayList) {
	for _, cam := range m.cameras {
		if !cam.Visible {
			continue
		}
		r.BeginCamera(cam)
		for _, obj := range dl.List() {
			if obj.IsDestroyed() || !obj.WillRender(cam) {
				continue
			}
			obj.Draw(r, cam)
		}
		r.EndCamera(cam)
	}
}

// Shutdown implements PluginShutdowner.
func (m *CameraManager) Shutdown() {
	m.cameras = nil
	m.main = nil
}

// Destroy implements ScenePluginInstance.
func (m *CameraManager) Destroy() {
	m.Shutdown()
	m.handle.Remove()
}
