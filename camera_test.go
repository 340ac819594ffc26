package stagecraft

import (
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	if cam.Zoom != 1.0 {
		t.Errorf("Zoom = %f, want 1.0", cam.Zoom)
	}
	if !cam.CullEnabled || !cam.Visible {
		t.Error("new camera should be visible and culling")
	}
	if cam.X != 400 || cam.Y != 300 {
		t.Errorf("center = (%f,%f), want (400,300)", cam.X, cam.Y)
	}
	sx, sy := cam.Scroll()
	if sx != 0 || sy != 0 {
		t.Errorf("Scroll = (%f,%f), want (0,0)", sx, sy)
	}
}

func TestCameraScroll(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	cam.SetScroll(100, 50)
	if cam.X != 500 || cam.Y != 350 {
		t.Errorf("center after SetScroll = (%f,%f), want (500,350)", cam.X, cam.Y)
	}
	sx, sy := cam.WorldToScreen(100, 50)
	if !approxEqual(sx, 0, epsilon) || !approxEqual(sy, 0, epsilon) {
		t.Errorf("WorldToScreen(scroll) = (%f,%f), want (0,0)", sx, sy)
	}
}

func TestCameraZoom(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	cam.Zoom = 2.0
	cam.MarkDirty()

	sx1, _ := cam.WorldToScreen(1, 0)
	sx0, _ := cam.WorldToScreen(0, 0)
	if !approxEqual(sx1-sx0, 2.0, epsilon) {
		t.Errorf("zoom 2x: 1 world unit = %f screen pixels, want 2.0", sx1-sx0)
	}
}

func TestCameraRotation90(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	cam.CenterOn(0, 0)
	cam.Rotation = math.Pi / 2
	cam.MarkDirty()

	// Rotate(-π/2) maps (1,0) to (0,-1) around the viewport center.
	sx, sy := cam.WorldToScreen(1, 0)
	if !approxEqual(sx, 400, epsilon) || !approxEqual(sy, 299, epsilon) {
		t.Errorf("90° rotation: WorldToScreen(1,0) = (%f,%f), want (400,299)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := NewCamera("main", Rect{X: 20, Y: 10, Width: 800, Height: 600})
	cam.CenterOn(42, -17)
	cam.Zoom = 1.5
	cam.Rotation = 0.3
	cam.MarkDirty()

	sx, sy := cam.WorldToScreen(123, -456)
	wx, wy := cam.ScreenToWorld(sx, sy)
	if !approxEqual(wx, 123, 1e-6) || !approxEqual(wy, -456, 1e-6) {
		t.Errorf("roundtrip: got (%f,%f), want (123,-456)", wx, wy)
	}
}

func TestCameraRoundPixels(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	cam.RoundPixels = true
	cam.CenterOn(400.4, 300.6)
	sx, sy := cam.WorldToScreen(0, 0)
	if sx != math.Round(sx) || sy != math.Round(sy) {
		t.Errorf("rounded translation = (%f,%f), want whole pixels", sx, sy)
	}
}

func TestVisibleBounds(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	b := cam.VisibleBounds()
	if !approxEqual(b.X, 0, 1e-6) || !approxEqual(b.Y, 0, 1e-6) ||
		!approxEqual(b.Width, 800, 1e-6) || !approxEqual(b.Height, 600, 1e-6) {
		t.Errorf("VisibleBounds = %+v, want 800x600 at origin", b)
	}

	cam.Zoom = 2
	cam.MarkDirty()
	b = cam.VisibleBounds()
	if !approxEqual(b.Width, 400, 1e-6) || !approxEqual(b.Height, 300, 1e-6) {
		t.Errorf("VisibleBounds at zoom 2 size = (%f,%f), want (400,300)", b.Width, b.Height)
	}
}

func TestCameraFollow(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	cam.CenterOn(0, 0)
	target := NewImage(100, 100, nil, "")

	cam.Follow(target, 10, -20, 0.5)
	cam.update(tick)
	if !approxEqual(cam.X, 55, epsilon) || !approxEqual(cam.Y, 40, epsilon) {
		t.Errorf("after lerp 0.5: cam = (%f,%f), want (55,40)", cam.X, cam.Y)
	}

	cam.Follow(target, 0, 0, 1)
	cam.update(tick)
	if cam.X != 100 || cam.Y != 100 {
		t.Errorf("lerp 1 snaps: cam = (%f,%f), want (100,100)", cam.X, cam.Y)
	}

	target.Destroy()
	target.X = 500
	cam.update(tick)
	if cam.X != 100 {
		t.Errorf("destroyed target still followed: cam.X = %f", cam.X)
	}
}

func TestCameraUnfollow(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	target := NewImage(100, 100, nil, "")
	cam.Follow(target, 0, 0, 1)
	cam.update(tick)
	cam.Unfollow()

	target.X = 500
	cam.update(tick)
	if !approxEqual(cam.X, 100, epsilon) {
		t.Errorf("after unfollow: cam.X = %f, want 100", cam.X)
	}
}

func TestCameraScrollTo(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	cam.CenterOn(0, 0)
	cam.ScrollTo(100, 200, time.Second, ease.Linear)
	if !cam.IsScrolling() {
		t.Fatal("IsScrolling = false after ScrollTo")
	}

	cam.update(500 * time.Millisecond)
	if !approxEqual(cam.X, 50, 1.0) || !approxEqual(cam.Y, 100, 1.0) {
		t.Errorf("scroll halfway: cam = (%f,%f), want ~(50,100)", cam.X, cam.Y)
	}

	cam.update(500 * time.Millisecond)
	if !approxEqual(cam.X, 100, 1.0) || !approxEqual(cam.Y, 200, 1.0) {
		t.Errorf("scroll end: cam = (%f,%f), want ~(100,200)", cam.X, cam.Y)
	}
	if cam.IsScrolling() {
		t.Error("IsScrolling = true after completion")
	}
}

func TestCameraBounds(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 100, Height: 100})
	cam.SetBounds(Rect{Width: 1000, Height: 1000})

	cam.X, cam.Y = 0, 0
	cam.update(0)
	if cam.X != 50 || cam.Y != 50 {
		t.Errorf("bounds clamp min: cam = (%f,%f), want (50,50)", cam.X, cam.Y)
	}

	cam.X, cam.Y = 999, 999
	cam.update(0)
	if cam.X != 950 || cam.Y != 950 {
		t.Errorf("bounds clamp max: cam = (%f,%f), want (950,950)", cam.X, cam.Y)
	}

	cam.ClearBounds()
	cam.X, cam.Y = -999, -999
	cam.update(0)
	if cam.X != -999 || cam.Y != -999 {
		t.Errorf("after ClearBounds: cam = (%f,%f), want (-999,-999)", cam.X, cam.Y)
	}
}

func TestCameraBoundsSmallWorld(t *testing.T) {
	cam := NewCamera("main", Rect{Width: 800, Height: 600})
	cam.SetBounds(Rect{Width: 100, Height: 100})
	cam.CenterOn(0, 0)
	if !approxEqual(cam.X, 50, epsilon) || !approxEqual(cam.Y, 50, epsilon) {
		t.Errorf("small world center: cam = (%f,%f), want (50,50)", cam.X, cam.Y)
	}
}

func TestWorldAABBRotated(t *testing.T) {
	cos45, sin45 := math.Cos(math.Pi/4), math.Sin(math.Pi/4)
	aabb := worldAABB([6]float64{cos45, sin45, -sin45, cos45, 0, 0}, Rect{Width: 100, Height: 100})
	want := 100 * math.Sqrt(2)
	if !approxEqual(aabb.Width, want, 0.01) || !approxEqual(aabb.Height, want, 0.01) {
		t.Errorf("rotated AABB size = (%f,%f), want ~(%f,%f)", aabb.Width, aabb.Height, want, want)
	}
}

func TestCameraManagerConfigs(t *testing.T) {
	g := newBootedGame(t, testConfig())
	s := newLifecycleScene("a")
	s.cfg.Cameras = []CameraConfig{
		{Name: "left", Width: 400},
		{Name: "right", X: 400, Width: 400, Zoom: 2, ScrollX: 10},
	}
	addScene(t, g, s, true, nil)

	cams := s.Cameras()
	require.Len(t, cams.Cameras(), 2)
	assert.Same(t, cams.GetCamera("left"), cams.Main())
	right := cams.GetCamera("right")
	assert.Equal(t, Rect{X: 400, Width: 400, Height: 600}, right.Viewport)
	assert.Equal(t, 2.0, right.Zoom)
	sx, _ := right.Scroll()
	assert.Equal(t, 10.0, sx)
	assert.Nil(t, cams.GetCamera("missing"))

	assert.True(t, cams.Remove(cams.Main()))
	assert.Same(t, right, cams.Main())
	assert.False(t, cams.Remove(cams.GetCamera("left")))

	g.Scene().Stop("a", nil)
	assert.Empty(t, cams.Cameras())
	assert.Nil(t, cams.Main())
}

func TestCameraManagerRenderCulls(t *testing.T) {
	g := newBootedGame(t, testConfig())
	g.Textures().AddImage("box", solidImage(64, 64, color.NRGBA{R: 255, A: 255}))

	s := newLifecycleScene("a")
	addScene(t, g, s, true, nil)
	s.Add().Image(400, 300, "box", "")
	s.Add().Image(5000, 5000, "box", "")

	r := &recordRenderer{}
	runFrame(g, r)
	assert.Equal(t, []string{"main"}, r.begun)
	assert.Equal(t, []string{"main"}, r.ended)
	require.Len(t, r.calls, 1, "the far image is culled")
	assert.InDelta(t, 368, r.calls[0].tx, epsilon)
	assert.InDelta(t, 268, r.calls[0].ty, epsilon)

	s.Cameras().Main().CullEnabled = false
	r = &recordRenderer{}
	runFrame(g, r)
	assert.Len(t, r.calls, 2)

	s.Cameras().Main().Visible = false
	r = &recordRenderer{}
	runFrame(g, r)
	assert.Empty(t, r.begun)
}
