package stagecraft

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-6

const tick = time.Second / 60

// testConfig returns the default config with logging discarded.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LogOutput = io.Discard
	return cfg
}

// newBootedGame creates a game, waits for the boot textures and runs the
// first frame so queued scenes are built and started.
func newBootedGame(t *testing.T, cfg Config, scenes ...SceneSource) *Game {
	t.Helper()
	g := NewGame(cfg, scenes...)
	bootGame(t, g)
	return g
}

// bootGame boots g and runs its first frame.
func bootGame(t *testing.T, g *Game) {
	t.Helper()
	g.Boot()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Textures().WaitPending(ctx))
	g.Step(0)
	g.Render(&recordRenderer{})
	require.True(t, g.IsReady(), "game did not become ready")
	t.Cleanup(g.Destroy)
}

// runFrame steps the game by one tick and renders it through r, which may
// be nil.
func runFrame(g *Game, r Renderer) {
	if r == nil {
		r = &recordRenderer{}
	}
	g.Step(tick)
	g.Render(r)
}

// solidImage returns a w x h image filled with c.
func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// gradientImage gives every pixel a unique color: R = x, G = y.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// drawCall is one DrawFrame call seen by recordRenderer.
type drawCall struct {
	camera string
	frame  string
	tx, ty float64
	alpha  float64
	blend  BlendMode
}

// recordRenderer records the calls it receives instead of drawing.
type recordRenderer struct {
	cam   *Camera
	calls []drawCall
	begun []string
	ended []string
}

func (r *recordRenderer) BeginCamera(cam *Camera) {
	r.cam = cam
	r.begun = append(r.begun, cam.Name)
}

func (r *recordRenderer) DrawFrame(f *Frame, geo ebiten.GeoM, alpha float64, blend BlendMode) {
	tx, ty := geo.Apply(0, 0)
	name := ""
	if f != nil {
		name = f.Name
	}
	r.calls = append(r.calls, drawCall{camera: r.cam.Name, frame: name, tx: tx, ty: ty, alpha: alpha, blend: blend})
}

func (r *recordRenderer) EndCamera(cam *Camera) {
	r.ended = append(r.ended, cam.Name)
	r.cam = nil
}

// lifecycleScene records every hook call in order.
type lifecycleScene struct {
	BaseScene
	cfg   SceneConfig
	calls []string
	data  []any

	onCreate func(s *lifecycleScene)
	onUpdate func(s *lifecycleScene)
}

func newLifecycleScene(key string) *lifecycleScene {
	return &lifecycleScene{cfg: SceneConfig{Key: key}}
}

func (s *lifecycleScene) SceneConfig() SceneConfig { return s.cfg }

func (s *lifecycleScene) record(name string, data any) {
	s.calls = append(s.calls, name)
	s.data = append(s.data, data)
}

func (s *lifecycleScene) Init(data any) { s.record("init", data) }
func (s *lifecycleScene) Preload()      { s.record("preload", nil) }

func (s *lifecycleScene) Create(data any) {
	s.record("create", data)
	if s.onCreate != nil {
		s.onCreate(s)
	}
}

func (s *lifecycleScene) Update(t, delta time.Duration) {
	s.record("update", nil)
	if s.onUpdate != nil {
		s.onUpdate(s)
	}
}

func (s *lifecycleScene) Draw(Renderer)         { s.record("draw", nil) }
func (s *lifecycleScene) Pause(data any)        { s.record("pause", data) }
func (s *lifecycleScene) Resume(data any)       { s.record("resume", data) }
func (s *lifecycleScene) Sleep(data any)        { s.record("sleep", data) }
func (s *lifecycleScene) Wake(data any)         { s.record("wake", data) }
func (s *lifecycleScene) Shutdown(data any)     { s.record("shutdown", data) }
func (s *lifecycleScene) Destroy()              { s.record("destroy", nil) }
func (s *lifecycleScene) count(name string) int { return countOf(s.calls, name) }

// last returns the data passed to the most recent call of the named hook.
func (s *lifecycleScene) last(name string) any {
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i] == name {
			return s.data[i]
		}
	}
	return nil
}

func (s *lifecycleScene) reset() {
	s.calls = nil
	s.data = nil
}

func countOf(list []string, name string) int {
	n := 0
	for _, v := range list {
		if v == name {
			n++
		}
	}
	return n
}

// addScene adds a scene to a booted game outside of a frame.
func addScene(t *testing.T, g *Game, s Scene, autoStart bool, data any) {
	t.Helper()
	added, err := g.Scene().Add("", Instance(s), autoStart, data)
	require.NoError(t, err)
	require.NotNil(t, added)
}

func status(s Scene) Status { return s.Sys().Settings().Status }
