package stagecraft

import (
	"slices"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// tweenTarget is implemented by objects that stop their tweens when
// destroyed.
type tweenTarget interface {
	IsDestroyed() bool
}

// TweenGroup animates up to 4 float64 fields simultaneously. Build one with
// NewTween or the TweenPosition/TweenScale/TweenAlpha/TweenRotation helpers
// and either add it to a scene's TweenManager or call Update yourself. If the
// target is destroyed the group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	target tweenTarget
	Done   bool
	// OnComplete runs once when the group finishes inside a TweenManager.
	OnComplete func()
}

// NewTween animates each field to the matching value of to. Fields past the
// fourth are ignored.
func NewTween(fields []*float64, to []float64, duration time.Duration, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{}
	d := float32(duration.Seconds())
	for i := 0; i < len(fields) && i < len(to) && i < len(g.tweens); i++ {
		g.tweens[i] = gween.New(float32(*fields[i]), float32(to[i]), d, fn)
		g.fields[i] = fields[i]
		g.count++
	}
	return g
}

// Update advances all tweens by dt seconds and writes the values to the
// target fields. If the target has been destroyed, Done is set and no writes
// occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDestroyed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// TweenPosition animates img.X and img.Y.
func TweenPosition(img *Image, toX, toY float64, duration time.Duration, fn ease.TweenFunc) *TweenGroup {
	g := NewTween([]*float64{&img.X, &img.Y}, []float64{toX, toY}, duration, fn)
	g.target = img
	return g
}

// TweenScale animates img.ScaleX and img.ScaleY.
func TweenScale(img *Image, toSX, toSY float64, duration time.Duration, fn ease.TweenFunc) *TweenGroup {
	g := NewTween([]*float64{&img.ScaleX, &img.ScaleY}, []float64{toSX, toSY}, duration, fn)
	g.target = img
	return g
}

// TweenAlpha animates img.Alpha.
func TweenAlpha(img *Image, to float64, duration time.Duration, fn ease.TweenFunc) *TweenGroup {
	g := NewTween([]*float64{&img.Alpha}, []float64{to}, duration, fn)
	g.target = img
	return g
}

// TweenRotation animates img.Rotation.
func TweenRotation(img *Image, to float64, duration time.Duration, fn ease.TweenFunc) *TweenGroup {
	g := NewTween([]*float64{&img.Rotation}, []float64{to}, duration, fn)
	g.target = img
	return g
}

// TweenManager advances a scene's tweens on its update event. Tweens are
// dropped when the scene shuts down.
type TweenManager struct {
	groups  []*TweenGroup
	handles []ListenerHandle
	// TimeScale scales the delta passed to every tween.
	TimeScale float64
}

// NewTweenManager creates an empty manager.
func NewTweenManager() *TweenManager {
	return &TweenManager{TimeScale: 1}
}

// Boot implements ScenePluginInstance.
func (m *TweenManager) Boot(sys *Systems) {
	m.handles = append(m.handles, sys.events.On(EventUpdate, func(args ...any) {
		delta, _ := args[1].(time.Duration)
		m.Update(delta)
	}))
}

// Add starts running g.
func (m *TweenManager) Add(g *TweenGroup) *TweenGroup {
	m.groups = append(m.groups, g)
	return g
}

// Len returns the number of running groups.
func (m *TweenManager) Len() int { return len(m.groups) }

// Update advances every group and drops finished ones.
func (m *TweenManager) Update(delta time.Duration) {
	dt := float32(delta.Seconds() * m.TimeScale)
	var finished []*TweenGroup
	for _, g := range m.groups {
		g.Update(dt)
		if g.Done {
			finished = append(finished, g)
		}
	}
	if len(finished) == 0 {
		return
	}
	m.groups = slices.DeleteFunc(m.groups, func(g *TweenGroup) bool { return g.Done })
	for _, g := range finished {
		if g.OnComplete != nil {
			g.OnComplete()
		}
	}
}

// KillAll drops every group without completing it.
func (m *TweenManager) KillAll() {
	m.groups = nil
}

// Shutdown implements PluginShutdowner.
func (m *TweenManager) Shutdown() { m.KillAll() }

// Destroy implements ScenePluginInstance.
func (m *TweenManager) Destroy() {
	m.KillAll()
	for _, h := range m.handles {
		h.Remove()
	}
	m.handles = nil
}
