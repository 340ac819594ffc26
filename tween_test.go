package stagecraft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

func TestTweenGroupUpdate(t *testing.T) {
	a, b := 0.0, 10.0
	g := NewTween([]*float64{&a, &b}, []float64{100, 0}, time.Second, ease.Linear)

	g.Update(0.5)
	assert.InDelta(t, 50, a, 0.01)
	assert.InDelta(t, 5, b, 0.01)
	assert.False(t, g.Done)

	g.Update(0.5)
	assert.InDelta(t, 100, a, 0.01)
	assert.InDelta(t, 0, b, 0.01)
	assert.True(t, g.Done)

	a = 7
	g.Update(1)
	assert.Equal(t, 7.0, a, "a finished group does not write")
}

func TestTweenGroupIgnoresExtraFields(t *testing.T) {
	var v [5]float64
	fields := []*float64{&v[0], &v[1], &v[2], &v[3], &v[4]}
	g := NewTween(fields, []float64{1, 1, 1, 1, 1}, time.Second, ease.Linear)
	g.Update(1)
	assert.Equal(t, [5]float64{1, 1, 1, 1, 0}, v)
}

func TestTweenStopsOnDestroyedTarget(t *testing.T) {
	img := NewImage(0, 0, nil, "")
	g := TweenPosition(img, 100, 50, time.Second, ease.Linear)
	g.Update(0.5)
	assert.InDelta(t, 50, img.X, 0.01)
	assert.InDelta(t, 25, img.Y, 0.01)

	img.Destroy()
	g.Update(0.25)
	assert.True(t, g.Done)
	assert.InDelta(t, 50, img.X, 0.01)
}

func TestTweenHelpers(t *testing.T) {
	img := NewImage(0, 0, nil, "")
	for _, g := range []*TweenGroup{
		TweenScale(img, 2, 3, time.Second, ease.Linear),
		TweenAlpha(img, 0.5, time.Second, ease.Linear),
		TweenRotation(img, 1, time.Second, ease.Linear),
	} {
		g.Update(1)
		assert.True(t, g.Done)
	}
	assert.InDelta(t, 2, img.ScaleX, 0.01)
	assert.InDelta(t, 3, img.ScaleY, 0.01)
	assert.InDelta(t, 0.5, img.Alpha, 0.01)
	assert.InDelta(t, 1, img.Rotation, 0.01)
}

func TestTweenManagerUpdate(t *testing.T) {
	m := NewTweenManager()
	var x, y float64
	done := 0
	fast := m.Add(NewTween([]*float64{&x}, []float64{1}, 100*time.Millisecond, ease.Linear))
	fast.OnComplete = func() { done++ }
	m.Add(NewTween([]*float64{&y}, []float64{1}, time.Second, ease.Linear))
	assert.Equal(t, 2, m.Len())

	m.Update(100 * time.Millisecond)
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, m.Len())

	m.TimeScale = 2
	m.Update(200 * time.Millisecond)
	assert.InDelta(t, 0.5, y, 0.01)

	m.KillAll()
	assert.Zero(t, m.Len())
	assert.Equal(t, 1, done, "killed groups never complete")
}

func TestTweenManagerFollowsScene(t *testing.T) {
	g := newBootedGame(t, testConfig())
	s := newLifecycleScene("a")
	addScene(t, g, s, true, nil)

	img := s.Add().Image(0, 0, "", "")
	s.Tweens().Add(TweenPosition(img, 60, 0, 60*tick, ease.Linear))

	for i := 0; i < 30; i++ {
		runFrame(g, nil)
	}
	assert.InDelta(t, 30, img.X, 0.1)

	g.Scene().Stop("a", nil)
	assert.Zero(t, s.Tweens().Len(), "shutdown drops running tweens")
	require.Zero(t, s.Children().Len())
}
