package stagecraft

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// AnimationFrame is one step of an Animation.
type AnimationFrame struct {
	Key   string // texture key
	Frame string // frame name
	// Duration adds to the animation's per-frame duration for this step.
	Duration time.Duration
}

// Animation is a named sequence of texture frames.
type Animation struct {
	Key       string
	Frames    []AnimationFrame
	FrameRate float64
	// Duration overrides FrameRate when set.
	Duration time.Duration
	// Repeat is the number of extra plays; -1 loops forever.
	Repeat int
	Yoyo   bool
}

// frameDuration is the base time each frame is shown.
func (a *Animation) frameDuration() time.Duration {
	if len(a.Frames) == 0 {
		return 0
	}
	if a.Duration > 0 {
		return a.Duration / time.Duration(len(a.Frames))
	}
	rate := a.FrameRate
	if rate <= 0 {
		rate = 24
	}
	return time.Duration(float64(time.Second) / rate)
}

// cycle is the sequence of frame indices one play shows.
func (a *Animation) cycle() []int {
	n := len(a.Frames)
	seq := make([]int, 0, 2*n)
	for i := range n {
		seq = append(seq, i)
	}
	if a.Yoyo {
		for i := n - 2; i > 0; i-- {
			seq = append(seq, i)
		}
	}
	return seq
}

// FrameAt returns the frame shown after elapsed playback time and whether the
// animation has finished.
func (a *Animation) FrameAt(elapsed time.Duration) (AnimationFrame, bool) {
	if len(a.Frames) == 0 {
		return AnimationFrame{}, true
	}
	base := a.frameDuration()
	seq := a.cycle()

	var total time.Duration
	for _, i := range seq {
		total += base + a.Frames[i].Duration
	}
	if total <= 0 {
		return a.Frames[0], true
	}

	plays := elapsed / total
	if a.Repeat >= 0 && int64(plays) > int64(a.Repeat) {
		return a.Frames[seq[len(seq)-1]], true
	}
	rem := elapsed % total
	for _, i := range seq {
		d := base + a.Frames[i].Duration
		if rem < d {
			return a.Frames[i], false
		}
		rem -= d
	}
	return a.Frames[seq[len(seq)-1]], false
}

// GenerateFrameNamesConfig describes atlas frame names built from a numeric
// range, such as "walk0001" to "walk0008".
type GenerateFrameNamesConfig struct {
	Prefix  string
	Suffix  string
	Start   int
	End     int
	ZeroPad int
	// Frames lists explicit numbers and overrides Start/End.
	Frames []int
}

// GenerateFrameNumbersConfig selects frames of a sprite sheet by index.
type GenerateFrameNumbersConfig struct {
	Start int
	// End of -1 means the last frame.
	End    int
	Frames []int
}

// AnimationManager is the Game-wide registry of animations.
type AnimationManager struct {
	textures *TextureManager
	anims    map[string]*Animation
	events   *EventEmitter
}

// Animation manager events.
const (
	EventAddAnimation    = "add"
	EventRemoveAnimation = "remove"
)

// NewAnimationManager creates an empty registry resolving frames through tm.
func NewAnimationManager(tm *TextureManager) *AnimationManager {
	return &AnimationManager{
		textures: tm,
		anims:    make(map[string]*Animation),
		events:   NewEventEmitter(),
	}
}

// Events returns the manager's event bus.
func (m *AnimationManager) Events() *EventEmitter { return m.events }

// Create registers anim. It returns an error if the key is taken.
func (m *AnimationManager) Create(anim Animation) (*Animation, error) {
	if anim.Key == "" {
		return nil, fmt.Errorf("stagecraft: animation has no key")
	}
	if _, ok := m.anims[anim.Key]; ok {
		return nil, fmt.Errorf("stagecraft: animation %q: %w", anim.Key, ErrDuplicateKey)
	}
	a := anim
	a.Frames = slices.Clone(anim.Frames)
	m.anims[a.Key] = &a
	m.events.Emit(EventAddAnimation, a.Key, &a)
	return &a, nil
}

// Get returns the animation registered under key, or nil.
func (m *AnimationManager) Get(key string) *Animation { return m.anims[key] }

// Exists reports whether key is registered.
func (m *AnimationManager) Exists(key string) bool {
	_, ok := m.anims[key]
	return ok
}

// Remove drops an animation.
func (m *AnimationManager) Remove(key string) *Animation {
	a, ok := m.anims[key]
	if !ok {
		return nil
	}
	delete(m.anims, key)
	m.events.Emit(EventRemoveAnimation, key, a)
	return a
}

// Keys returns the registered keys in order.
func (m *AnimationManager) Keys() []string {
	return slices.Sorted(maps.Keys(m.anims))
}

// GenerateFrameNames builds frames named Prefix + padded number + Suffix that
// exist in the texture. Missing names are skipped.
func (m *AnimationManager) GenerateFrameNames(key string, cfg GenerateFrameNamesConfig) []AnimationFrame {
	t, ok := m.textures.list[key]
	if !ok {
		return nil
	}
	nums := cfg.Frames
	if len(nums) == 0 {
		if cfg.Start <= cfg.End {
			for i := cfg.Start; i <= cfg.End; i++ {
				nums = append(nums, i)
			}
		} else {
			for i := cfg.Start; i >= cfg.End; i-- {
				nums = append(nums, i)
			}
		}
	}

	var out []AnimationFrame
	for _, n := range nums {
		name := cfg.Prefix + fmt.Sprintf("%0*d", cfg.ZeroPad, n) + cfg.Suffix
		if t.Has(name) {
			out = append(out, AnimationFrame{Key: key, Frame: name})
		}
	}
	return out
}

// GenerateFrameNumbers builds frames from a sprite sheet's numbered frames.
func (m *AnimationManager) GenerateFrameNumbers(key string, cfg GenerateFrameNumbersConfig) []AnimationFrame {
	t, ok := m.textures.list[key]
	if !ok {
		return nil
	}
	nums := cfg.Frames
	if len(nums) == 0 {
		end := cfg.End
		if end < 0 {
			end = t.FrameTotal - 2 // FrameTotal counts BaseFrame
		}
		for i := cfg.Start; i <= end; i++ {
			nums = append(nums, i)
		}
	}

	var out []AnimationFrame
	for _, n := range nums {
		name := strconv.Itoa(n)
		if t.Has(name) {
			out = append(out, AnimationFrame{Key: key, Frame: name})
		}
	}
	return out
}

// Destroy drops every animation.
func (m *AnimationManager) Destroy() {
	clear(m.anims)
	m.events.RemoveAllListeners()
}
