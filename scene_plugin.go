package stagecraft

import "time"

// DefaultTransitionDuration is used when a TransitionConfig has no duration.
const DefaultTransitionDuration = time.Second

// TransitionConfig describes a timed hand-over from the calling scene to
// Target.
type TransitionConfig struct {
	Target   string
	Duration time.Duration
	// Sleep puts the calling scene to sleep when the transition ends instead
	// of stopping it.
	Sleep bool
	// Remove removes the calling scene when the transition ends.
	Remove bool
	// MoveAbove and MoveBelow reposition Target relative to the caller.
	MoveAbove bool
	MoveBelow bool
	// AllowInput lets the caller keep receiving input during the transition.
	AllowInput bool
	// OnUpdate receives progress in [0, 1] every frame of the transition.
	OnUpdate func(progress float64)
	// Data is passed to Target's start or wake.
	Data any
}

// ScenePlugin is the per-scene handle for controlling scenes. Keys default to
// the owning scene when empty. Start, Stop, Launch, Run and Switch are queued
// and take effect at the next ProcessQueue.
type ScenePlugin struct {
	sys     *Systems
	manager *SceneManager

	target        Scene
	elapsed       time.Duration
	duration      time.Duration
	willSleep     bool
	willRemove    bool
	onUpdate      func(progress float64)
	stepHandle    ListenerHandle
	progress      float64
	nested        *SceneManager
	nestedHandles []ListenerHandle
}

// Boot implements ScenePluginInstance.
func (p *ScenePlugin) Boot(sys *Systems) {
	p.sys = sys
	p.manager = sys.manager
}

// Shutdown implements PluginShutdowner.
func (p *ScenePlugin) Shutdown() {
	p.stepHandle.Remove()
}

// Destroy implements ScenePluginInstance.
func (p *ScenePlugin) Destroy() {
	p.stepHandle.Remove()
	for _, h := range p.nestedHandles {
		h.Remove()
	}
	p.nestedHandles = nil
	if p.nested != nil {
		p.nested.Destroy()
		p.nested = nil
	}
	p.target = nil
	p.onUpdate = nil
}

// Key returns the owning scene's key.
func (p *ScenePlugin) Key() string { return p.sys.settings.Key }

// Manager returns the manager owning this scene.
func (p *ScenePlugin) Manager() *SceneManager { return p.manager }

func (p *ScenePlugin) keyOr(key string) string {
	if key == "" {
		return p.Key()
	}
	return key
}

// Start stops this scene and starts key, which defaults to this scene.
func (p *ScenePlugin) Start(key string, data any) {
	key = p.keyOr(key)
	p.manager.QueueOp(OpStop, p.Key(), "", nil)
	p.manager.QueueOp(OpStart, key, "", data)
}

// Restart stops and starts this scene.
func (p *ScenePlugin) Restart(data any) {
	key := p.Key()
	p.manager.QueueOp(OpStop, key, "", nil)
	p.manager.QueueOp(OpStart, key, "", data)
}

// Launch starts another scene alongside this one.
func (p *ScenePlugin) Launch(key string, data any) {
	if key != "" && key != p.Key() {
		p.manager.QueueOp(OpStart, key, "", data)
	}
}

// Run starts, wakes or resumes another scene alongside this one.
func (p *ScenePlugin) Run(key string, data any) {
	if key != "" && key != p.Key() {
		p.manager.QueueOp(OpRun, key, "", data)
	}
}

// Pause pauses a scene.
func (p *ScenePlugin) Pause(key string, data any) { p.manager.Pause(p.keyOr(key), data) }

// Resume resumes a scene.
func (p *ScenePlugin) Resume(key string, data any) { p.manager.Resume(p.keyOr(key), data) }

// Sleep puts a scene to sleep.
func (p *ScenePlugin) Sleep(key string, data any) { p.manager.Sleep(p.keyOr(key), data) }

// Wake wakes a scene.
func (p *ScenePlugin) Wake(key string, data any) { p.manager.Wake(p.keyOr(key), data) }

// Switch sleeps this scene and starts or wakes key.
func (p *ScenePlugin) Switch(key string, data any) {
	if key != "" && key != p.Key() {
		p.manager.QueueOp(OpSwitch, p.Key(), key, data)
	}
}

// Stop shuts a scene down.
func (p *ScenePlugin) Stop(key string, data any) {
	p.manager.QueueOp(OpStop, p.keyOr(key), "", data)
}

// Remove destroys a scene.
func (p *ScenePlugin) Remove(key string) { p.manager.Remove(p.keyOr(key)) }

// BringToTop renders a scene above all others.
func (p *ScenePlugin) BringToTop(key string) { p.manager.BringToTop(p.keyOr(key)) }

// SendToBack renders a scene below all others.
func (p *ScenePlugin) SendToBack(key string) { p.manager.SendToBack(p.keyOr(key)) }

// MoveUp moves a scene one place up.
func (p *ScenePlugin) MoveUp(key string) { p.manager.MoveUp(p.keyOr(key)) }

// MoveDown moves a scene one place down.
func (p *ScenePlugin) MoveDown(key string) { p.manager.MoveDown(p.keyOr(key)) }

// MoveAbove places keyB directly above keyA. With keyB empty, keyA is placed
// above this scene.
func (p *ScenePlugin) MoveAbove(keyA, keyB string) {
	if keyB == "" {
		keyA, keyB = p.Key(), keyA
	}
	p.manager.MoveAbove(keyA, keyB)
}

// MoveBelow places keyB directly below keyA. With keyB empty, keyA is placed
// below this scene.
func (p *ScenePlugin) MoveBelow(keyA, keyB string) {
	if keyB == "" {
		keyA, keyB = p.Key(), keyA
	}
	p.manager.MoveBelow(keyA, keyB)
}

// SwapPosition swaps keyA with keyB, which defaults to this scene.
func (p *ScenePlugin) SwapPosition(keyA, keyB string) {
	p.manager.SwapPosition(keyA, p.keyOr(keyB))
}

// SetActive pauses or resumes a scene.
func (p *ScenePlugin) SetActive(value bool, key string, data any) {
	if value {
		p.manager.Resume(p.keyOr(key), data)
		return
	}
	p.manager.Pause(p.keyOr(key), data)
}

// SetVisible shows or hides a scene.
func (p *ScenePlugin) SetVisible(value bool, key string) {
	if s := p.manager.GetScene(p.keyOr(key)); s != nil {
		s.Sys().SetVisible(value)
	}
}

// Get returns a scene by key.
func (p *ScenePlugin) Get(key string) Scene { return p.manager.GetScene(p.keyOr(key)) }

// GetIndex returns the list position of a scene.
func (p *ScenePlugin) GetIndex(key string) int { return p.manager.GetIndex(p.keyOr(key)) }

// IsActive reports whether a scene is running.
func (p *ScenePlugin) IsActive(key string) bool { return p.manager.IsActive(p.keyOr(key)) }

// IsPaused reports whether a scene is paused.
func (p *ScenePlugin) IsPaused(key string) bool { return p.manager.IsPaused(p.keyOr(key)) }

// IsSleeping reports whether a scene is asleep.
func (p *ScenePlugin) IsSleeping(key string) bool { return p.manager.IsSleeping(p.keyOr(key)) }

// IsVisible reports whether a scene renders.
func (p *ScenePlugin) IsVisible(key string) bool { return p.manager.IsVisible(p.keyOr(key)) }

// TransitionProgress returns the progress of the running transition.
func (p *ScenePlugin) TransitionProgress() float64 { return p.progress }

// Transition starts cfg.Target and hands over to it after cfg.Duration. It
// returns false when the target is missing, already running, already in a
// transition, or this scene is in one.
func (p *ScenePlugin) Transition(cfg TransitionConfig) bool {
	if cfg.Target == "" {
		return false
	}
	target := p.manager.GetScene(cfg.Target)
	if !p.checkValidTransition(target) {
		return false
	}

	duration := cfg.Duration
	if duration <= 0 {
		duration = DefaultTransitionDuration
	}
	p.elapsed = 0
	p.progress = 0
	p.target = target
	p.duration = duration
	p.willSleep = cfg.Sleep
	p.willRemove = cfg.Remove
	p.onUpdate = cfg.OnUpdate
	p.sys.settings.TransitionAllowInput = cfg.AllowInput

	ts := target.Sys().settings
	ts.IsTransition = true
	ts.TransitionFrom = p.Key()
	ts.TransitionDuration = duration
	ts.TransitionAllowInput = cfg.AllowInput

	switch {
	case cfg.MoveAbove:
		p.manager.MoveAbove(p.Key(), cfg.Target)
	case cfg.MoveBelow:
		p.manager.MoveBelow(p.Key(), cfg.Target)
	}

	if target.Sys().IsSleeping() {
		target.Sys().Wake(cfg.Data)
	} else {
		p.manager.Start(cfg.Target, cfg.Data)
	}

	p.sys.events.Emit(EventTransitionOut, target, duration)
	p.stepHandle.Remove()
	p.stepHandle = p.sys.events.On(EventUpdate, p.step)
	return true
}

func (p *ScenePlugin) checkValidTransition(target Scene) bool {
	if target == nil || target == p.sys.scene {
		return false
	}
	ts := target.Sys()
	return !ts.IsActive() && !ts.IsTransitioning() && !p.sys.IsTransitioning()
}

func (p *ScenePlugin) step(args ...any) {
	if len(args) < 2 || p.target == nil {
		return
	}
	delta, _ := args[1].(time.Duration)
	p.elapsed += delta
	p.progress = clamp(float64(p.elapsed)/float64(p.duration), 0, 1)
	if p.onUpdate != nil {
		p.onUpdate(p.progress)
	}
	if p.elapsed >= p.duration {
		p.transitionComplete()
	}
}

func (p *ScenePlugin) transitionComplete() {
	target := p.target.Sys()
	p.stepHandle.Remove()

	target.events.Emit(EventTransitionComplete, p.sys.scene)
	target.settings.IsTransition = false
	target.settings.TransitionFrom = ""

	p.duration = 0
	p.target = nil
	p.onUpdate = nil

	switch {
	case p.willRemove:
		p.manager.Remove(p.Key())
	case p.willSleep:
		p.sys.Sleep(nil)
	default:
		p.manager.Stop(p.Key(), nil)
	}
}

// Nested returns a scene manager whose scenes update and render inside this
// scene. It shares the game's services and is destroyed with this scene.
func (p *ScenePlugin) Nested() *SceneManager {
	if p.nested != nil {
		return p.nested
	}
	child := newSceneManager(p.sys.game)
	child.isBooted = true
	ev := p.sys.events
	p.nestedHandles = append(p.nestedHandles,
		ev.On(EventUpdate, func(args ...any) {
			t, _ := args[0].(time.Duration)
			delta, _ := args[1].(time.Duration)
			child.Update(t, delta)
		}),
		ev.On(EventRender, func(args ...any) {
			if r, ok := args[0].(Renderer); ok {
				child.Render(r)
			}
		}),
	)
	p.nested = child
	return child
}

// reconcile applies the nested manager's queued work.
func (p *ScenePlugin) reconcile() {
	if p.nested != nil && !p.nested.isProcessing {
		p.nested.ProcessQueue()
	}
}
