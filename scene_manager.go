package stagecraft

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// SceneOp is a scene operation that can be queued with QueueOp.
type SceneOp uint8

const (
	OpStart SceneOp = iota
	OpStop
	OpPause
	OpResume
	OpSleep
	OpWake
	OpSwitch
	OpRun
	OpRemove
	OpBringToTop
	OpSendToBack
	OpMoveUp
	OpMoveDown
	OpMoveAbove
	OpMoveBelow
	OpSwapPosition
)

var sceneOpNames = [...]string{
	"start", "stop", "pause", "resume", "sleep", "wake", "switch", "run",
	"remove", "bringToTop", "sendToBack", "moveUp", "moveDown", "moveAbove",
	"moveBelow", "swapPosition",
}

func (op SceneOp) String() string {
	if int(op) < len(sceneOpNames) {
		return sceneOpNames[op]
	}
	return fmt.Sprintf("SceneOp(%d)", op)
}

type pendingAdd struct {
	key       string
	source    SceneSource
	autoStart bool
	data      any
}

type queuedOp struct {
	op   SceneOp
	keyA string
	keyB string
	data any
}

type bootData struct {
	autoStart bool
	data      any
}

// SceneManager owns the ordered list of scenes and drives their lifecycle.
// The list order is render order; updates run in reverse so the top scene
// updates first.
//
// Structural changes requested while a frame is being processed are queued
// and applied at the start of the next Update, so the list never changes
// while it is being iterated.
type SceneManager struct {
	game   *Game
	logger *log.Logger

	scenes  []Scene
	keys    map[string]Scene
	pending []pendingAdd
	start   []string
	queue   []queuedOp
	data    map[string]bootData

	isProcessing bool
	isBooted     bool
	destroyed    bool

	readyHandle ListenerHandle
}

// NewSceneManager creates the manager of a game. The initial scenes are
// queued until the game's ready event; the first one starts automatically.
func NewSceneManager(game *Game, sources ...SceneSource) *SceneManager {
	m := newSceneManager(game)
	for i, src := range sources {
		m.pending = append(m.pending, pendingAdd{
			key:       "default",
			source:    src,
			autoStart: i == 0,
		})
	}
	m.readyHandle = game.events.Once(EventReady, func(...any) { m.BootQueue() })
	return m
}

func newSceneManager(game *Game) *SceneManager {
	return &SceneManager{
		game:   game,
		logger: game.logger,
		keys:   make(map[string]Scene),
		data:   make(map[string]bootData),
	}
}

// IsBooted reports whether the game's ready event has fired.
func (m *SceneManager) IsBooted() bool { return m.isBooted }

// IsProcessing reports whether a frame sweep is in progress.
func (m *SceneManager) IsProcessing() bool { return m.isProcessing }

// BootQueue builds the scenes queued before boot and starts those marked to
// auto-start. It runs once.
func (m *SceneManager) BootQueue() {
	if m.isBooted || m.destroyed {
		return
	}

	for i := 0; i < len(m.pending); i++ {
		entry := m.pending[i]
		scene, err := m.createScene(entry.key, entry.source)
		if err != nil {
			m.logger.Error("failed to add scene", "key", entry.key, "error", err)
			continue
		}
		settings := scene.Sys().settings
		if bd, ok := m.data[settings.Key]; ok {
			settings.Data = bd.data
			if bd.autoStart {
				entry.autoStart = true
			}
		}
		if entry.autoStart || settings.Active {
			m.start = append(m.start, settings.Key)
		}
	}
	m.pending = nil
	clear(m.data)

	m.isBooted = true

	starts := m.start
	m.start = nil
	for _, key := range starts {
		m.Start(key, nil)
	}
}

// ProcessQueue applies the adds and operations deferred during the last
// frame. Operations queued while the queue drains run in the same pass.
func (m *SceneManager) ProcessQueue() {
	if len(m.pending) == 0 && len(m.start) == 0 && len(m.queue) == 0 {
		return
	}

	if len(m.pending) > 0 {
		for i := 0; i < len(m.pending); i++ {
			e := m.pending[i]
			if _, err := m.Add(e.key, e.source, e.autoStart, e.data); err != nil {
				m.logger.Error("failed to add scene", "key", e.key, "error", err)
			}
		}
		m.pending = nil
	}

	if len(m.start) > 0 {
		starts := m.start
		m.start = nil
		for _, key := range starts {
			m.Start(key, nil)
		}
	}

	for i := 0; i < len(m.queue); i++ {
		m.applyOp(m.queue[i])
	}
	m.queue = nil
}

// QueueOp defers an operation to the next ProcessQueue.
func (m *SceneManager) QueueOp(op SceneOp, keyA, keyB string, data any) {
	m.queue = append(m.queue, queuedOp{op: op, keyA: keyA, keyB: keyB, data: data})
}

func (m *SceneManager) applyOp(q queuedOp) {
	switch q.op {
	case OpStart:
		m.Start(q.keyA, q.data)
	case OpStop:
		m.Stop(q.keyA, q.data)
	case OpPause:
		m.Pause(q.keyA, q.data)
	case OpResume:
		m.Resume(q.keyA, q.data)
	case OpSleep:
		m.Sleep(q.keyA, q.data)
	case OpWake:
		m.Wake(q.keyA, q.data)
	case OpSwitch:
		m.Switch(q.keyA, q.keyB, q.data)
	case OpRun:
		m.Run(q.keyA, q.data)
	case OpRemove:
		m.Remove(q.keyA)
	case OpBringToTop:
		m.BringToTop(q.keyA)
	case OpSendToBack:
		m.SendToBack(q.keyA)
	case OpMoveUp:
		m.MoveUp(q.keyA)
	case OpMoveDown:
		m.MoveDown(q.keyA)
	case OpMoveAbove:
		m.MoveAbove(q.keyA, q.keyB)
	case OpMoveBelow:
		m.MoveBelow(q.keyA, q.keyB)
	case OpSwapPosition:
		m.SwapPosition(q.keyA, q.keyB)
	default:
		m.logger.Warn("unknown scene operation", "op", q.op)
	}
}

// Add builds a scene from source and registers it. The key declared in the
// scene's config wins over key; an empty result becomes "default".
//
// While a frame is processing, or before boot, the add is queued and Add
// returns (nil, nil); look the scene up by key later. A key already in use
// returns ErrDuplicateKey and changes nothing.
func (m *SceneManager) Add(key string, source SceneSource, autoStart bool, data any) (Scene, error) {
	if m.isProcessing || !m.isBooted {
		m.pending = append(m.pending, pendingAdd{key: key, source: source, autoStart: autoStart, data: data})
		if !m.isBooted {
			m.data[key] = bootData{data: data}
		}
		return nil, nil
	}

	scene, err := m.createScene(key, source)
	if err != nil {
		return nil, err
	}
	settings := scene.Sys().settings
	settings.Data = data

	if autoStart || settings.Active {
		if len(m.pending) > 0 {
			m.start = append(m.start, settings.Key)
		} else {
			m.Start(settings.Key, nil)
		}
	}
	return scene, nil
}

func (m *SceneManager) createScene(key string, source SceneSource) (Scene, error) {
	scene, err := source.build()
	if err != nil {
		return nil, fmt.Errorf("stagecraft: scene %q: %w", key, err)
	}
	cfg := sceneConfigOf(scene)
	if cfg.Key == "" {
		cfg.Key = key
	}
	if cfg.Key == "" {
		cfg.Key = "default"
	}
	if _, ok := m.keys[cfg.Key]; ok {
		return nil, fmt.Errorf("stagecraft: cannot add scene %q: %w", cfg.Key, ErrDuplicateKey)
	}

	sys := newSystems(scene, cfg)
	if err := sys.init(m.game, m); err != nil {
		return nil, err
	}
	if fs, ok := scene.(*FuncScene); ok {
		if d := fs.extendData(); d != nil {
			sys.data.Merge(d, true)
		}
	}

	m.keys[cfg.Key] = scene
	m.scenes = append(m.scenes, scene)
	return scene, nil
}

// Remove destroys a scene and drops it from the manager. Unknown and
// transitioning scenes are ignored.
func (m *SceneManager) Remove(key string) {
	if m.isProcessing {
		m.QueueOp(OpRemove, key, "", nil)
		return
	}
	scene, ok := m.keys[key]
	if !ok || scene.Sys().IsTransitioning() {
		return
	}
	if i := slices.Index(m.scenes, scene); i >= 0 {
		m.scenes = slices.Delete(m.scenes, i, i+1)
	}
	delete(m.keys, key)
	m.start = slices.DeleteFunc(m.start, func(k string) bool { return k == key })
	scene.Sys().destroy()
}

// Update steps every scene whose status is past start and at most running,
// topmost scene first.
func (m *SceneManager) Update(t, delta time.Duration) {
	if m.destroyed {
		return
	}
	// Update may run several times per Render; the previous sweep is over.
	m.isProcessing = false
	m.ProcessQueue()
	m.isProcessing = true

	for i := len(m.scenes) - 1; i >= 0; i-- {
		sys := m.scenes[i].Sys()
		if st := sys.settings.Status; st > StatusStart && st <= StatusRunning {
			sys.step(t, delta)
		}
	}
}

// Render draws every visible scene from loading up to (not including)
// sleeping, bottom scene first.
func (m *SceneManager) Render(r Renderer) {
	if m.destroyed {
		return
	}
	for _, scene := range m.scenes {
		sys := scene.Sys()
		if st := sys.settings.Status; sys.settings.Visible && st >= StatusLoading && st < StatusSleeping {
			sys.render(r)
		}
	}
	m.isProcessing = false
}

// Start starts or restarts a scene. Before boot the request is remembered
// and applied when the scene is built.
func (m *SceneManager) Start(key string, data any) {
	if !m.isBooted {
		m.data[key] = bootData{autoStart: true, data: data}
		return
	}
	scene, ok := m.keys[key]
	if !ok {
		m.logger.Warn("scene key not found", "key", key)
		return
	}
	sys := scene.Sys()
	if st := sys.settings.Status; st >= StatusStart && st <= StatusSleeping {
		sys.shutdown(nil)
	}
	sys.sceneUpdate = noopUpdate
	sys.start(data)

	if loader := sys.Load(); loader != nil && len(sys.settings.Pack) > 0 {
		loader.Reset()
		if loader.AddPack(sys.settings.Pack) > 0 {
			sys.settings.Status = StatusLoading
			sys.loadHandle = loader.Once(EventLoadComplete, func(...any) { m.bootScene(scene) })
			loader.Start()
			return
		}
	}
	m.bootScene(scene)
}

// bootScene runs init and preload, then create once the loader finishes.
func (m *SceneManager) bootScene(scene Scene) {
	sys := scene.Sys()
	settings := sys.settings

	if sys.hooks.init != nil {
		sys.hooks.init(settings.Data)
		settings.Status = StatusInit
		if settings.IsTransition {
			sys.events.Emit(EventTransitionInit, settings.TransitionFrom, settings.TransitionDuration)
		}
	}

	loader := sys.Load()
	if loader != nil {
		loader.Reset()
	}
	if loader != nil && sys.hooks.preload != nil {
		sys.hooks.preload()
		if loader.Len() == 0 {
			m.create(scene)
			return
		}
		settings.Status = StatusLoading
		sys.loadHandle = loader.Once(EventLoadComplete, func(...any) { m.create(scene) })
		loader.Start()
		return
	}
	m.create(scene)
}

// create runs the create hook and marks the scene running, unless the hook
// stopped or destroyed the scene.
func (m *SceneManager) create(scene Scene) {
	sys := scene.Sys()
	settings := sys.settings

	settings.Status = StatusCreating
	if sys.hooks.create != nil {
		sys.hooks.create(settings.Data)
		if st := settings.Status; st == StatusDestroyed || st == StatusShutdown {
			return
		}
	}
	if settings.IsTransition {
		sys.events.Emit(EventTransitionStart, settings.TransitionFrom, settings.TransitionDuration)
	}
	if sys.hooks.update != nil {
		sys.sceneUpdate = sys.hooks.update
	}
	settings.Status = StatusRunning
	sys.events.Emit(EventCreate, scene)
}

// Stop shuts a scene down. It can be started again.
func (m *SceneManager) Stop(key string, data any) {
	scene, ok := m.keys[key]
	if !ok {
		return
	}
	sys := scene.Sys()
	if sys.IsTransitioning() {
		return
	}
	if st := sys.settings.Status; st == StatusShutdown || st == StatusDestroyed {
		return
	}
	sys.loadHandle.Remove()
	sys.shutdown(data)
}

// Pause stops a running scene updating.
func (m *SceneManager) Pause(key string, data any) {
	scene, ok := m.keys[key]
	if !ok {
		return
	}
	sys := scene.Sys()
	if st := sys.settings.Status; st != StatusRunning && st != StatusCreating {
		m.logger.Warn("cannot pause scene that is not running", "key", key, "status", st)
		return
	}
	sys.Pause(data)
}

// Resume restarts updates of a paused scene.
func (m *SceneManager) Resume(key string, data any) {
	scene, ok := m.keys[key]
	if !ok {
		return
	}
	sys := scene.Sys()
	if !sys.IsPaused() {
		return
	}
	sys.Resume(data)
}

// Sleep stops a scene updating and rendering.
func (m *SceneManager) Sleep(key string, data any) {
	scene, ok := m.keys[key]
	if !ok {
		return
	}
	sys := scene.Sys()
	if sys.IsTransitioning() {
		return
	}
	if st := sys.settings.Status; st != StatusRunning && st != StatusCreating && st != StatusPaused {
		m.logger.Warn("cannot sleep scene that is not running", "key", key, "status", st)
		return
	}
	sys.Sleep(data)
}

// Wake resumes a sleeping scene.
func (m *SceneManager) Wake(key string, data any) {
	scene, ok := m.keys[key]
	if !ok {
		return
	}
	sys := scene.Sys()
	if !sys.IsSleeping() {
		return
	}
	sys.Wake(data)
}

// Run wakes a sleeping scene, resumes a paused one and starts anything else.
// A scene still waiting in the add queue gets a queued start.
func (m *SceneManager) Run(key string, data any) {
	scene, ok := m.keys[key]
	if !ok {
		for _, p := range m.pending {
			if p.key == key {
				m.QueueOp(OpStart, key, "", data)
				break
			}
		}
		return
	}
	sys := scene.Sys()
	switch {
	case sys.IsSleeping():
		sys.Wake(data)
	case sys.IsPaused():
		sys.Resume(data)
	default:
		m.Start(key, data)
	}
}

// Switch puts from to sleep, then wakes or starts to.
func (m *SceneManager) Switch(from, to string, data any) {
	a, okA := m.keys[from]
	b, okB := m.keys[to]
	if !okA || !okB || a == b {
		return
	}
	m.Sleep(from, nil)
	if m.IsSleeping(to) {
		m.Wake(to, data)
	} else {
		m.Start(to, data)
	}
}

// BringToTop moves a scene to the end of the list so it renders last.
func (m *SceneManager) BringToTop(key string) {
	if m.isProcessing {
		m.QueueOp(OpBringToTop, key, "", nil)
		return
	}
	i := m.GetIndex(key)
	if i < 0 || i == len(m.scenes)-1 {
		return
	}
	s := m.scenes[i]
	m.scenes = append(slices.Delete(m.scenes, i, i+1), s)
}

// SendToBack moves a scene to the start of the list so it renders first.
func (m *SceneManager) SendToBack(key string) {
	if m.isProcessing {
		m.QueueOp(OpSendToBack, key, "", nil)
		return
	}
	i := m.GetIndex(key)
	if i <= 0 {
		return
	}
	s := m.scenes[i]
	m.scenes = slices.Insert(slices.Delete(m.scenes, i, i+1), 0, s)
}

// MoveUp swaps a scene with the one above it.
func (m *SceneManager) MoveUp(key string) {
	if m.isProcessing {
		m.QueueOp(OpMoveUp, key, "", nil)
		return
	}
	i := m.GetIndex(key)
	if i < 0 || i >= len(m.scenes)-1 {
		return
	}
	m.scenes[i], m.scenes[i+1] = m.scenes[i+1], m.scenes[i]
}

// MoveDown swaps a scene with the one below it.
func (m *SceneManager) MoveDown(key string) {
	if m.isProcessing {
		m.QueueOp(OpMoveDown, key, "", nil)
		return
	}
	i := m.GetIndex(key)
	if i <= 0 {
		return
	}
	m.scenes[i], m.scenes[i-1] = m.scenes[i-1], m.scenes[i]
}

// MoveAbove places scene keyB directly above scene keyA.
func (m *SceneManager) MoveAbove(keyA, keyB string) {
	if keyA == keyB {
		return
	}
	if m.isProcessing {
		m.QueueOp(OpMoveAbove, keyA, keyB, nil)
		return
	}
	m.moveRelative(keyA, keyB, 1)
}

// MoveBelow places scene keyB directly below scene keyA.
func (m *SceneManager) MoveBelow(keyA, keyB string) {
	if keyA == keyB {
		return
	}
	if m.isProcessing {
		m.QueueOp(OpMoveBelow, keyA, keyB, nil)
		return
	}
	m.moveRelative(keyA, keyB, 0)
}

func (m *SceneManager) moveRelative(keyA, keyB string, offset int) {
	ia, ib := m.GetIndex(keyA), m.GetIndex(keyB)
	if ia < 0 || ib < 0 {
		return
	}
	b := m.scenes[ib]
	m.scenes = slices.Delete(m.scenes, ib, ib+1)
	ia = m.GetIndex(keyA)
	m.scenes = slices.Insert(m.scenes, ia+offset, b)
}

// SwapPosition swaps two scenes in the list.
func (m *SceneManager) SwapPosition(keyA, keyB string) {
	if keyA == keyB {
		return
	}
	if m.isProcessing {
		m.QueueOp(OpSwapPosition, keyA, keyB, nil)
		return
	}
	ia, ib := m.GetIndex(keyA), m.GetIndex(keyB)
	if ia < 0 || ib < 0 {
		return
	}
	m.scenes[ia], m.scenes[ib] = m.scenes[ib], m.scenes[ia]
}

// GetScene returns the scene registered under key, or nil.
func (m *SceneManager) GetScene(key string) Scene {
	return m.keys[key]
}

// GetAt returns the scene at index i of the list, or nil.
func (m *SceneManager) GetAt(i int) Scene {
	if i < 0 || i >= len(m.scenes) {
		return nil
	}
	return m.scenes[i]
}

// GetIndex returns the list position of a scene, or -1.
func (m *SceneManager) GetIndex(key string) int {
	s, ok := m.keys[key]
	if !ok {
		return -1
	}
	return slices.Index(m.scenes, s)
}

// GetScenes returns a copy of the scene list, optionally only running scenes
// and optionally top first.
func (m *SceneManager) GetScenes(activeOnly, reverse bool) []Scene {
	out := make([]Scene, 0, len(m.scenes))
	for _, s := range m.scenes {
		if activeOnly && !s.Sys().IsActive() {
			continue
		}
		out = append(out, s)
	}
	if reverse {
		slices.Reverse(out)
	}
	return out
}

// Keys returns the scene keys in list order.
func (m *SceneManager) Keys() []string {
	out := make([]string, len(m.scenes))
	for i, s := range m.scenes {
		out[i] = s.Sys().settings.Key
	}
	return out
}

// Len returns the number of registered scenes.
func (m *SceneManager) Len() int { return len(m.scenes) }

// IsActive reports whether the scene is running.
func (m *SceneManager) IsActive(key string) bool {
	s, ok := m.keys[key]
	return ok && s.Sys().IsActive()
}

// IsPaused reports whether the scene is paused.
func (m *SceneManager) IsPaused(key string) bool {
	s, ok := m.keys[key]
	return ok && s.Sys().IsPaused()
}

// IsVisible reports whether the scene renders.
func (m *SceneManager) IsVisible(key string) bool {
	s, ok := m.keys[key]
	return ok && s.Sys().IsVisible()
}

// IsSleeping reports whether the scene is asleep.
func (m *SceneManager) IsSleeping(key string) bool {
	s, ok := m.keys[key]
	return ok && s.Sys().IsSleeping()
}

// Dump returns one line per scene in list order: "[*] key (running)" for
// visible running or paused scenes and "[-] key (status)" otherwise.
func (m *SceneManager) Dump() string {
	var b strings.Builder
	for _, s := range m.scenes {
		settings := s.Sys().settings
		mark := "[-]"
		if settings.Visible && (settings.Status == StatusRunning || settings.Status == StatusPaused) {
			mark = "[*]"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", mark, settings.Key, settings.Status)
	}
	return b.String()
}

// Destroy destroys every scene, top first. The manager is unusable afterwards.
func (m *SceneManager) Destroy() {
	for i := len(m.scenes) - 1; i >= 0; i-- {
		m.scenes[i].Sys().destroy()
	}
	m.readyHandle.Remove()
	m.scenes = nil
	clear(m.keys)
	m.pending = nil
	m.start = nil
	m.queue = nil
	m.destroyed = true
}
