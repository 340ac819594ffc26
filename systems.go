package stagecraft

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

func noopUpdate(t, delta time.Duration) {}

// Systems binds one Scene to the Game's shared services and to the scene's
// own plugins. It is created when the scene is added and lives as long as the
// scene does.
type Systems struct {
	scene    Scene
	game     *Game
	manager  *SceneManager
	settings *Settings
	hooks    sceneHooks
	events   *EventEmitter
	logger   *log.Logger

	anims         *AnimationManager
	cache         *CacheManager
	registry      *DataManager
	sound         *SoundManager
	textures      *TextureManager
	pluginManager *PluginManager
	data          *DataManager

	plugins      []installedPlugin
	pluginsByKey map[string]ScenePluginInstance

	sceneUpdate func(t, delta time.Duration)
	loadHandle  ListenerHandle
}

func newSystems(scene Scene, cfg SceneConfig) *Systems {
	sys := &Systems{
		scene:        scene,
		settings:     NewSettings(cfg),
		hooks:        resolveHooks(scene),
		pluginsByKey: make(map[string]ScenePluginInstance),
		sceneUpdate:  noopUpdate,
		logger:       discardLogger(),
	}
	scene.setSys(sys)
	return sys
}

// init wires the scene to the game and installs its plugins.
func (s *Systems) init(game *Game, manager *SceneManager) error {
	s.settings.Status = StatusInit
	s.sceneUpdate = noopUpdate

	s.game = game
	s.manager = manager
	s.logger = game.logger
	s.anims = game.anims
	s.cache = game.cache
	s.registry = game.registry
	s.sound = game.sound
	s.textures = game.textures
	s.pluginManager = game.plugins

	s.events = NewEventEmitter()
	s.data = NewDataManager(s.scene, s.events)

	game.plugins.install(s)

	if cu, ok := s.scene.(CapabilityUser); ok {
		for _, name := range cu.Requires() {
			if s.Capability(name) == nil {
				s.destroyPlugins()
				return fmt.Errorf("stagecraft: scene %q requires %q: %w", s.settings.Key, name, ErrMissingCapability)
			}
		}
	}

	s.events.Emit(EventBoot, s)
	s.settings.IsBooted = true
	return nil
}

// Capability returns the service the injection map exposes under name, or
// nil when the map does not expose it.
func (s *Systems) Capability(name string) any {
	for key, alias := range s.settings.Map {
		if alias == name {
			return s.capability(key)
		}
	}
	return nil
}

func (s *Systems) capability(key string) any {
	switch key {
	case "game":
		return s.game
	case "anims":
		return s.anims
	case "cache":
		return s.cache
	case "plugins":
		return s.pluginManager
	case "registry":
		return s.registry
	case "sound":
		return s.sound
	case "textures":
		return s.textures
	case "events":
		return s.events
	case "data":
		return s.data
	case "scenePlugin":
		key = PluginSceneManager
	}
	if p, ok := s.pluginsByKey[key]; ok {
		return p
	}
	return nil
}

func pluginAs[T any](s *Systems, key string) T {
	v, _ := s.pluginsByKey[key].(T)
	return v
}

// Plugin returns the installed plugin registered under key, or nil.
func (s *Systems) Plugin(key string) ScenePluginInstance { return s.pluginsByKey[key] }

// Scene returns the scene this Systems belongs to.
func (s *Systems) Scene() Scene { return s.scene }

// Game returns the owning game.
func (s *Systems) Game() *Game { return s.game }

// Settings returns the scene settings.
func (s *Systems) Settings() *Settings { return s.settings }

// Events returns the scene event bus.
func (s *Systems) Events() *EventEmitter { return s.events }

// Logger returns the game logger.
func (s *Systems) Logger() *log.Logger { return s.logger }

// Textures returns the game's texture manager.
func (s *Systems) Textures() *TextureManager { return s.textures }

// Data returns the scene data store.
func (s *Systems) Data() *DataManager { return s.data }

// DisplayList returns the scene's display list.
func (s *Systems) DisplayList() *DisplayList { return pluginAs[*DisplayList](s, PluginDisplayList) }

// UpdateList returns the scene's update list.
func (s *Systems) UpdateList() *UpdateList { return pluginAs[*UpdateList](s, PluginUpdateList) }

// ScenePlugin returns the scene's scene-control plugin.
func (s *Systems) ScenePlugin() *ScenePlugin { return pluginAs[*ScenePlugin](s, PluginSceneManager) }

// Time returns the scene clock.
func (s *Systems) Time() *Clock { return pluginAs[*Clock](s, PluginTime) }

// Cameras returns the scene's camera manager.
func (s *Systems) Cameras() *CameraManager { return pluginAs[*CameraManager](s, PluginCameras) }

// Add returns the scene's game object factory.
func (s *Systems) Add() *GameObjectFactory { return pluginAs[*GameObjectFactory](s, PluginAdd) }

// Make returns the scene's game object creator.
func (s *Systems) Make() *GameObjectCreator { return pluginAs[*GameObjectCreator](s, PluginMake) }

// Load returns the scene's loader.
func (s *Systems) Load() *LoaderPlugin { return pluginAs[*LoaderPlugin](s, PluginLoad) }

// Tweens returns the scene's tween manager.
func (s *Systems) Tweens() *TweenManager { return pluginAs[*TweenManager](s, PluginTweens) }

// step runs one frame of scene logic.
func (s *Systems) step(t, delta time.Duration) {
	if sp := s.ScenePlugin(); sp != nil {
		sp.reconcile()
	}
	if !s.settings.Active {
		return
	}
	s.events.Emit(EventPreUpdate, t, delta)
	s.events.Emit(EventUpdate, t, delta)
	s.sceneUpdate(t, delta)
	s.events.Emit(EventPostUpdate, t, delta)
}

// render draws the scene through its cameras.
func (s *Systems) render(r Renderer) {
	dl := s.DisplayList()
	if dl != nil {
		dl.DepthSort()
	}
	s.events.Emit(EventPreRender, r)
	if cams := s.Cameras(); cams != nil && dl != nil {
		cams.Render(r, dl)
	}
	if s.hooks.draw != nil {
		s.hooks.draw(r)
	}
	s.events.Emit(EventRender, r)
}

// Pause stops the scene updating. It keeps rendering.
func (s *Systems) Pause(data any) *Systems {
	if !s.settings.Active {
		return s
	}
	s.settings.Status = StatusPaused
	s.settings.Active = false
	s.events.Emit(EventPause, s, data)
	if s.hooks.pause != nil {
		s.hooks.pause(data)
	}
	return s
}

// Resume restarts updates of a paused scene.
func (s *Systems) Resume(data any) *Systems {
	if s.settings.Status != StatusPaused {
		return s
	}
	s.settings.Status = StatusRunning
	s.settings.Active = true
	s.events.Emit(EventResume, s, data)
	if s.hooks.resume != nil {
		s.hooks.resume(data)
	}
	return s
}

// Sleep stops the scene updating and rendering without shutting it down.
func (s *Systems) Sleep(data any) *Systems {
	s.settings.Status = StatusSleeping
	s.settings.Active = false
	s.settings.Visible = false
	s.events.Emit(EventSleep, s, data)
	if s.hooks.sleep != nil {
		s.hooks.sleep(data)
	}
	return s
}

// Wake resumes a sleeping scene.
func (s *Systems) Wake(data any) *Systems {
	settings := s.settings
	settings.Status = StatusRunning
	settings.Active = true
	settings.Visible = true
	s.events.Emit(EventWake, s, data)
	if s.hooks.wake != nil {
		s.hooks.wake(data)
	}
	if settings.IsTransition {
		s.events.Emit(EventTransitionWake, settings.TransitionFrom, settings.TransitionDuration)
	}
	return s
}

// SetActive pauses or resumes the scene.
func (s *Systems) SetActive(value bool, data any) *Systems {
	if value {
		return s.Resume(data)
	}
	return s.Pause(data)
}

// SetVisible toggles rendering.
func (s *Systems) SetVisible(value bool) *Systems {
	s.settings.Visible = value
	return s
}

// IsActive reports whether the scene is running.
func (s *Systems) IsActive() bool { return s.settings.Status == StatusRunning }

// IsPaused reports whether the scene is paused.
func (s *Systems) IsPaused() bool { return s.settings.Status == StatusPaused }

// IsSleeping reports whether the scene is asleep.
func (s *Systems) IsSleeping() bool { return s.settings.Status == StatusSleeping }

// IsVisible reports whether the scene renders.
func (s *Systems) IsVisible() bool { return s.settings.Visible }

// IsTransitioning reports whether the scene is either end of a transition.
func (s *Systems) IsTransitioning() bool {
	if s.settings.IsTransition {
		return true
	}
	sp := s.ScenePlugin()
	return sp != nil && sp.target != nil
}

// start marks the scene started and notifies its plugins.
func (s *Systems) start(data any) {
	settings := s.settings
	if data != nil {
		settings.Data = data
	}
	settings.Status = StatusStart
	settings.Active = true
	settings.Visible = true

	for _, p := range s.plugins {
		if st, ok := p.instance.(PluginStarter); ok {
			st.Start()
		}
	}
	s.events.Emit(EventStart, s)
	s.events.Emit(EventReady, s, data)
}

// shutdown stops the scene. It can be started again.
func (s *Systems) shutdown(data any) {
	s.events.Off(EventTransitionInit)
	s.events.Off(EventTransitionStart)
	s.events.Off(EventTransitionComplete)
	s.events.Off(EventTransitionOut)

	s.settings.Status = StatusShutdown
	s.settings.Active = false
	s.settings.Visible = false

	for i := len(s.plugins) - 1; i >= 0; i-- {
		if sd, ok := s.plugins[i].instance.(PluginShutdowner); ok {
			sd.Shutdown()
		}
	}
	s.events.Emit(EventShutdown, s, data)
	if s.hooks.shutdown != nil {
		s.hooks.shutdown(data)
	}
}

// destroy tears the scene down for good.
func (s *Systems) destroy() {
	s.settings.Status = StatusDestroyed
	s.settings.Active = false
	s.settings.Visible = false

	s.events.Emit(EventDestroy, s)
	if s.hooks.destroy != nil {
		s.hooks.destroy()
	}
	s.destroyPlugins()
	s.events.RemoveAllListeners()
}

func (s *Systems) destroyPlugins() {
	for i := len(s.plugins) - 1; i >= 0; i-- {
		s.plugins[i].instance.Destroy()
	}
	s.plugins = nil
	clear(s.pluginsByKey)
}
