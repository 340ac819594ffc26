package stagecraft

import (
	"errors"
	"time"
)

// Scene is a game screen managed by a SceneManager. Implement it by embedding
// BaseScene in a struct and adding any of the optional hook methods:
// Initer, Preloader, Creator, Updater, Drawer, Pauser, Resumer, Sleeper,
// Waker, ShutdownHandler and Destroyer.
type Scene interface {
	Sys() *Systems
	setSys(sys *Systems)
}

// Initer is called with the start data before preload.
type Initer interface {
	Init(data any)
}

// Preloader queues files on the scene's loader. create runs once they have
// loaded.
type Preloader interface {
	Preload()
}

// Creator builds the scene once its files are loaded.
type Creator interface {
	Create(data any)
}

// Updater is called every frame while the scene is running.
type Updater interface {
	Update(t, delta time.Duration)
}

// Drawer is called after the cameras have rendered the display list.
type Drawer interface {
	Draw(r Renderer)
}

// Pauser is called when the scene is paused.
type Pauser interface {
	Pause(data any)
}

// Resumer is called when the scene is resumed.
type Resumer interface {
	Resume(data any)
}

// Sleeper is called when the scene is put to sleep.
type Sleeper interface {
	Sleep(data any)
}

// Waker is called when the scene wakes.
type Waker interface {
	Wake(data any)
}

// ShutdownHandler is called when the scene is stopped.
type ShutdownHandler interface {
	Shutdown(data any)
}

// Destroyer is called once when the scene is removed.
type Destroyer interface {
	Destroy()
}

// SceneConfigurer supplies the scene's configuration when it is added.
type SceneConfigurer interface {
	SceneConfig() SceneConfig
}

// CapabilityUser lists the capability names a scene needs. Adding the scene
// fails with ErrMissingCapability if its injection map lacks one.
type CapabilityUser interface {
	Requires() []string
}

// BaseScene provides the Scene plumbing and typed access to the scene's
// services.
type BaseScene struct {
	sys *Systems
}

// Sys returns the scene's Systems.
func (s *BaseScene) Sys() *Systems { return s.sys }

func (s *BaseScene) setSys(sys *Systems) { s.sys = sys }

// Key returns the scene key.
func (s *BaseScene) Key() string { return s.sys.settings.Key }

// Game returns the owning game.
func (s *BaseScene) Game() *Game { return s.sys.game }

// Events returns the scene event bus.
func (s *BaseScene) Events() *EventEmitter { return s.sys.events }

// Scene returns the plugin used to control this and other scenes.
func (s *BaseScene) Scene() *ScenePlugin { return s.sys.ScenePlugin() }

// Textures returns the game's texture manager.
func (s *BaseScene) Textures() *TextureManager { return s.sys.textures }

// Load returns the scene's loader.
func (s *BaseScene) Load() *LoaderPlugin { return s.sys.Load() }

// Add returns the factory adding game objects to this scene.
func (s *BaseScene) Add() *GameObjectFactory { return s.sys.Add() }

// Make returns the factory building detached game objects.
func (s *BaseScene) Make() *GameObjectCreator { return s.sys.Make() }

// Cameras returns the scene's camera manager.
func (s *BaseScene) Cameras() *CameraManager { return s.sys.Cameras() }

// Time returns the scene clock.
func (s *BaseScene) Time() *Clock { return s.sys.Time() }

// Tweens returns the scene's tween manager.
func (s *BaseScene) Tweens() *TweenManager { return s.sys.Tweens() }

// Children returns the scene's display list.
func (s *BaseScene) Children() *DisplayList { return s.sys.DisplayList() }

// Data returns the scene's own data store.
func (s *BaseScene) Data() *DataManager { return s.sys.data }

// Registry returns the game-wide data store.
func (s *BaseScene) Registry() *DataManager { return s.sys.registry }

// Cache returns the game's asset caches.
func (s *BaseScene) Cache() *CacheManager { return s.sys.cache }

// Sound returns the game's sound manager.
func (s *BaseScene) Sound() *SoundManager { return s.sys.sound }

// Anims returns the game's animation manager.
func (s *BaseScene) Anims() *AnimationManager { return s.sys.anims }

// SceneDescriptor builds a scene from plain functions. Extend entries are
// copied into the scene's Props, except a map under "data", which is merged
// into the scene's data store.
type SceneDescriptor struct {
	Config  SceneConfig
	Init    func(s *FuncScene, data any)
	Preload func(s *FuncScene)
	Create  func(s *FuncScene, data any)
	Update  func(s *FuncScene, t, delta time.Duration)
	Draw    func(s *FuncScene, r Renderer)
	Extend  map[string]any
}

// FuncScene is the scene built from a SceneDescriptor.
type FuncScene struct {
	BaseScene
	Props map[string]any

	desc SceneDescriptor
}

// SceneSource is one of the three ways to supply a scene to Add: an existing
// instance, a descriptor, or a factory.
type SceneSource struct {
	instance   Scene
	descriptor *SceneDescriptor
	factory    func() Scene
}

// Instance supplies a ready-made scene.
func Instance(s Scene) SceneSource { return SceneSource{instance: s} }

// Descriptor supplies a scene built from functions.
func Descriptor(d SceneDescriptor) SceneSource { return SceneSource{descriptor: &d} }

// Factory supplies a constructor called once when the scene is added.
func Factory(f func() Scene) SceneSource { return SceneSource{factory: f} }

var errEmptySceneSource = errors.New("stagecraft: scene source is empty")

func (src SceneSource) build() (Scene, error) {
	switch {
	case src.instance != nil:
		return src.instance, nil
	case src.descriptor != nil:
		d := *src.descriptor
		fs := &FuncScene{desc: d, Props: map[string]any{}}
		for k, v := range d.Extend {
			if k == "data" {
				if _, ok := v.(map[string]any); ok {
					continue
				}
			}
			fs.Props[k] = v
		}
		return fs, nil
	case src.factory != nil:
		if s := src.factory(); s != nil {
			return s, nil
		}
	}
	return nil, errEmptySceneSource
}

// sceneConfigOf returns the configuration a built scene declares.
func sceneConfigOf(s Scene) SceneConfig {
	switch v := s.(type) {
	case *FuncScene:
		return v.desc.Config
	case SceneConfigurer:
		return v.SceneConfig()
	}
	return SceneConfig{}
}

// sceneHooks are the optional callbacks of a scene, resolved once when it is
// added.
type sceneHooks struct {
	init     func(data any)
	preload  func()
	create   func(data any)
	update   func(t, delta time.Duration)
	draw     func(r Renderer)
	pause    func(data any)
	resume   func(data any)
	sleep    func(data any)
	wake     func(data any)
	shutdown func(data any)
	destroy  func()
}

func resolveHooks(s Scene) sceneHooks {
	if fs, ok := s.(*FuncScene); ok {
		return fs.hooks()
	}
	var h sceneHooks
	if v, ok := s.(Initer); ok {
		h.init = v.Init
	}
	if v, ok := s.(Preloader); ok {
		h.preload = v.Preload
	}
	if v, ok := s.(Creator); ok {
		h.create = v.Create
	}
	if v, ok := s.(Updater); ok {
		h.update = v.Update
	}
	if v, ok := s.(Drawer); ok {
		h.draw = v.Draw
	}
	if v, ok := s.(Pauser); ok {
		h.pause = v.Pause
	}
	if v, ok := s.(Resumer); ok {
		h.resume = v.Resume
	}
	if v, ok := s.(Sleeper); ok {
		h.sleep = v.Sleep
	}
	if v, ok := s.(Waker); ok {
		h.wake = v.Wake
	}
	if v, ok := s.(ShutdownHandler); ok {
		h.shutdown = v.Shutdown
	}
	if v, ok := s.(Destroyer); ok {
		h.destroy = v.Destroy
	}
	return h
}

func (s *FuncScene) hooks() sceneHooks {
	var h sceneHooks
	d := s.desc
	if d.Init != nil {
		h.init = func(data any) { d.Init(s, data) }
	}
	if d.Preload != nil {
		h.preload = func() { d.Preload(s) }
	}
	if d.Create != nil {
		h.create = func(data any) { d.Create(s, data) }
	}
	if d.Update != nil {
		h.update = func(t, delta time.Duration) { d.Update(s, t, delta) }
	}
	if d.Draw != nil {
		h.draw = func(r Renderer) { d.Draw(s, r) }
	}
	return h
}

// extendData returns the map a descriptor merges into the scene data store.
func (s *FuncScene) extendData() map[string]any {
	m, _ := s.desc.Extend["data"].(map[string]any)
	return m
}
