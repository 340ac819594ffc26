package stagecraft

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
)

// Core scene plugin keys, installed into every scene in this order.
const (
	PluginDisplayList  = "displayList"
	PluginUpdateList   = "updateList"
	PluginSceneManager = "sceneManager"
	PluginTime         = "time"
	PluginCameras      = "cameras"
	PluginAdd          = "add"
	PluginMake         = "make"
	PluginLoad         = "load"
	PluginTweens       = "tweens"
)

var corePlugins = []string{
	PluginDisplayList,
	PluginUpdateList,
	PluginSceneManager,
	PluginTime,
	PluginCameras,
	PluginAdd,
	PluginMake,
	PluginLoad,
	PluginTweens,
}

// ScenePluginInstance is a per-scene service owned by a scene's Systems.
// Boot runs once when the scene is added, Destroy once when it is removed.
// Plugins may also implement PluginStarter and PluginShutdowner.
type ScenePluginInstance interface {
	Boot(sys *Systems)
	Destroy()
}

// PluginStarter is called each time the owning scene starts.
type PluginStarter interface {
	Start()
}

// PluginShutdowner is called each time the owning scene shuts down.
type PluginShutdowner interface {
	Shutdown()
}

// PluginFactory builds a plugin instance for one scene.
type PluginFactory func(sys *Systems) ScenePluginInstance

// PluginManager holds the scene plugin factories of a Game.
type PluginManager struct {
	factories map[string]PluginFactory
	extras    []string
	logger    *log.Logger
}

// NewPluginManager creates a manager with the core plugins registered.
func NewPluginManager(logger *log.Logger) *PluginManager {
	if logger == nil {
		logger = discardLogger()
	}
	pm := &PluginManager{
		factories: make(map[string]PluginFactory),
		logger:    logger,
	}
	pm.factories[PluginDisplayList] = func(*Systems) ScenePluginInstance { return NewDisplayList() }
	pm.factories[PluginUpdateList] = func(*Systems) ScenePluginInstance { return NewUpdateList() }
	pm.factories[PluginSceneManager] = func(*Systems) ScenePluginInstance { return &ScenePlugin{} }
	pm.factories[PluginTime] = func(*Systems) ScenePluginInstance { return NewClock() }
	pm.factories[PluginCameras] = func(*Systems) ScenePluginInstance { return &CameraManager{} }
	pm.factories[PluginAdd] = func(*Systems) ScenePluginInstance { return &GameObjectFactory{} }
	pm.factories[PluginMake] = func(*Systems) ScenePluginInstance { return &GameObjectCreator{} }
	pm.factories[PluginLoad] = func(*Systems) ScenePluginInstance { return &LoaderPlugin{} }
	pm.factories[PluginTweens] = func(*Systems) ScenePluginInstance { return NewTweenManager() }
	return pm
}

// RegisterScenePlugin adds an optional plugin installed after the core
// plugins of every scene that does not override its plugin list.
func (pm *PluginManager) RegisterScenePlugin(key string, factory PluginFactory) error {
	if _, ok := pm.factories[key]; ok {
		return fmt.Errorf("stagecraft: scene plugin %q: %w", key, ErrDuplicateKey)
	}
	pm.factories[key] = factory
	pm.extras = append(pm.extras, key)
	return nil
}

// Has reports whether a factory is registered under key.
func (pm *PluginManager) Has(key string) bool {
	_, ok := pm.factories[key]
	return ok
}

// sceneKeys returns the ordered plugin list for a scene. A non-nil override
// replaces the registered extras; core plugins are always first.
func (pm *PluginManager) sceneKeys(override []string) []string {
	keys := slices.Clone(corePlugins)
	extras := pm.extras
	if override != nil {
		extras = override
	}
	for _, k := range extras {
		if slices.Contains(keys, k) {
			continue
		}
		if _, ok := pm.factories[k]; !ok {
			pm.logger.Warn("unknown scene plugin", "plugin", k)
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

type installedPlugin struct {
	key      string
	instance ScenePluginInstance
}

// install builds and boots the plugin list of sys in order.
func (pm *PluginManager) install(sys *Systems) {
	for _, k := range pm.sceneKeys(sys.settings.Plugins) {
		p := pm.factories[k](sys)
		if p == nil {
			continue
		}
		sys.plugins = append(sys.plugins, installedPlugin{key: k, instance: p})
		sys.pluginsByKey[k] = p
		p.Boot(sys)
	}
}
