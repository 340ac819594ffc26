package stagecraft

import (
	"maps"
	"time"
)

// Status is the lifecycle state of a scene.
type Status uint8

const (
	StatusPending   Status = iota // added, Systems not yet initialised
	StatusInit                    // Systems wired, waiting to start
	StatusStart                   // start requested, init/preload about to run
	StatusLoading                 // preload queued files, waiting on the loader
	StatusCreating                // create callback running
	StatusRunning                 // receives update and render
	StatusPaused                  // renders, does not update
	StatusSleeping                // neither renders nor updates
	StatusShutdown                // stopped, can be started again
	StatusDestroyed               // removed from the manager
)

var statusNames = [...]string{
	"pending", "init", "start", "loading", "creating",
	"running", "paused", "sleeping", "shutdown", "destroyed",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// ScaleMode selects the texture filter used when a scene's textures are
// drawn scaled.
type ScaleMode uint8

const (
	ScaleLinear ScaleMode = iota
	ScaleNearest
)

// CameraConfig describes one camera created when a scene starts.
type CameraConfig struct {
	Name        string  `yaml:"name"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Zoom        float64 `yaml:"zoom"`
	Rotation    float64 `yaml:"rotation"`
	ScrollX     float64 `yaml:"scrollX"`
	ScrollY     float64 `yaml:"scrollY"`
	RoundPixels bool    `yaml:"roundPixels"`
}

// SceneConfig is the loose configuration a scene is built from. Zero values
// take the defaults documented on each field.
type SceneConfig struct {
	// Key uniquely identifies the scene. Empty means the key passed to Add.
	Key string `yaml:"key"`
	// Active starts the scene as soon as it is added.
	Active bool `yaml:"active"`
	// Visible defaults to true.
	Visible *bool `yaml:"visible"`
	// Files are loaded before init and preload run.
	Files []FileConfig `yaml:"files"`
	// Cameras replaces the default full-screen main camera.
	Cameras []CameraConfig `yaml:"cameras"`
	// Map overrides entries of the injection map. An empty value removes the
	// capability.
	Map map[string]string `yaml:"map"`
	// Physics is passed through untouched for physics plugins.
	Physics map[string]any `yaml:"physics"`
	// Plugins replaces the list of optional scene plugins. Core plugins are
	// always installed.
	Plugins []string `yaml:"plugins"`

	ScaleMode       ScaleMode `yaml:"scaleMode"`
	RoundPixels     bool      `yaml:"roundPixels"`
	DirtyRender     bool      `yaml:"dirtyRender"`
	RenderToTexture bool      `yaml:"renderToTexture"`
	AutoResize      bool      `yaml:"autoResize"`
}

// DefaultInjectionMap maps Systems capabilities to the names scenes use to
// look them up with [Systems.Capability].
var DefaultInjectionMap = map[string]string{
	"game":        "game",
	"anims":       "anims",
	"cache":       "cache",
	"plugins":     "plugins",
	"registry":    "registry",
	"sound":       "sound",
	"textures":    "textures",
	"events":      "events",
	"cameras":     "cameras",
	"add":         "add",
	"make":        "make",
	"scenePlugin": "scene",
	"displayList": "children",
	"updateList":  "updateList",
	"data":        "data",
	"load":        "load",
	"time":        "time",
	"tweens":      "tweens",
}

// Settings is the per-scene record derived from a SceneConfig when the scene
// is added. Its lifecycle fields change only through Systems transitions.
type Settings struct {
	Key     string
	Status  Status
	Active  bool
	Visible bool

	IsBooted             bool
	IsTransition         bool
	TransitionFrom       string
	TransitionDuration   time.Duration
	TransitionAllowInput bool

	// Data is the payload passed to start, init and create.
	Data any
	Pack []FileConfig

	Cameras []CameraConfig
	Map     map[string]string
	Physics map[string]any
	Plugins []string

	ScaleMode       ScaleMode
	RoundPixels     bool
	DirtyRender     bool
	RenderToTexture bool
	AutoResize      bool
}

// NewSettings builds a Settings record from cfg plus defaults.
func NewSettings(cfg SceneConfig) *Settings {
	visible := true
	if cfg.Visible != nil {
		visible = *cfg.Visible
	}

	injection := maps.Clone(DefaultInjectionMap)
	for k, v := range cfg.Map {
		if v == "" {
			delete(injection, k)
			continue
		}
		injection[k] = v
	}

	physics := cfg.Physics
	if physics == nil {
		physics = map[string]any{}
	}

	return &Settings{
		Key:             cfg.Key,
		Status:          StatusPending,
		Active:          cfg.Active,
		Visible:         visible,
		Pack:            cfg.Files,
		Cameras:         cfg.Cameras,
		Map:             injection,
		Physics:         physics,
		Plugins:         cfg.Plugins,
		ScaleMode:       cfg.ScaleMode,
		RoundPixels:     cfg.RoundPixels,
		DirtyRender:     cfg.DirtyRender,
		RenderToTexture: cfg.RenderToTexture,
		AutoResize:      cfg.AutoResize,
	}
}
