package stagecraft

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
)

// Game owns the global services shared by every scene and drives the scene
// manager from ebiten's Update and Draw. It implements ebiten.Game.
type Game struct {
	Config Config

	logger   *log.Logger
	level    log.Level
	events   *EventEmitter
	textures *TextureManager
	cache    *CacheManager
	registry *DataManager
	sound    *SoundManager
	anims    *AnimationManager
	plugins  *PluginManager
	scene    *SceneManager
	renderer *EbitenRenderer
	script   *ScriptRunner

	elapsed   time.Duration
	booted    bool
	ready     bool
	destroyed bool
	debug     bool
	stats     frameStats
}

// NewGame builds a game and its services. The scenes are queued until the
// boot textures have decoded; the first one starts automatically.
func NewGame(cfg Config, scenes ...SceneSource) *Game {
	g := &Game{Config: cfg}
	g.logger = newLogger(cfg.LogOutput, cfg.LogLevel)
	g.level = g.logger.GetLevel()
	g.events = NewEventEmitter()
	g.textures = NewTextureManager(g.logger)
	g.cache = NewCacheManager()
	g.registry = NewDataManager(g, NewEventEmitter())
	g.sound = NewSoundManager(g.cache.Audio, cfg.SampleRate, g.logger)
	g.anims = NewAnimationManager(g.textures)
	g.plugins = NewPluginManager(g.logger)
	g.scene = NewSceneManager(g, scenes...)
	g.renderer = NewEbitenRenderer(nil)
	if cfg.Debug {
		g.SetDebugMode(true)
	}
	return g
}

// Boot starts decoding the boot textures. The ready event fires from the
// first Step after both have been decoded. Boot runs once.
func (g *Game) Boot() {
	if g.booted {
		return
	}
	g.booted = true
	g.textures.Boot(g.Config.DefaultImage, g.Config.MissingImage, func() {
		g.ready = true
		g.logger.Debug("game ready")
		g.events.Emit(EventReady, g)
	})
}

// IsReady reports whether the ready event has fired.
func (g *Game) IsReady() bool { return g.ready }

// Step advances the game by delta: decoded textures are registered, then
// every scene updates.
func (g *Game) Step(delta time.Duration) {
	if g.destroyed {
		return
	}
	start := time.Now()
	g.elapsed += delta
	g.textures.Poll()
	if g.script != nil {
		g.script.step(g)
	}
	g.scene.Update(g.elapsed, delta)
	g.stats.update = time.Since(start)
}

// Render draws every visible scene through r.
func (g *Game) Render(r Renderer) {
	if g.destroyed {
		return
	}
	g.scene.Render(r)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if !g.booted {
		g.Boot()
	}
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = 60
	}
	g.Step(time.Second / time.Duration(tps))
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	g.renderer.SetTarget(screen)
	g.Render(g.renderer)
	g.stats.render = time.Since(start)
	g.stats.drawCalls = g.renderer.DrawCalls
	g.drawOverlay(screen)
	g.debugLog()
}

// Layout implements ebiten.Game.
func (g *Game) Layout(int, int) (int, int) {
	return g.Config.Width, g.Config.Height
}

// Run opens the window and blocks until the game exits.
func (g *Game) Run() error {
	ebiten.SetWindowSize(g.Config.Width, g.Config.Height)
	ebiten.SetWindowTitle(g.Config.Title)
	if g.Config.TPS > 0 {
		ebiten.SetTPS(g.Config.TPS)
	}
	g.Boot()
	defer g.Destroy()
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("stagecraft: run: %w", err)
	}
	return nil
}

// Destroy shuts down every scene and releases the global services.
func (g *Game) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	g.scene.Destroy()
	g.anims.Destroy()
	g.sound.Destroy()
	g.textures.Destroy()
	g.cache.Destroy()
	g.registry.Reset()
	g.events.RemoveAllListeners()
}

// Elapsed returns the game time accumulated by Step.
func (g *Game) Elapsed() time.Duration { return g.elapsed }

// Events returns the game event bus.
func (g *Game) Events() *EventEmitter { return g.events }

// Logger returns the game logger.
func (g *Game) Logger() *log.Logger { return g.logger }

// Textures returns the texture manager.
func (g *Game) Textures() *TextureManager { return g.textures }

// Cache returns the asset caches.
func (g *Game) Cache() *CacheManager { return g.cache }

// Registry returns the game-wide data store.
func (g *Game) Registry() *DataManager { return g.registry }

// Sound returns the sound manager.
func (g *Game) Sound() *SoundManager { return g.sound }

// Anims returns the animation manager.
func (g *Game) Anims() *AnimationManager { return g.anims }

// Plugins returns the scene plugin registry.
func (g *Game) Plugins() *PluginManager { return g.plugins }

// Scene returns the scene manager.
func (g *Game) Scene() *SceneManager { return g.scene }
