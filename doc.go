// Package stagecraft is a scene lifecycle manager and texture registry for
// [Ebitengine] games.
//
// A [Game] owns the process-wide services (textures, cache, registry, sound,
// animations, plugins) and a [SceneManager] that drives every registered
// scene through a fixed state machine:
//
//	pending -> init -> start -> loading -> creating -> running
//	running <-> paused
//	running <-> sleeping
//	any -> shutdown -> destroyed
//
// # Quick start
//
//	type Menu struct{ stagecraft.BaseScene }
//
//	func (m *Menu) Preload() {
//		m.Load().Atlas("ui", "ui.png", "ui.json")
//	}
//
//	func (m *Menu) Create(data any) {
//		m.Add().Image(320, 240, "ui", "logo")
//	}
//
//	func main() {
//		cfg := stagecraft.DefaultConfig()
//		cfg.Assets = os.DirFS("assets")
//		game := stagecraft.NewGame(cfg, stagecraft.Instance(&Menu{}))
//		if err := game.Run(); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// For headless use (tools, tests) skip [Game.Run] and drive the loop with
// [Game.Boot], [Game.Step] and [Game.Render].
//
// # Scenes
//
// A scene is any type embedding [BaseScene]. Lifecycle callbacks are optional
// interfaces ([Initer], [Preloader], [Creator], [Updater], [Drawer] and the
// pause/sleep/shutdown family); the manager resolves them once when the scene
// is added. Scenes can also be described with plain functions through
// [Descriptor], or built lazily through [Factory].
//
// Structural changes to the scene list requested while the manager is
// iterating it are queued and replayed at the start of the next frame, so
// update and render always see a stable order. Updates run in reverse list
// order and rendering runs forward, so later scenes draw on top and receive
// updates first.
//
// # Textures
//
// [TextureManager] maps keys to [Texture] values. Each texture owns one or
// more sources and a set of named [Frame] rectangles, parsed from TexturePacker
// JSON (array or hash), Starling XML, Unity sprite metadata or sprite sheet
// grids. Unknown keys resolve to the "__MISSING" texture and an empty key
// resolves to "__DEFAULT", so render code always has something to draw.
//
// [Ebitengine]: https://ebitengine.org
package stagecraft
