package ecs

import (
	"time"

	"github.com/phanxgames/stagecraft"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// PluginKey is the scene plugin key registered by Register.
const PluginKey = "world"

// SceneEvent is published to a scene's world when the scene changes state.
// Name is one of the stagecraft lifecycle event names.
type SceneEvent struct {
	Scene string
	Name  string
	Data  any
}

// SceneEventType is the Donburi event type for scene lifecycle changes.
var SceneEventType = events.NewEventType[SceneEvent]()

// Sprite links an entity to a scene image.
type Sprite struct {
	Image *stagecraft.Image
}

// SpriteComponent holds the image of entities created by Spawn.
var SpriteComponent = donburi.NewComponentType[Sprite]()

var spriteQuery = donburi.NewQuery(filter.Contains(SpriteComponent))

// WorldPlugin owns one scene's donburi world.
type WorldPlugin struct {
	ECS *ecs.ECS

	sys     *stagecraft.Systems
	handles []stagecraft.ListenerHandle
	now     time.Duration
	delta   time.Duration
}

// Register adds the world plugin to every scene created by pm.
func Register(pm *stagecraft.PluginManager) error {
	return pm.RegisterScenePlugin(PluginKey, func(*stagecraft.Systems) stagecraft.ScenePluginInstance {
		return NewWorldPlugin(donburi.NewWorld())
	})
}

// NewWorldPlugin wraps world.
func NewWorldPlugin(world donburi.World) *WorldPlugin {
	return &WorldPlugin{ECS: ecs.NewECS(world)}
}

// Get returns the world plugin of sys, or nil if the scene has none.
func Get(sys *stagecraft.Systems) *WorldPlugin {
	p, _ := sys.Plugin(PluginKey).(*WorldPlugin)
	return p
}

// Boot implements stagecraft.ScenePluginInstance.
func (p *WorldPlugin) Boot(sys *stagecraft.Systems) {
	p.sys = sys
	ev := sys.Events()
	p.handles = append(p.handles,
		ev.On(stagecraft.EventStart, func(...any) { p.publish(stagecraft.EventStart, sys.Settings().Data) }),
		ev.On(stagecraft.EventUpdate, p.update),
		ev.On(stagecraft.EventShutdown, func(args ...any) {
			p.publish(stagecraft.EventShutdown, args[1])
			p.clearSprites()
		}),
	)
	for _, name := range []string{stagecraft.EventPause, stagecraft.EventResume, stagecraft.EventSleep, stagecraft.EventWake} {
		p.handles = append(p.handles, ev.On(name, func(args ...any) { p.publish(name, args[1]) }))
	}
}

// World returns the scene's donburi world.
func (p *WorldPlugin) World() donburi.World { return p.ECS.World }

// AddSystem runs s on every update of the scene, in the order added.
func (p *WorldPlugin) AddSystem(s ecs.System) *WorldPlugin {
	p.ECS.AddSystem(s)
	return p
}

// Time returns the scene time and delta of the update being processed.
func (p *WorldPlugin) Time() (now, delta time.Duration) { return p.now, p.delta }

// Spawn creates an entity for img. The entity is removed once the image is
// destroyed.
func (p *WorldPlugin) Spawn(img *stagecraft.Image, components ...donburi.IComponentType) donburi.Entity {
	world := p.ECS.World
	e := world.Create(append([]donburi.IComponentType{SpriteComponent}, components...)...)
	SpriteComponent.SetValue(world.Entry(e), Sprite{Image: img})
	return e
}

// Sprites returns the number of live sprite entities.
func (p *WorldPlugin) Sprites() int { return spriteQuery.Count(p.ECS.World) }

func (p *WorldPlugin) update(args ...any) {
	p.now, _ = args[0].(time.Duration)
	p.delta, _ = args[1].(time.Duration)
	p.pruneSprites()
	p.ECS.Update()
	events.ProcessAllEvents(p.ECS.World)
}

func (p *WorldPlugin) publish(name string, data any) {
	SceneEventType.Publish(p.ECS.World, SceneEvent{Scene: p.sys.Settings().Key, Name: name, Data: data})
	SceneEventType.ProcessEvents(p.ECS.World)
}

func (p *WorldPlugin) pruneSprites() {
	var dead []donburi.Entity
	spriteQuery.Each(p.ECS.World, func(entry *donburi.Entry) {
		if img := SpriteComponent.Get(entry).Image; img == nil || img.IsDestroyed() {
			dead = append(dead, entry.Entity())
		}
	})
	for _, e := range dead {
		p.ECS.World.Remove(e)
	}
}

func (p *WorldPlugin) clearSprites() {
	var all []donburi.Entity
	spriteQuery.Each(p.ECS.World, func(entry *donburi.Entry) {
		all = append(all, entry.Entity())
	})
	for _, e := range all {
		p.ECS.World.Remove(e)
	}
}

// Destroy implements stagecraft.ScenePluginInstance.
func (p *WorldPlugin) Destroy() {
	p.clearSprites()
	for _, h := range p.handles {
		h.Remove()
	}
	p.handles = nil
}
