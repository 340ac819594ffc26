// Package ecs bridges stagecraft scenes into [Donburi] worlds.
//
// [Register] adds a "world" scene plugin that gives every scene its own
// donburi world. The world's systems run on the scene's update event, so they
// stop while the scene is paused or asleep, and scene lifecycle changes are
// published as [SceneEvent] values.
//
// Usage:
//
//	ecs.Register(game.Plugins())
//	w := ecs.Get(scene.Sys())
//	w.AddSystem(moveEnemies)
//	w.Spawn(scene.Add().Image(x, y, "enemy", ""))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
