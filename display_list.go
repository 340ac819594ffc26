package stagecraft

import (
	"cmp"
	"slices"
	"time"
)

// GameObject is anything a scene's DisplayList can render.
type GameObject interface {
	// Depth orders objects within the list; higher draws later.
	Depth() float64
	// WillRender reports whether the object should be drawn by cam.
	WillRender(cam *Camera) bool
	Draw(r Renderer, cam *Camera)
	Destroy()
	IsDestroyed() bool
}

// listMember is implemented by objects that need to know the list they
// belong to, so depth changes can mark it unsorted.
type listMember interface {
	setDisplayList(dl *DisplayList)
}

// DisplayList holds a scene's game objects in render order. It is sorted by
// depth before each render when any depth has changed; equal depths keep
// their insertion order.
type DisplayList struct {
	list   []GameObject
	sorted bool
}

// NewDisplayList creates an empty list.
func NewDisplayList() *DisplayList {
	return &DisplayList{sorted: true}
}

// Boot implements ScenePluginInstance.
func (dl *DisplayList) Boot(*Systems) {}

// Add appends obj unless it is already present.
func (dl *DisplayList) Add(obj GameObject) GameObject {
	if slices.Contains(dl.list, obj) {
		return obj
	}
	dl.list = append(dl.list, obj)
	if m, ok := obj.(listMember); ok {
		m.setDisplayList(dl)
	}
	dl.sorted = false
	return obj
}

// Remove detaches obj and reports whether it was present. The object is not
// destroyed.
func (dl *DisplayList) Remove(obj GameObject) bool {
	i := slices.Index(dl.list, obj)
	if i < 0 {
		return false
	}
	dl.list = slices.Delete(dl.list, i, i+1)
	if m, ok := obj.(listMember); ok {
		m.setDisplayList(nil)
	}
	return true
}

// List returns the objects in render order. The returned slice MUST NOT be
// mutated by the caller.
func (dl *DisplayList) List() []GameObject { return dl.list }

// Len returns the number of objects.
func (dl *DisplayList) Len() int { return len(dl.list) }

// QueueDepthSort marks the list for sorting before the next render.
func (dl *DisplayList) QueueDepthSort() { dl.sorted = false }

// DepthSort sorts the list by depth if it has been marked unsorted.
func (dl *DisplayList) DepthSort() {
	if dl.sorted {
		return
	}
	slices.SortStableFunc(dl.list, func(a, b GameObject) int {
		return cmp.Compare(a.Depth(), b.Depth())
	})
	dl.sorted = true
}

// Shutdown implements PluginShutdowner. Every object is destroyed.
func (dl *DisplayList) Shutdown() {
	list := dl.list
	dl.list = nil
	for _, obj := range list {
		if m, ok := obj.(listMember); ok {
			m.setDisplayList(nil)
		}
		obj.Destroy()
	}
	dl.sorted = true
}

// Destroy implements ScenePluginInstance.
func (dl *DisplayList) Destroy() { dl.Shutdown() }

// Updatable is an object that runs logic before its scene's update hook.
type Updatable interface {
	PreUpdate(t, delta time.Duration)
}

// UpdateList calls PreUpdate on its objects every frame the scene updates.
// Additions and removals take effect at the next preupdate.
type UpdateList struct {
	active  []Updatable
	pending []Updatable
	removed []Updatable
	handles []ListenerHandle
}

// NewUpdateList creates an empty list.
func NewUpdateList() *UpdateList { return &UpdateList{} }

// Boot implements ScenePluginInstance.
func (ul *UpdateList) Boot(sys *Systems) {
	ul.handles = append(ul.handles,
		sys.events.On(EventPreUpdate, func(...any) { ul.reconcile() }),
		sys.events.On(EventUpdate, func(args ...any) {
			t, _ := args[0].(time.Duration)
			delta, _ := args[1].(time.Duration)
			ul.update(t, delta)
		}),
	)
}

// Add schedules obj for updates.
func (ul *UpdateList) Add(obj Updatable) {
	if slices.Contains(ul.active, obj) || slices.Contains(ul.pending, obj) {
		return
	}
	ul.removed = slices.DeleteFunc(ul.removed, func(u Updatable) bool { return u == obj })
	ul.pending = append(ul.pending, obj)
}

// Remove stops updating obj.
func (ul *UpdateList) Remove(obj Updatable) {
	ul.pending = slices.DeleteFunc(ul.pending, func(u Updatable) bool { return u == obj })
	if slices.Contains(ul.active, obj) {
		ul.removed = append(ul.removed, obj)
	}
}

// Len returns the number of objects, including ones not yet active.
func (ul *UpdateList) Len() int { return len(ul.active) + len(ul.pending) - len(ul.removed) }

func (ul *UpdateList) reconcile() {
	if len(ul.removed) > 0 {
		ul.active = slices.DeleteFunc(ul.active, func(u Updatable) bool {
			return slices.Contains(ul.removed, u)
		})
		ul.removed = nil
	}
	if len(ul.pending) > 0 {
		ul.active = append(ul.active, ul.pending...)
		ul.pending = nil
	}
}

func (ul *UpdateList) update(t, delta time.Duration) {
	for _, u := range ul.active {
		if d, ok := u.(interface{ IsDestroyed() bool }); ok && d.IsDestroyed() {
			ul.Remove(u)
			continue
		}
		u.PreUpdate(t, delta)
	}
}

// Shutdown implements PluginShutdowner.
func (ul *UpdateList) Shutdown() {
	ul.active = nil
	ul.pending = nil
	ul.removed = nil
}

// Destroy implements ScenePluginInstance.
func (ul *UpdateList) Destroy() {
	ul.Shutdown()
	for _, h := range ul.handles {
		h.Remove()
	}
	ul.handles = nil
}
