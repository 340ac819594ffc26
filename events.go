package stagecraft

// Scene lifecycle events, emitted on a scene's [Systems.Events] bus.
const (
	EventBoot               = "boot"
	EventStart              = "start"
	EventReady              = "ready"
	EventCreate             = "create"
	EventPreUpdate          = "preupdate"
	EventUpdate             = "update"
	EventPostUpdate         = "postupdate"
	EventPreRender          = "prerender"
	EventRender             = "render"
	EventPause              = "pause"
	EventResume             = "resume"
	EventSleep              = "sleep"
	EventWake               = "wake"
	EventShutdown           = "shutdown"
	EventDestroy            = "destroy"
	EventTransitionInit     = "transitioninit"
	EventTransitionStart    = "transitionstart"
	EventTransitionWake     = "transitionwake"
	EventTransitionOut      = "transitionout"
	EventTransitionComplete = "transitioncomplete"
)

// TextureManager events.
const (
	EventAddTexture    = "addtexture"
	EventRemoveTexture = "removetexture"
	EventTextureLoad   = "onload"
	EventTextureError  = "onerror"
)

// LoaderPlugin events.
const (
	EventLoadStart    = "start"
	EventLoadProgress = "progress"
	EventFileComplete = "filecomplete"
	EventLoadError    = "loaderror"
	EventLoadComplete = "complete"
)

// DataManager and cache events.
const (
	EventSetData     = "setdata"
	EventChangeData  = "changedata"
	EventRemoveData  = "removedata"
	EventCacheAdd    = "add"
	EventCacheRemove = "remove"
)

// Listener receives the arguments passed to [EventEmitter.Emit].
type Listener func(args ...any)

type listenerEntry struct {
	id   uint32
	fn   Listener
	once bool
}

// EventEmitter is a small synchronous string-keyed event bus. It is not safe
// for concurrent use; every emitter in this package is driven from the frame
// goroutine.
type EventEmitter struct {
	handlers map[string][]listenerEntry
	nextID   uint32
}

// NewEventEmitter creates an empty emitter.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{handlers: make(map[string][]listenerEntry)}
}

// ListenerHandle allows removing a single registered listener.
type ListenerHandle struct {
	id    uint32
	em    *EventEmitter
	event string
}

// Remove unregisters the listener. Safe to call more than once.
func (h ListenerHandle) Remove() {
	if h.em == nil {
		return
	}
	h.em.handlers[h.event] = removeListener(h.em.handlers[h.event], h.id)
}

func removeListener(list []listenerEntry, id uint32) []listenerEntry {
	for i := range list {
		if list[i].id == id {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = listenerEntry{}
			return list[:len(list)-1]
		}
	}
	return list
}

// On registers fn for event.
func (e *EventEmitter) On(event string, fn Listener) ListenerHandle {
	return e.add(event, fn, false)
}

// Once registers fn for the next emission of event only.
func (e *EventEmitter) Once(event string, fn Listener) ListenerHandle {
	return e.add(event, fn, true)
}

func (e *EventEmitter) add(event string, fn Listener, once bool) ListenerHandle {
	if e.handlers == nil {
		e.handlers = make(map[string][]listenerEntry)
	}
	e.nextID++
	id := e.nextID
	e.handlers[event] = append(e.handlers[event], listenerEntry{id: id, fn: fn, once: once})
	return ListenerHandle{id: id, em: e, event: event}
}

// Off removes every listener registered for event.
func (e *EventEmitter) Off(event string) {
	delete(e.handlers, event)
}

// Emit calls the listeners of event in registration order and reports
// whether any were called. Listeners added during the emission are not
// called until the next one.
func (e *EventEmitter) Emit(event string, args ...any) bool {
	list := e.handlers[event]
	if len(list) == 0 {
		return false
	}
	snapshot := make([]listenerEntry, len(list))
	copy(snapshot, list)
	for _, l := range snapshot {
		if l.once {
			e.handlers[event] = removeListener(e.handlers[event], l.id)
		}
	}
	for _, l := range snapshot {
		l.fn(args...)
	}
	return true
}

// ListenerCount returns the number of listeners registered for event.
func (e *EventEmitter) ListenerCount(event string) int {
	return len(e.handlers[event])
}

// RemoveAllListeners drops every listener on every event.
func (e *EventEmitter) RemoveAllListeners() {
	e.handlers = make(map[string][]listenerEntry)
}
