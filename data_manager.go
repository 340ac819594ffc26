package stagecraft

import (
	"maps"
	"slices"
)

// DataManager is a key/value store that reports changes as events. The Game
// registry is one; every scene gets its own, sharing the scene's event bus.
//
// Events: setdata(parent, key, value) for new keys, changedata(parent, key,
// value, previous) and changedata-<key>(parent, value, previous) for updates,
// removedata(parent, key, value).
type DataManager struct {
	parent any
	events *EventEmitter
	list   map[string]any
	frozen bool
}

// NewDataManager creates a store. parent is passed as the first event
// argument. A nil events bus gets a private one.
func NewDataManager(parent any, events *EventEmitter) *DataManager {
	if events == nil {
		events = NewEventEmitter()
	}
	return &DataManager{
		parent: parent,
		events: events,
		list:   make(map[string]any),
	}
}

// Events returns the bus the store emits on.
func (d *DataManager) Events() *EventEmitter { return d.events }

// Get returns the value stored under key.
func (d *DataManager) Get(key string) any {
	return d.list[key]
}

// Lookup returns the value stored under key and whether it exists.
func (d *DataManager) Lookup(key string) (any, bool) {
	v, ok := d.list[key]
	return v, ok
}

// Has reports whether key is set.
func (d *DataManager) Has(key string) bool {
	_, ok := d.list[key]
	return ok
}

// Set stores value under key. Frozen stores ignore writes.
func (d *DataManager) Set(key string, value any) *DataManager {
	if d.frozen {
		return d
	}
	prev, ok := d.list[key]
	d.list[key] = value
	if !ok {
		d.events.Emit(EventSetData, d.parent, key, value)
		return d
	}
	d.events.Emit(EventChangeData, d.parent, key, value, prev)
	d.events.Emit(EventChangeData+"-"+key, d.parent, value, prev)
	return d
}

// Inc adds amount to a numeric value, treating a missing key as zero.
func (d *DataManager) Inc(key string, amount float64) *DataManager {
	cur, _ := d.list[key].(float64)
	return d.Set(key, cur+amount)
}

// Toggle flips a boolean value.
func (d *DataManager) Toggle(key string) *DataManager {
	cur, _ := d.list[key].(bool)
	return d.Set(key, !cur)
}

// Merge sets every entry of data. Existing keys are kept unless overwrite is
// true.
func (d *DataManager) Merge(data map[string]any, overwrite bool) *DataManager {
	keys := slices.Sorted(maps.Keys(data))
	for _, k := range keys {
		if overwrite || !d.Has(k) {
			d.Set(k, data[k])
		}
	}
	return d
}

// Remove deletes key and emits removedata.
func (d *DataManager) Remove(keys ...string) *DataManager {
	if d.frozen {
		return d
	}
	for _, k := range keys {
		v, ok := d.list[k]
		if !ok {
			continue
		}
		delete(d.list, k)
		d.events.Emit(EventRemoveData, d.parent, k, v)
	}
	return d
}

// Pop removes key and returns its value.
func (d *DataManager) Pop(key string) any {
	v, ok := d.list[key]
	if !ok || d.frozen {
		return nil
	}
	d.Remove(key)
	return v
}

// Each calls fn for every entry in key order.
func (d *DataManager) Each(fn func(key string, value any)) {
	for _, k := range slices.Sorted(maps.Keys(d.list)) {
		fn(k, d.list[k])
	}
}

// Keys returns the stored keys in order.
func (d *DataManager) Keys() []string {
	return slices.Sorted(maps.Keys(d.list))
}

// Count returns the number of entries.
func (d *DataManager) Count() int { return len(d.list) }

// SetFrozen makes the store read-only while frozen is true.
func (d *DataManager) SetFrozen(frozen bool) *DataManager {
	d.frozen = frozen
	return d
}

// Reset drops every entry without emitting events and unfreezes the store.
func (d *DataManager) Reset() *DataManager {
	clear(d.list)
	d.frozen = false
	return d
}
