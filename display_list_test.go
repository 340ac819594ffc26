package stagecraft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayListAddRemove(t *testing.T) {
	dl := NewDisplayList()
	a := NewImage(0, 0, nil, "")
	dl.Add(a)
	dl.Add(a)
	assert.Equal(t, 1, dl.Len())
	assert.Same(t, dl, a.displayList)

	assert.True(t, dl.Remove(a))
	assert.False(t, dl.Remove(a))
	assert.Nil(t, a.displayList)
	assert.False(t, a.IsDestroyed(), "remove does not destroy")
}

func TestDisplayListDepthSort(t *testing.T) {
	dl := NewDisplayList()
	a, b, c := NewImage(0, 0, nil, ""), NewImage(0, 0, nil, ""), NewImage(0, 0, nil, "")
	a.Name, b.Name, c.Name = "a", "b", "c"
	dl.Add(a)
	dl.Add(b)
	dl.Add(c)

	names := func() []string {
		var out []string
		for _, obj := range dl.List() {
			out = append(out, obj.(*Image).Name)
		}
		return out
	}

	dl.DepthSort()
	assert.Equal(t, []string{"a", "b", "c"}, names())

	a.SetDepth(5)
	c.SetDepth(-1)
	assert.Equal(t, []string{"a", "b", "c"}, names(), "sorting waits for the next render")
	dl.DepthSort()
	assert.Equal(t, []string{"c", "b", "a"}, names())

	b.SetDepth(5)
	dl.DepthSort()
	assert.Equal(t, []string{"c", "a", "b"}, names(), "equal depths keep insertion order")
}

func TestDisplayListShutdownDestroys(t *testing.T) {
	dl := NewDisplayList()
	a, b := NewImage(0, 0, nil, ""), NewImage(0, 0, nil, "")
	dl.Add(a)
	dl.Add(b)

	b.Destroy()
	assert.Equal(t, 1, dl.Len(), "a destroyed image leaves its list")

	dl.Shutdown()
	assert.Zero(t, dl.Len())
	assert.True(t, a.IsDestroyed())
}

type countingUpdatable struct {
	n         int
	destroyed bool
}

func (c *countingUpdatable) PreUpdate(_, _ time.Duration) { c.n++ }
func (c *countingUpdatable) IsDestroyed() bool            { return c.destroyed }

func TestUpdateListDefersChanges(t *testing.T) {
	ul := NewUpdateList()
	a := &countingUpdatable{}
	ul.Add(a)
	ul.Add(a)
	assert.Equal(t, 1, ul.Len())

	ul.update(0, tick)
	assert.Zero(t, a.n, "pending objects wait for preupdate")

	ul.reconcile()
	ul.update(0, tick)
	assert.Equal(t, 1, a.n)

	ul.Remove(a)
	assert.Zero(t, ul.Len())
	ul.update(0, tick)
	assert.Equal(t, 2, a.n, "removal waits for preupdate")
	ul.reconcile()
	ul.update(0, tick)
	assert.Equal(t, 2, a.n)
}

func TestUpdateListSkipsDestroyed(t *testing.T) {
	g := newBootedGame(t, testConfig())
	s := newLifecycleScene("a")
	addScene(t, g, s, true, nil)

	u := &countingUpdatable{}
	s.Sys().UpdateList().Add(u)
	runFrame(g, nil)
	assert.Equal(t, 1, u.n)

	u.destroyed = true
	runFrame(g, nil)
	runFrame(g, nil)
	assert.Equal(t, 1, u.n)
	assert.Zero(t, s.Sys().UpdateList().Len())

	g.Scene().Sleep("a", nil)
	u.destroyed = false
	s.Sys().UpdateList().Add(u)
	runFrame(g, nil)
	assert.Equal(t, 1, u.n, "a sleeping scene does not update its objects")
}
