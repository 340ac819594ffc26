package stagecraft

import (
	"image"
	"slices"

	"github.com/charmbracelet/log"
)

// BaseFrame is the name of the frame every texture source carries, covering
// the whole source.
const BaseFrame = "__BASE"

// Texture is a registry entry owning one or more sources and the named frames
// cut from them.
type Texture struct {
	Key        string
	Source     []*TextureSource
	DataSource []*TextureSource

	// FirstFrame is the first frame added other than BaseFrame; it is
	// returned when a frame lookup fails.
	FirstFrame string
	FrameTotal int
	CustomData map[string]any

	frames  map[string]*Frame
	order   []string
	manager *TextureManager
}

func newTexture(m *TextureManager, key string, canvas bool, sources ...image.Image) *Texture {
	t := &Texture{
		Key:        key,
		FirstFrame: BaseFrame,
		CustomData: map[string]any{},
		frames:     make(map[string]*Frame),
		manager:    m,
	}
	for _, src := range sources {
		t.Source = append(t.Source, newTextureSource(t, src, canvas))
	}
	return t
}

// Add creates a frame. It returns nil if a frame with that name already
// exists.
func (t *Texture) Add(name string, sourceIndex, x, y, width, height int) *Frame {
	if t.Has(name) {
		return nil
	}
	f := newFrame(t, name, sourceIndex, x, y, width, height)
	t.frames[name] = f
	t.order = append(t.order, name)

	if t.FirstFrame == BaseFrame {
		t.FirstFrame = name
	}
	t.FrameTotal++
	return f
}

// Remove deletes a frame and reports whether it existed.
func (t *Texture) Remove(name string) bool {
	f, ok := t.frames[name]
	if !ok {
		return false
	}
	f.destroy()
	delete(t.frames, name)
	if i := slices.Index(t.order, name); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
	return true
}

// Has reports whether the texture has a frame called name.
func (t *Texture) Has(name string) bool {
	_, ok := t.frames[name]
	return ok
}

// Get returns the named frame. An empty name returns the first frame; an
// unknown name logs a warning and also returns the first frame.
func (t *Texture) Get(name string) *Frame {
	if name == "" {
		name = t.FirstFrame
	}
	f, ok := t.frames[name]
	if !ok {
		t.logger().Warn("texture has no such frame", "texture", t.Key, "frame", name)
		f = t.frames[t.FirstFrame]
	}
	return f
}

// GetTextureSourceIndex returns the index of src in Source, or -1.
func (t *Texture) GetTextureSourceIndex(src *TextureSource) int {
	return slices.Index(t.Source, src)
}

// GetFramesFromTextureSource returns the frames cut from the given source,
// in insertion order.
func (t *Texture) GetFramesFromTextureSource(sourceIndex int, includeBase bool) []*Frame {
	var out []*Frame
	for _, name := range t.order {
		if name == BaseFrame && !includeBase {
			continue
		}
		if f := t.frames[name]; f.SourceIndex == sourceIndex {
			out = append(out, f)
		}
	}
	return out
}

// GetFrameBounds returns the rectangle enclosing every frame of a source.
func (t *Texture) GetFrameBounds(sourceIndex int) image.Rectangle {
	frames := t.GetFramesFromTextureSource(sourceIndex, true)
	if len(frames) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(frames[0].CutX, frames[0].CutY,
		frames[0].CutX+frames[0].CutWidth, frames[0].CutY+frames[0].CutHeight)
	for _, f := range frames[1:] {
		r = r.Union(image.Rect(f.CutX, f.CutY, f.CutX+f.CutWidth, f.CutY+f.CutHeight))
	}
	return r
}

// GetFrameNames returns frame names in insertion order.
func (t *Texture) GetFrameNames(includeBase bool) []string {
	out := make([]string, 0, len(t.order))
	for _, name := range t.order {
		if name == BaseFrame && !includeBase {
			continue
		}
		out = append(out, name)
	}
	return out
}

// GetSourceImage returns the source image the named frame cuts from.
func (t *Texture) GetSourceImage(name string) image.Image {
	if name == "" || t.FrameTotal == 1 {
		name = BaseFrame
	}
	f, ok := t.frames[name]
	if !ok {
		t.logger().Warn("texture has no such frame", "texture", t.Key, "frame", name)
		f = t.frames[BaseFrame]
	}
	if f == nil || f.source == nil {
		return nil
	}
	return f.source.Image
}

// GetDataSourceImage returns the data source (normal map and the like)
// matching the named frame's source.
func (t *Texture) GetDataSourceImage(name string) image.Image {
	if name == "" || t.FrameTotal == 1 {
		name = BaseFrame
	}
	idx := 0
	if f, ok := t.frames[name]; ok {
		idx = f.SourceIndex
	} else {
		t.logger().Warn("texture has no such frame", "texture", t.Key, "frame", name)
		if base, ok := t.frames[BaseFrame]; ok {
			idx = base.SourceIndex
		}
	}
	if idx >= len(t.DataSource) {
		return nil
	}
	return t.DataSource[idx].Image
}

// SetDataSource attaches data images aligned with Source.
func (t *Texture) SetDataSource(images ...image.Image) {
	for _, img := range images {
		t.DataSource = append(t.DataSource, newTextureSource(t, img, false))
	}
}

// SetFilter sets the scale filter of every source and data source.
func (t *Texture) SetFilter(mode ScaleMode) {
	for _, s := range t.Source {
		s.SetFilter(mode)
	}
	for _, s := range t.DataSource {
		s.SetFilter(mode)
	}
}

// Destroy frees the sources and frames and unregisters the texture from its
// manager. Frames handed out earlier are left dangling.
func (t *Texture) Destroy() {
	for _, s := range t.Source {
		s.destroy()
	}
	for _, s := range t.DataSource {
		s.destroy()
	}
	for _, f := range t.frames {
		f.destroy()
	}
	t.Source = nil
	t.DataSource = nil
	t.frames = make(map[string]*Frame)
	t.order = nil
	if t.manager != nil {
		t.manager.RemoveKey(t.Key)
		t.manager = nil
	}
}

func (t *Texture) logger() *log.Logger {
	if t.manager != nil {
		return t.manager.logger
	}
	return discardLogger()
}
