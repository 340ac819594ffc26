package stagecraft

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
)

// Sentinel texture keys created at boot.
const (
	DefaultTextureKey = "__DEFAULT"
	MissingTextureKey = "__MISSING"
)

type decodeResult struct {
	key string
	img image.Image
	err error
}

// TextureManager is the game-wide registry of textures. Add methods reject a
// key that is already in use: the collision is logged, nothing is replaced and
// the method returns nil.
//
// Removing a texture does not track who still references it. Frames and
// textures held elsewhere dangle after Remove; sequencing removal is the
// caller's job.
type TextureManager struct {
	events *EventEmitter
	logger *log.Logger
	list   map[string]*Texture

	pending    int
	onReady    func()
	bootHandle [2]ListenerHandle

	mu      sync.Mutex
	decoded []decodeResult
	wg      sync.WaitGroup

	// scratch is the shared 1x1 buffer used by GetPixel; calls are not
	// reentrant.
	scratch *image.NRGBA
}

// NewTextureManager creates an empty registry. A nil logger discards output.
func NewTextureManager(logger *log.Logger) *TextureManager {
	if logger == nil {
		logger = discardLogger()
	}
	return &TextureManager{
		events:  NewEventEmitter(),
		logger:  logger,
		list:    make(map[string]*Texture),
		scratch: image.NewNRGBA(image.Rect(0, 0, 1, 1)),
	}
}

// Events returns the manager's event bus.
func (tm *TextureManager) Events() *EventEmitter { return tm.events }

// Boot decodes the default and missing textures in the background. onReady
// runs on the goroutine calling Poll once both have loaded or failed.
func (tm *TextureManager) Boot(defaultImage, missingImage string, onReady func()) {
	tm.pending = 2
	tm.onReady = onReady
	tm.bootHandle[0] = tm.events.On(EventTextureLoad, tm.updatePending)
	tm.bootHandle[1] = tm.events.On(EventTextureError, tm.updatePending)

	tm.AddBase64(DefaultTextureKey, defaultImage)
	tm.AddBase64(MissingTextureKey, missingImage)
}

func (tm *TextureManager) updatePending(...any) {
	tm.pending--
	if tm.pending != 0 {
		return
	}
	tm.bootHandle[0].Remove()
	tm.bootHandle[1].Remove()
	if tm.onReady != nil {
		tm.onReady()
	}
}

// Poll applies finished background decodes. Call it from the frame goroutine.
func (tm *TextureManager) Poll() {
	tm.mu.Lock()
	done := tm.decoded
	tm.decoded = nil
	tm.mu.Unlock()

	for _, res := range done {
		if res.err != nil {
			tm.logger.Error("failed to decode texture", "key", res.key, "error", res.err)
			tm.events.Emit(EventTextureError, res.key, res.err)
			continue
		}
		t := tm.create(res.key, false, res.img)
		if t == nil {
			tm.events.Emit(EventTextureError, res.key, fmt.Errorf("stagecraft: texture key %q already in use", res.key))
			continue
		}
		parseImage(t, 0)
		tm.events.Emit(EventAddTexture, res.key, t)
		tm.events.Emit(EventTextureLoad, res.key, t)
	}
}

// WaitPending blocks until every background decode has finished. The results
// still have to be applied with Poll.
func (tm *TextureManager) WaitPending(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckKey reports whether key is free. A collision is logged.
func (tm *TextureManager) CheckKey(key string) bool {
	if _, ok := tm.list[key]; ok {
		tm.logger.Error("texture key already in use", "key", key)
		return false
	}
	return true
}

// Create registers a texture over sources with a __BASE frame spanning the
// first one. Further frames are added with Texture.Add.
func (tm *TextureManager) Create(key string, sources ...image.Image) *Texture {
	if len(sources) == 0 {
		tm.logger.Error("texture needs at least one source", "key", key)
		return nil
	}
	t := tm.create(key, false, sources...)
	if t == nil {
		return nil
	}
	parseImage(t, 0)
	tm.events.Emit(EventAddTexture, key, t)
	return t
}

func (tm *TextureManager) create(key string, canvas bool, sources ...image.Image) *Texture {
	if !tm.CheckKey(key) {
		return nil
	}
	t := newTexture(tm, key, canvas, sources...)
	tm.list[key] = t
	return t
}

// parseImage gives a source its whole-image base frame.
func parseImage(t *Texture, sourceIndex int) {
	src := t.Source[sourceIndex]
	t.Add(BaseFrame, sourceIndex, 0, 0, src.Width, src.Height)
}

// AddImage registers a single image texture.
func (tm *TextureManager) AddImage(key string, img image.Image, dataSource ...image.Image) *Texture {
	t := tm.create(key, false, img)
	if t == nil {
		return nil
	}
	parseImage(t, 0)
	t.SetDataSource(dataSource...)
	tm.events.Emit(EventAddTexture, key, t)
	return t
}

// AddCanvas registers a drawable image as a canvas texture. Call
// TextureSource.Update after drawing into it.
func (tm *TextureManager) AddCanvas(key string, canvas draw.Image) *Texture {
	t := tm.create(key, true, canvas)
	if t == nil {
		return nil
	}
	parseImage(t, 0)
	tm.events.Emit(EventAddTexture, key, t)
	return t
}

// CreateCanvas registers a blank width x height canvas texture.
func (tm *TextureManager) CreateCanvas(key string, width, height int) *Texture {
	if !tm.CheckKey(key) {
		return nil
	}
	return tm.AddCanvas(key, image.NewNRGBA(image.Rect(0, 0, width, height)))
}

// AddBase64 decodes a data URI image in the background. The texture is
// registered by Poll, which emits onload or onerror.
func (tm *TextureManager) AddBase64(key, data string) {
	if !tm.CheckKey(key) {
		return
	}
	tm.wg.Add(1)
	go func() {
		defer tm.wg.Done()
		img, err := decodeDataURI(data)
		tm.mu.Lock()
		tm.decoded = append(tm.decoded, decodeResult{key: key, img: img, err: err})
		tm.mu.Unlock()
	}()
}

// AddAtlas registers a TexturePacker JSON atlas, choosing the array or hash
// parser from the shape of the first document.
func (tm *TextureManager) AddAtlas(key string, sources []image.Image, data [][]byte, dataSource ...image.Image) (*Texture, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("stagecraft: atlas %q has no data: %w", key, ErrInvalidAtlas)
	}
	if isJSONArrayAtlas(data[0]) {
		return tm.AddAtlasJSONArray(key, sources, data, dataSource...)
	}
	return tm.AddAtlasJSONHash(key, sources, data, dataSource...)
}

// AddAtlasJSONArray registers an array-format atlas. With several sources,
// data[i] describes source i; a single data document is applied to every
// source, which is how multi-page atlases sharing one file are loaded.
func (tm *TextureManager) AddAtlasJSONArray(key string, sources []image.Image, data [][]byte, dataSource ...image.Image) (*Texture, error) {
	t := tm.create(key, false, sources...)
	if t == nil {
		return nil, nil
	}
	singleAtlasFile := len(data) == 1
	for i := range t.Source {
		d := i
		if singleAtlasFile {
			d = 0
		}
		if d >= len(data) {
			tm.logger.Warn("atlas has no data for source", "texture", key, "source", i)
			continue
		}
		if err := parseJSONArray(t, i, data[d]); err != nil {
			tm.discard(t)
			return nil, err
		}
	}
	return tm.finishAtlas(t, dataSource), nil
}

// AddAtlasJSONHash registers a hash-format atlas; data[i] describes source i.
func (tm *TextureManager) AddAtlasJSONHash(key string, sources []image.Image, data [][]byte, dataSource ...image.Image) (*Texture, error) {
	t := tm.create(key, false, sources...)
	if t == nil {
		return nil, nil
	}
	for i, d := range data {
		if err := parseJSONHash(t, i, d); err != nil {
			tm.discard(t)
			return nil, err
		}
	}
	return tm.finishAtlas(t, dataSource), nil
}

// AddAtlasXML registers a Starling/Sparrow XML atlas.
func (tm *TextureManager) AddAtlasXML(key string, source image.Image, data []byte, dataSource ...image.Image) (*Texture, error) {
	t := tm.create(key, false, source)
	if t == nil {
		return nil, nil
	}
	if err := parseAtlasXML(t, 0, data); err != nil {
		tm.discard(t)
		return nil, err
	}
	return tm.finishAtlas(t, dataSource), nil
}

// AddUnityAtlas registers an atlas described by a Unity texture .meta file.
func (tm *TextureManager) AddUnityAtlas(key string, source image.Image, data []byte, dataSource ...image.Image) (*Texture, error) {
	t := tm.create(key, false, source)
	if t == nil {
		return nil, nil
	}
	if err := parseUnityYAML(t, 0, data); err != nil {
		tm.discard(t)
		return nil, err
	}
	return tm.finishAtlas(t, dataSource), nil
}

func (tm *TextureManager) finishAtlas(t *Texture, dataSource []image.Image) *Texture {
	t.SetDataSource(dataSource...)
	tm.events.Emit(EventAddTexture, t.Key, t)
	return t
}

// discard drops a texture whose data failed to parse. No event is emitted
// because addtexture never was.
func (tm *TextureManager) discard(t *Texture) {
	t.Destroy()
}

// AddSpriteSheet registers an image cut into a grid of frames.
func (tm *TextureManager) AddSpriteSheet(key string, source image.Image, cfg SpriteSheetConfig) *Texture {
	t := tm.create(key, false, source)
	if t == nil {
		return nil
	}
	src := t.Source[0]
	parseSpriteSheet(t, 0, 0, 0, src.Width, src.Height, cfg)
	tm.events.Emit(EventAddTexture, key, t)
	return t
}

// AddSpriteSheetFromAtlas registers a sprite sheet stored as one frame of an
// existing atlas. The new texture shares the atlas page image.
func (tm *TextureManager) AddSpriteSheetFromAtlas(key string, cfg SpriteSheetConfig) *Texture {
	if !tm.CheckKey(key) {
		return nil
	}
	if cfg.Atlas == "" || cfg.Frame == "" {
		return nil
	}
	atlas, ok := tm.list[cfg.Atlas]
	if !ok {
		tm.logger.Warn("sprite sheet atlas not found", "key", key, "atlas", cfg.Atlas)
		return nil
	}
	sheet, ok := atlas.frames[cfg.Frame]
	if !ok || sheet.source == nil {
		tm.logger.Warn("sprite sheet frame not found", "key", key, "atlas", cfg.Atlas, "frame", cfg.Frame)
		return nil
	}

	t := tm.create(key, false, sheet.source.Image)
	if sheet.Trimmed() {
		parseSpriteSheetFromAtlas(t, sheet, cfg)
	} else {
		parseSpriteSheet(t, 0, sheet.CutX, sheet.CutY, sheet.CutWidth, sheet.CutHeight, cfg)
	}
	tm.events.Emit(EventAddTexture, key, t)
	return t
}

// Exists reports whether a texture is registered under key.
func (tm *TextureManager) Exists(key string) bool {
	_, ok := tm.list[key]
	return ok
}

// Get returns the texture for key. An empty key returns the default texture
// and an unknown key returns the missing texture, so the result is only nil
// before boot has finished.
func (tm *TextureManager) Get(key string) *Texture {
	if key == "" {
		return tm.list[DefaultTextureKey]
	}
	if t, ok := tm.list[key]; ok {
		return t
	}
	return tm.list[MissingTextureKey]
}

// GetFrame returns a frame of a registered texture, or nil when the texture
// does not exist.
func (tm *TextureManager) GetFrame(key, frame string) *Frame {
	t, ok := tm.list[key]
	if !ok {
		return nil
	}
	return t.Get(frame)
}

// CloneFrame returns a copy of a frame, or nil.
func (tm *TextureManager) CloneFrame(key, frame string) *Frame {
	f := tm.GetFrame(key, frame)
	if f == nil {
		return nil
	}
	return f.Clone()
}

// GetTextureKeys returns the registered keys, sorted, without the sentinels.
func (tm *TextureManager) GetTextureKeys() []string {
	keys := make([]string, 0, len(tm.list))
	for k := range tm.list {
		if k == DefaultTextureKey || k == MissingTextureKey {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Each calls fn for every texture in key order until fn returns false.
func (tm *TextureManager) Each(fn func(t *Texture) bool) {
	keys := make([]string, 0, len(tm.list))
	for k := range tm.list {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if t, ok := tm.list[k]; ok && !fn(t) {
			return
		}
	}
}

// Remove destroys the texture registered under key and emits removetexture.
// An unknown key logs a warning.
func (tm *TextureManager) Remove(key string) bool {
	t, ok := tm.list[key]
	if !ok {
		tm.logger.Warn("no texture found matching key", "key", key)
		return false
	}
	return tm.RemoveTexture(t)
}

// RemoveTexture destroys t if it is registered and emits removetexture.
func (tm *TextureManager) RemoveTexture(t *Texture) bool {
	if t == nil || tm.list[t.Key] != t {
		return false
	}
	key := t.Key
	t.Destroy()
	tm.events.Emit(EventRemoveTexture, key)
	return true
}

// RemoveKey deletes key from the registry without destroying the texture.
func (tm *TextureManager) RemoveKey(key string) {
	delete(tm.list, key)
}

// RenameTexture moves a texture to a new key. It fails if the texture does
// not exist or the new key is taken.
func (tm *TextureManager) RenameTexture(current, key string) bool {
	t, ok := tm.list[current]
	if !ok || current == key {
		return false
	}
	if _, taken := tm.list[key]; taken {
		return false
	}
	t.Key = key
	tm.list[key] = t
	delete(tm.list, current)
	return true
}

// GetPixel returns the color at (x, y) within a frame, measured in the
// frame's untrimmed space. ok is false when the texture or frame does not
// exist or the point falls outside the frame's pixels.
func (tm *TextureManager) GetPixel(x, y int, key, frame string) (c color.NRGBA, ok bool) {
	f := tm.GetFrame(key, frame)
	if f == nil || f.source == nil || f.source.Image == nil {
		return color.NRGBA{}, false
	}

	cut := f.Data.Cut
	x = x - f.X + cut.X
	y = y - f.Y + cut.Y
	if x < cut.X || x >= cut.R || y < cut.Y || y >= cut.B {
		return color.NRGBA{}, false
	}

	src := f.source.Image
	min := src.Bounds().Min
	draw.Draw(tm.scratch, tm.scratch.Bounds(), src, image.Pt(min.X+x, min.Y+y), draw.Src)
	return tm.scratch.NRGBAAt(0, 0), true
}

// GetPixelAlpha returns the alpha value at (x, y) within a frame.
func (tm *TextureManager) GetPixelAlpha(x, y int, key, frame string) (uint8, bool) {
	c, ok := tm.GetPixel(x, y, key, frame)
	return c.A, ok
}

// TextureFrameSetter is implemented by game objects that display a frame.
type TextureFrameSetter interface {
	SetTextureFrame(t *Texture, f *Frame)
}

// SetTexture points obj at the given texture and frame.
func (tm *TextureManager) SetTexture(obj TextureFrameSetter, key, frame string) {
	t := tm.Get(key)
	if t == nil {
		return
	}
	obj.SetTextureFrame(t, t.Get(frame))
}

// Destroy destroys every texture and drops all listeners.
func (tm *TextureManager) Destroy() {
	for _, t := range tm.list {
		t.Destroy()
	}
	tm.list = make(map[string]*Texture)
	tm.events.RemoveAllListeners()
}
