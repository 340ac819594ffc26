package stagecraft

import "time"

// Image is a game object that draws one texture frame. Position is in world
// space; OriginX/OriginY are normalized within the untrimmed frame.
type Image struct {
	Name string

	X, Y           float64
	ScaleX, ScaleY float64
	Rotation       float64
	OriginX        float64
	OriginY        float64
	Alpha          float64
	Visible        bool
	Blend          BlendMode
	// ScrollFactorX/Y scale how much camera scroll moves the object. 0 pins
	// it to the screen.
	ScrollFactorX, ScrollFactorY float64

	// OnAnimationComplete runs when a non-looping animation ends.
	OnAnimationComplete func(anim *Animation)

	depth   float64
	texture *Texture
	frame   *Frame

	anims       *AnimationManager
	textures    *TextureManager
	anim        *Animation
	animElapsed time.Duration

	displayList *DisplayList
	destroyed   bool
}

// NewImage creates an image showing frame of t. An empty or unknown frame
// name shows the texture's first frame.
func NewImage(x, y float64, t *Texture, frame string) *Image {
	img := &Image{
		X:             x,
		Y:             y,
		ScaleX:        1,
		ScaleY:        1,
		OriginX:       0.5,
		OriginY:       0.5,
		Alpha:         1,
		Visible:       true,
		ScrollFactorX: 1,
		ScrollFactorY: 1,
	}
	if t != nil {
		img.SetTextureFrame(t, t.Get(frame))
	}
	return img
}

// Depth implements GameObject.
func (img *Image) Depth() float64 { return img.depth }

// SetDepth changes the render order and marks the display list unsorted.
func (img *Image) SetDepth(d float64) *Image {
	if img.depth == d {
		return img
	}
	img.depth = d
	if img.displayList != nil {
		img.displayList.QueueDepthSort()
	}
	return img
}

func (img *Image) setDisplayList(dl *DisplayList) { img.displayList = dl }

// Texture returns the displayed texture.
func (img *Image) Texture() *Texture { return img.texture }

// Frame returns the displayed frame.
func (img *Image) Frame() *Frame { return img.frame }

// SetTextureFrame implements TextureFrameSetter.
func (img *Image) SetTextureFrame(t *Texture, f *Frame) {
	img.texture = t
	img.frame = f
}

// SetTexture shows frame of the texture registered under key.
func (img *Image) SetTexture(key, frame string) *Image {
	if img.textures != nil {
		img.textures.SetTexture(img, key, frame)
	}
	return img
}

// SetFrame shows another frame of the current texture. Unknown names fall
// back to the texture's first frame.
func (img *Image) SetFrame(name string) *Image {
	if img.texture != nil {
		img.frame = img.texture.Get(name)
	}
	return img
}

// WorldPosition implements Followable.
func (img *Image) WorldPosition() (float64, float64) { return img.X, img.Y }

// Play starts the animation registered under key from its first frame.
func (img *Image) Play(key string) bool {
	if img.anims == nil {
		return false
	}
	anim := img.anims.Get(key)
	if anim == nil {
		return false
	}
	img.anim = anim
	img.animElapsed = 0
	img.showAnimationFrame()
	return true
}

// Stop halts the current animation on its current frame.
func (img *Image) Stop() { img.anim = nil }

// IsPlaying reports whether an animation is running.
func (img *Image) IsPlaying() bool { return img.anim != nil }

// PreUpdate implements Updatable by advancing the current animation.
func (img *Image) PreUpdate(_, delta time.Duration) {
	if img.anim == nil {
		return
	}
	img.animElapsed += delta
	if done := img.showAnimationFrame(); done {
		anim := img.anim
		img.anim = nil
		if img.OnAnimationComplete != nil {
			img.OnAnimationComplete(anim)
		}
	}
}

func (img *Image) showAnimationFrame() bool {
	af, done := img.anim.FrameAt(img.animElapsed)
	if img.textures != nil && af.Key != "" {
		if t, ok := img.textures.list[af.Key]; ok {
			img.SetTextureFrame(t, t.Get(af.Frame))
		}
	}
	return done
}

// localMatrix maps frame pixel space to world space.
func (img *Image) localMatrix() [6]float64 {
	f := img.frame
	px := img.OriginX * float64(f.RealWidth())
	py := img.OriginY * float64(f.RealHeight())
	m := localTransform(img.X, img.Y, img.Rotation, img.ScaleX, img.ScaleY, px, py)
	return multiplyAffine(m, [6]float64{1, 0, 0, 1, float64(f.X), float64(f.Y)})
}

// matrix maps frame pixel space to screen space for cam.
func (img *Image) matrix(cam *Camera) [6]float64 {
	view := cam.computeViewMatrix()
	if img.ScrollFactorX != 1 || img.ScrollFactorY != 1 {
		sx, sy := cam.Scroll()
		view = multiplyAffine(view, [6]float64{1, 0, 0, 1,
			sx * (1 - img.ScrollFactorX), sy * (1 - img.ScrollFactorY)})
	}
	return multiplyAffine(view, img.localMatrix())
}

// WillRender implements GameObject.
func (img *Image) WillRender(cam *Camera) bool {
	if img.destroyed || !img.Visible || img.Alpha <= 0 || img.frame == nil {
		return false
	}
	if img.ScaleX == 0 || img.ScaleY == 0 {
		return false
	}
	if !cam.CullEnabled {
		return true
	}
	bounds := worldAABB(img.matrix(cam), Rect{Width: float64(img.frame.Width), Height: float64(img.frame.Height)})
	return bounds.Intersects(cam.Viewport)
}

// Draw implements GameObject.
func (img *Image) Draw(r Renderer, cam *Camera) {
	r.DrawFrame(img.frame, geoM(img.matrix(cam)), img.Alpha, img.Blend)
}

// Destroy removes the image from its display list.
func (img *Image) Destroy() {
	if img.destroyed {
		return
	}
	img.destroyed = true
	if img.displayList != nil {
		img.displayList.Remove(img)
	}
	img.anim = nil
	img.texture = nil
	img.frame = nil
	img.OnAnimationComplete = nil
}

// IsDestroyed implements GameObject.
func (img *Image) IsDestroyed() bool { return img.destroyed }

// ImageConfig describes an Image built by GameObjectCreator.
type ImageConfig struct {
	Key   string  `yaml:"key"`
	Frame string  `yaml:"frame"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Depth float64 `yaml:"depth"`
	// Scale applies to both axes; zero means 1.
	Scale float64 `yaml:"scale"`
	// Alpha is the opacity; zero means fully opaque.
	Alpha    float64 `yaml:"alpha"`
	Rotation float64 `yaml:"rotation"`
	Hidden   bool    `yaml:"hidden"`
	Anim     string  `yaml:"anim"`
}

// GameObjectFactory creates game objects and adds them to its scene.
type GameObjectFactory struct {
	sys *Systems
}

// Boot implements ScenePluginInstance.
func (f *GameObjectFactory) Boot(sys *Systems) { f.sys = sys }

// Destroy implements ScenePluginInstance.
func (f *GameObjectFactory) Destroy() { f.sys = nil }

// Image creates an image at (x, y) and adds it to the scene.
func (f *GameObjectFactory) Image(x, y float64, key, frame string) *Image {
	img := newSceneImage(f.sys, x, y, key, frame)
	f.Existing(img)
	return img
}

// Existing adds obj to the scene's display list, and to its update list
// when obj implements Updatable.
func (f *GameObjectFactory) Existing(obj GameObject) GameObject {
	if dl := f.sys.DisplayList(); dl != nil {
		dl.Add(obj)
	}
	if u, ok := obj.(Updatable); ok {
		if ul := f.sys.UpdateList(); ul != nil {
			ul.Add(u)
		}
	}
	return obj
}

// GameObjectCreator builds game objects from configs, optionally adding
// them to its scene.
type GameObjectCreator struct {
	sys *Systems
}

// Boot implements ScenePluginInstance.
func (c *GameObjectCreator) Boot(sys *Systems) { c.sys = sys }

// Destroy implements ScenePluginInstance.
func (c *GameObjectCreator) Destroy() { c.sys = nil }

// Image builds an image from cfg.
func (c *GameObjectCreator) Image(cfg ImageConfig, addToScene bool) *Image {
	img := newSceneImage(c.sys, cfg.X, cfg.Y, cfg.Key, cfg.Frame)
	if cfg.Scale != 0 {
		img.ScaleX, img.ScaleY = cfg.Scale, cfg.Scale
	}
	if cfg.Alpha != 0 {
		img.Alpha = cfg.Alpha
	}
	img.Rotation = cfg.Rotation
	img.Visible = !cfg.Hidden
	img.depth = cfg.Depth
	if cfg.Anim != "" {
		img.Play(cfg.Anim)
	}
	if addToScene {
		if add := c.sys.Add(); add != nil {
			add.Existing(img)
		}
	}
	return img
}

func newSceneImage(sys *Systems, x, y float64, key, frame string) *Image {
	img := NewImage(x, y, nil, "")
	img.anims = sys.anims
	img.textures = sys.textures
	if sys.textures != nil {
		img.SetTexture(key, frame)
	}
	return img
}
