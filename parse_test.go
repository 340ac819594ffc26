package stagecraft

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hashAtlasJSON = `{
	"frames": {
		"zeta": {
			"frame": {"x": 0, "y": 0, "w": 8, "h": 8},
			"rotated": false,
			"trimmed": false,
			"spriteSourceSize": {"x": 0, "y": 0, "w": 8, "h": 8},
			"sourceSize": {"w": 8, "h": 8}
		},
		"alpha": {
			"frame": {"x": 8, "y": 0, "w": 6, "h": 5},
			"rotated": false,
			"trimmed": true,
			"spriteSourceSize": {"x": 1, "y": 2, "w": 6, "h": 5},
			"sourceSize": {"w": 8, "h": 8},
			"pivot": {"x": 0.5, "y": 1}
		},
		"turned": {
			"frame": {"x": 16, "y": 0, "w": 4, "h": 6},
			"rotated": true,
			"trimmed": false,
			"spriteSourceSize": {"x": 0, "y": 0, "w": 4, "h": 6},
			"sourceSize": {"w": 4, "h": 6}
		}
	},
	"meta": {"app": "test", "image": "atlas.png"}
}`

const arrayAtlasJSON = `{
	"frames": [
		{"filename": "one", "frame": {"x": 0, "y": 0, "w": 4, "h": 4}, "sourceSize": {"w": 4, "h": 4}},
		{"filename": "two", "frame": {"x": 4, "y": 0, "w": 4, "h": 4}, "sourceSize": {"w": 4, "h": 4}, "anchor": {"x": 0.25, "y": 0.75}}
	]
}`

const multiPageAtlasJSON = `{
	"textures": [
		{"image": "p0.png", "frames": [
			{"filename": "page0", "frame": {"x": 0, "y": 0, "w": 4, "h": 4}}
		]},
		{"image": "p1.png", "frames": [
			{"filename": "page1", "frame": {"x": 2, "y": 2, "w": 4, "h": 4}}
		]}
	]
}`

func TestIsJSONArrayAtlas(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"hash", hashAtlasJSON, false},
		{"array", arrayAtlasJSON, true},
		{"textures", multiPageAtlasJSON, true},
		{"invalid", `{`, false},
		{"empty", `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isJSONArrayAtlas([]byte(tt.data)); got != tt.want {
				t.Errorf("isJSONArrayAtlas = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseJSONHash(t *testing.T) {
	tm := NewTextureManager(nil)
	tex, err := tm.AddAtlas("atlas", []image.Image{gradientImage(32, 32)}, [][]byte{[]byte(hashAtlasJSON)})
	require.NoError(t, err)
	require.NotNil(t, tex)

	assert.Equal(t, []string{"zeta", "alpha", "turned"}, tex.GetFrameNames(false), "document order")
	assert.Equal(t, "zeta", tex.FirstFrame)
	assert.Equal(t, 4, tex.FrameTotal)

	alpha := tex.Get("alpha")
	assert.True(t, alpha.Trimmed())
	assert.Equal(t, 1, alpha.X)
	assert.Equal(t, 2, alpha.Y)
	assert.Equal(t, 8, alpha.RealWidth())
	assert.True(t, alpha.CustomPivot)
	assert.Equal(t, 1.0, alpha.PivotY)
	assert.Contains(t, alpha.CustomData, "frame")

	turned := tex.Get("turned")
	assert.True(t, turned.Rotated)
	assert.InDelta(t, float64(16+6)/32, turned.U0, epsilon)
	assert.InDelta(t, float64(16)/32, turned.U1, epsilon)

	meta, ok := tex.CustomData["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test", meta["app"])
	assert.NotContains(t, tex.CustomData, "frames")
}

func TestParseJSONArray(t *testing.T) {
	tm := NewTextureManager(nil)
	tex, err := tm.AddAtlas("arr", []image.Image{gradientImage(16, 16)}, [][]byte{[]byte(arrayAtlasJSON)})
	require.NoError(t, err)
	require.NotNil(t, tex)

	assert.Equal(t, []string{"one", "two"}, tex.GetFrameNames(false))
	two := tex.Get("two")
	assert.Equal(t, 4, two.CutX)
	assert.True(t, two.CustomPivot)
	assert.Equal(t, 0.25, two.PivotX)
}

func TestParseJSONArrayCutRect(t *testing.T) {
	const data = `{"frames": [
		{"filename": "hero_0", "frame": {"x": 10, "y": 20, "w": 32, "h": 48}, "rotated": false, "trimmed": false}
	]}`
	tm := NewTextureManager(nil)
	tex, err := tm.AddAtlas("heroes", []image.Image{gradientImage(64, 96)}, [][]byte{[]byte(data)})
	require.NoError(t, err)

	f := tex.Get("hero_0")
	require.NotNil(t, f)
	assert.Equal(t, "hero_0", f.Name)
	assert.Equal(t, [4]int{10, 20, 32, 48}, [4]int{f.CutX, f.CutY, f.CutWidth, f.CutHeight})
	assert.Equal(t, 32, f.RealWidth())
	assert.Equal(t, 48, f.RealHeight())
	assert.False(t, f.Trimmed())
}

func TestParseJSONArrayMultiPage(t *testing.T) {
	tm := NewTextureManager(nil)
	sources := []image.Image{gradientImage(16, 16), gradientImage(16, 16)}
	tex, err := tm.AddAtlas("pages", sources, [][]byte{[]byte(multiPageAtlasJSON)})
	require.NoError(t, err)
	require.NotNil(t, tex)

	p0 := tex.GetFramesFromTextureSource(0, false)
	p1 := tex.GetFramesFromTextureSource(1, false)
	require.Len(t, p0, 1)
	require.Len(t, p1, 1)
	assert.Equal(t, "page0", p0[0].Name)
	assert.Equal(t, "page1", p1[0].Name)
	assert.Same(t, tex.Source[1], p1[0].Source())
}

func TestParseJSONArraySharedData(t *testing.T) {
	// One frames array applied to two sources: the second page's frames
	// collide with the first and are skipped.
	tm := NewTextureManager(nil)
	sources := []image.Image{gradientImage(16, 16), gradientImage(16, 16)}
	tex, err := tm.AddAtlasJSONArray("shared", sources, [][]byte{[]byte(arrayAtlasJSON)})
	require.NoError(t, err)
	assert.Len(t, tex.GetFramesFromTextureSource(0, false), 2)
	assert.Empty(t, tex.GetFramesFromTextureSource(1, false))
}

func TestAddAtlasInvalid(t *testing.T) {
	tm := NewTextureManager(nil)
	src := []image.Image{gradientImage(8, 8)}

	_, err := tm.AddAtlas("none", src, nil)
	assert.ErrorIs(t, err, ErrInvalidAtlas)

	_, err = tm.AddAtlasJSONHash("bad", src, [][]byte{[]byte(`{"frames": "nope"}`)})
	assert.ErrorIs(t, err, ErrInvalidAtlas)
	assert.False(t, tm.Exists("bad"), "a failed atlas is not registered")

	_, err = tm.AddAtlasJSONHash("broken", src, [][]byte{[]byte(`{`)})
	assert.Error(t, err)
	assert.False(t, tm.Exists("broken"))

	// The key is free again after a failure.
	tex, err := tm.AddAtlasJSONHash("bad", src, [][]byte{[]byte(hashAtlasJSON)})
	require.NoError(t, err)
	assert.NotNil(t, tex)
}

func TestAddAtlasMissingFrames(t *testing.T) {
	tm := NewTextureManager(nil)
	tex, err := tm.AddAtlasJSONHash("empty", []image.Image{gradientImage(8, 8)}, [][]byte{[]byte(`{"meta": {}}`)})
	require.NoError(t, err)
	require.NotNil(t, tex)
	assert.Equal(t, []string{BaseFrame}, tex.GetFrameNames(true))
}

const starlingXML = `<?xml version="1.0" encoding="UTF-8"?>
<TextureAtlas imagePath="atlas.png">
	<SubTexture name="plain" x="0" y="0" width="8" height="8"/>
	<SubTexture name="trim" x="8" y="0" width="6" height="5" frameX="-1" frameY="-2" frameWidth="8" frameHeight="8"/>
	<SubTexture name="turned" x="16" y="0" width="4" height="6" rotated="true"/>
	<SubTexture name="plain" x="0" y="8" width="8" height="8"/>
</TextureAtlas>`

func TestParseAtlasXML(t *testing.T) {
	tm := NewTextureManager(nil)
	tex, err := tm.AddAtlasXML("xml", gradientImage(32, 32), []byte(starlingXML))
	require.NoError(t, err)
	require.NotNil(t, tex)

	assert.Equal(t, []string{"plain", "trim", "turned"}, tex.GetFrameNames(false))
	assert.Equal(t, 0, tex.Get("plain").CutY, "duplicate names keep the first")

	trim := tex.Get("trim")
	assert.True(t, trim.Trimmed())
	assert.Equal(t, 1, trim.X)
	assert.Equal(t, 2, trim.Y)
	assert.Equal(t, 8, trim.RealWidth())
	assert.Equal(t, 8, trim.RealHeight())
	assert.Equal(t, 6, trim.CutWidth)

	assert.True(t, tex.Get("turned").Rotated)
	assert.Equal(t, "atlas.png", tex.CustomData["imagePath"])
}

func TestParseAtlasXMLInvalid(t *testing.T) {
	tm := NewTextureManager(nil)
	_, err := tm.AddAtlasXML("xml", gradientImage(8, 8), []byte(`<Nope/>`))
	assert.Error(t, err)
	assert.False(t, tm.Exists("xml"))
}

const unityMetaYAML = `fileFormatVersion: 2
TextureImporter:
  spriteSheet:
    sprites:
    - serializedVersion: 2
      name: hero
      rect:
        serializedVersion: 2
        x: 0
        y: 48
        width: 16
        height: 16
      pivot: {x: 0.5, y: 0}
    - serializedVersion: 2
      name: floor
      rect:
        x: 16
        y: 0
        width: 32
        height: 8
`

func TestParseUnityYAML(t *testing.T) {
	tm := NewTextureManager(nil)
	tex, err := tm.AddUnityAtlas("unity", gradientImage(64, 64), []byte(unityMetaYAML))
	require.NoError(t, err)
	require.NotNil(t, tex)

	hero := tex.Get("hero")
	assert.Equal(t, 0, hero.CutY, "y is flipped from the bottom")
	assert.True(t, hero.CustomPivot)
	assert.Equal(t, 0.5, hero.PivotX)

	floor := tex.Get("floor")
	assert.Equal(t, 16, floor.CutX)
	assert.Equal(t, 56, floor.CutY)
	assert.False(t, floor.CustomPivot)
}

func TestParseSpriteSheet(t *testing.T) {
	tm := NewTextureManager(nil)
	tex := tm.AddSpriteSheet("sheet", gradientImage(64, 32), SpriteSheetConfig{FrameWidth: 16})
	require.NotNil(t, tex)

	assert.Equal(t, 9, tex.FrameTotal, "8 cells plus the base frame")
	assert.Equal(t, "0", tex.FirstFrame)
	f := tex.Get("5")
	assert.Equal(t, 16, f.CutX)
	assert.Equal(t, 16, f.CutY)
	assert.Equal(t, 16, f.CutHeight, "frame height defaults to frame width")
}

func TestParseSpriteSheetRange(t *testing.T) {
	tm := NewTextureManager(nil)
	tex := tm.AddSpriteSheet("range", gradientImage(64, 32), SpriteSheetConfig{
		FrameWidth: 16, FrameHeight: 16, StartFrame: 2, EndFrame: 4,
	})
	require.NotNil(t, tex)
	assert.Equal(t, []string{"0", "1", "2"}, tex.GetFrameNames(false))
	assert.Equal(t, 32, tex.Get("0").CutX, "names count from the start frame")
}

func TestParseSpriteSheetMarginSpacing(t *testing.T) {
	tm := NewTextureManager(nil)
	tex := tm.AddSpriteSheet("ms", gradientImage(39, 20), SpriteSheetConfig{
		FrameWidth: 16, FrameHeight: 16, Margin: 1, Spacing: 2,
	})
	require.NotNil(t, tex)
	require.Equal(t, []string{"0", "1"}, tex.GetFrameNames(false))
	assert.Equal(t, 1, tex.Get("0").CutX)
	assert.Equal(t, 1, tex.Get("0").CutY)
	assert.Equal(t, 19, tex.Get("1").CutX)
}

func TestParseSpriteSheetInvalidSize(t *testing.T) {
	tm := NewTextureManager(nil)
	tex := tm.AddSpriteSheet("bad", gradientImage(8, 8), SpriteSheetConfig{})
	require.NotNil(t, tex)
	assert.Empty(t, tex.GetFrameNames(true))

	tex = tm.AddSpriteSheet("big", gradientImage(8, 8), SpriteSheetConfig{FrameWidth: 16})
	require.NotNil(t, tex)
	assert.Equal(t, []string{BaseFrame}, tex.GetFrameNames(true))
}

func TestSpriteSheetFrameRange(t *testing.T) {
	tests := []struct {
		start, end int
		wantStart  int
		wantEnd    int
	}{
		{0, 0, 0, 10},
		{0, -1, 0, 10},
		{3, 5, 3, 5},
		{-2, 0, 8, 10},
		{20, 0, 0, 10},
		{5, 2, 5, 10},
	}
	for _, tt := range tests {
		cfg := SpriteSheetConfig{StartFrame: tt.start, EndFrame: tt.end}
		s, e := cfg.frameRange(10)
		if s != tt.wantStart || e != tt.wantEnd {
			t.Errorf("frameRange(%d, %d) = %d, %d, want %d, %d", tt.start, tt.end, s, e, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestSpriteSheetFromAtlas(t *testing.T) {
	tm := NewTextureManager(nil)
	atlas := tm.AddImage("atlas", gradientImage(64, 64))
	atlas.Add("sheet", 0, 10, 0, 32, 16)

	tex := tm.AddSpriteSheetFromAtlas("walk", SpriteSheetConfig{FrameWidth: 16, Atlas: "atlas", Frame: "sheet"})
	require.NotNil(t, tex)
	assert.Equal(t, []string{"0", "1"}, tex.GetFrameNames(false))
	assert.Equal(t, 10, tex.Get("0").CutX)
	assert.Equal(t, 26, tex.Get("1").CutX)
	assert.Same(t, atlas.Source[0].Image, tex.Source[0].Image)
}

func TestSpriteSheetFromTrimmedAtlas(t *testing.T) {
	tm := NewTextureManager(nil)
	atlas := tm.AddImage("atlas", gradientImage(64, 64))
	// A 32x16 sheet trimmed to its right 20x16 pixels, stored at (40, 0).
	sheet := atlas.Add("sheet", 0, 40, 0, 20, 16)
	sheet.SetTrim(32, 16, 12, 0, 20, 16)

	tex := tm.AddSpriteSheetFromAtlas("trimmed", SpriteSheetConfig{FrameWidth: 16, Atlas: "atlas", Frame: "sheet"})
	require.NotNil(t, tex)

	first := tex.Get("0")
	assert.Equal(t, 40, first.CutX)
	assert.Equal(t, 4, first.CutWidth)
	assert.Equal(t, 12, first.X)
	assert.Equal(t, 16, first.RealWidth())

	second := tex.Get("1")
	assert.Equal(t, 44, second.CutX)
	assert.Equal(t, 16, second.CutWidth)
	assert.Equal(t, 0, second.X)
}

func TestSpriteSheetFromAtlasMissing(t *testing.T) {
	tm := NewTextureManager(nil)
	assert.Nil(t, tm.AddSpriteSheetFromAtlas("x", SpriteSheetConfig{FrameWidth: 8}))
	assert.Nil(t, tm.AddSpriteSheetFromAtlas("x", SpriteSheetConfig{FrameWidth: 8, Atlas: "none", Frame: "f"}))
	assert.False(t, tm.Exists("x"))
}
