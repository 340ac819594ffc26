package stagecraft

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// --- TexturePacker JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonFrame struct {
	Filename         string     `json:"filename"`
	Frame            jsonRect   `json:"frame"`
	Rotated          bool       `json:"rotated"`
	Trimmed          bool       `json:"trimmed"`
	SpriteSourceSize jsonRect   `json:"spriteSourceSize"`
	SourceSize       jsonSize   `json:"sourceSize"`
	Pivot            *jsonPoint `json:"pivot"`
	Anchor           *jsonPoint `json:"anchor"`
}

type jsonTexturePage struct {
	Image  string          `json:"image"`
	Frames json.RawMessage `json:"frames"`
}

// isJSONArrayAtlas reports whether data uses the array layout: a "textures"
// array or a "frames" array.
func isJSONArrayAtlas(data []byte) bool {
	var shape struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return false
	}
	return isJSONArray(shape.Textures) || isJSONArray(shape.Frames)
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// parseJSONArray adds the frames of an array-format atlas to one source of t.
// When the document has a "textures" array, the entry at sourceIndex is used.
func parseJSONArray(t *Texture, sourceIndex int, data []byte) error {
	if sourceIndex >= len(t.Source) {
		return fmt.Errorf("stagecraft: atlas %q has no source %d: %w", t.Key, sourceIndex, ErrInvalidAtlas)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("stagecraft: failed to parse atlas JSON: %w", err)
	}

	src := t.Source[sourceIndex]
	t.Add(BaseFrame, sourceIndex, 0, 0, src.Width, src.Height)

	framesRaw := doc["frames"]
	if textures, ok := doc["textures"]; ok && isJSONArray(textures) {
		var pages []jsonTexturePage
		if err := json.Unmarshal(textures, &pages); err != nil {
			return fmt.Errorf("stagecraft: failed to parse atlas textures array: %w", err)
		}
		if sourceIndex >= len(pages) {
			t.logger().Warn("atlas textures array has no entry for source", "texture", t.Key, "source", sourceIndex)
			return nil
		}
		framesRaw = pages[sourceIndex].Frames
	}
	if len(framesRaw) == 0 {
		t.logger().Warn("invalid texture atlas JSON array", "texture", t.Key)
		return nil
	}

	var frames []json.RawMessage
	if err := json.Unmarshal(framesRaw, &frames); err != nil {
		return fmt.Errorf("stagecraft: failed to parse atlas frames: %w", err)
	}
	for _, raw := range frames {
		var jf jsonFrame
		if err := json.Unmarshal(raw, &jf); err != nil {
			return fmt.Errorf("stagecraft: failed to parse atlas frame: %w", err)
		}
		addJSONFrame(t, sourceIndex, jf.Filename, jf, raw)
	}

	copyAtlasCustomData(t, doc)
	return nil
}

// parseJSONHash adds the frames of a hash-format atlas to one source of t.
// Frames are added in document order.
func parseJSONHash(t *Texture, sourceIndex int, data []byte) error {
	if sourceIndex >= len(t.Source) {
		return fmt.Errorf("stagecraft: atlas %q has no source %d: %w", t.Key, sourceIndex, ErrInvalidAtlas)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("stagecraft: failed to parse atlas JSON: %w", err)
	}

	src := t.Source[sourceIndex]
	t.Add(BaseFrame, sourceIndex, 0, 0, src.Width, src.Height)

	framesRaw, ok := doc["frames"]
	if !ok || len(framesRaw) == 0 {
		t.logger().Warn("invalid texture atlas JSON hash", "texture", t.Key)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(framesRaw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return fmt.Errorf("stagecraft: atlas %q frames is not an object: %w", t.Key, ErrInvalidAtlas)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("stagecraft: failed to parse atlas frames: %w", err)
		}
		name, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("stagecraft: failed to parse atlas frame %q: %w", name, err)
		}
		var jf jsonFrame
		if err := json.Unmarshal(raw, &jf); err != nil {
			return fmt.Errorf("stagecraft: failed to parse atlas frame %q: %w", name, err)
		}
		addJSONFrame(t, sourceIndex, name, jf, raw)
	}

	copyAtlasCustomData(t, doc)
	return nil
}

func addJSONFrame(t *Texture, sourceIndex int, name string, jf jsonFrame, raw json.RawMessage) {
	f := t.Add(name, sourceIndex, jf.Frame.X, jf.Frame.Y, jf.Frame.W, jf.Frame.H)
	if f == nil {
		t.logger().Warn("invalid atlas json, frame already exists", "texture", t.Key, "frame", name)
		return
	}
	if jf.Trimmed {
		f.SetTrim(jf.SourceSize.W, jf.SourceSize.H,
			jf.SpriteSourceSize.X, jf.SpriteSourceSize.Y,
			jf.SpriteSourceSize.W, jf.SpriteSourceSize.H)
	}
	if jf.Rotated {
		f.Rotated = true
		f.UpdateUVsInverted()
	}
	pivot := jf.Anchor
	if pivot == nil {
		pivot = jf.Pivot
	}
	if pivot != nil {
		f.SetPivot(pivot.X, pivot.Y)
	}
	var custom map[string]any
	if err := json.Unmarshal(raw, &custom); err == nil {
		f.CustomData = custom
	}
}

// copyAtlasCustomData keeps every top-level key other than "frames" (meta,
// textures and the like) on the texture.
func copyAtlasCustomData(t *Texture, doc map[string]json.RawMessage) {
	for k, raw := range doc {
		if k == "frames" {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			t.CustomData[k] = v
		}
	}
}
