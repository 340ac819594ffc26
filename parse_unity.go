package stagecraft

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type unityMeta struct {
	TextureImporter struct {
		SpriteSheet struct {
			Sprites []unitySprite `yaml:"sprites"`
		} `yaml:"spriteSheet"`
	} `yaml:"TextureImporter"`
}

type unitySprite struct {
	Name string `yaml:"name"`
	Rect struct {
		X      int `yaml:"x"`
		Y      int `yaml:"y"`
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"rect"`
	Pivot *struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"pivot"`
}

// parseUnityYAML adds the sprites of a Unity texture .meta file to one source
// of t. Unity measures rect.y from the bottom of the image.
func parseUnityYAML(t *Texture, sourceIndex int, data []byte) error {
	if sourceIndex >= len(t.Source) {
		return fmt.Errorf("stagecraft: atlas %q has no source %d: %w", t.Key, sourceIndex, ErrInvalidAtlas)
	}
	var meta unityMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("stagecraft: failed to parse Unity atlas YAML: %w", err)
	}

	src := t.Source[sourceIndex]
	t.Add(BaseFrame, sourceIndex, 0, 0, src.Width, src.Height)

	for _, sp := range meta.TextureImporter.SpriteSheet.Sprites {
		y := src.Height - sp.Rect.Y - sp.Rect.Height
		f := t.Add(sp.Name, sourceIndex, sp.Rect.X, y, sp.Rect.Width, sp.Rect.Height)
		if f == nil {
			t.logger().Warn("invalid unity atlas, frame already exists", "texture", t.Key, "frame", sp.Name)
			continue
		}
		if sp.Pivot != nil {
			f.SetPivot(sp.Pivot.X, sp.Pivot.Y)
		}
	}
	return nil
}
