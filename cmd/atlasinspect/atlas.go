package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/phanxgames/stagecraft"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// atlasKey is the texture key every inspected atlas is registered under.
const atlasKey = "atlas"

// loadAtlas decodes imagePath and registers it with a fresh texture manager,
// parsed by the format dataPath's extension names.
func loadAtlas(imagePath, dataPath, sheet string, logger *log.Logger) (*stagecraft.TextureManager, *stagecraft.Texture, error) {
	img, err := decodeFile(imagePath)
	if err != nil {
		return nil, nil, err
	}
	tm := stagecraft.NewTextureManager(logger)

	if dataPath == "" {
		if sheet == "" {
			return tm, tm.AddImage(atlasKey, img), nil
		}
		w, h, err := parseSheetSize(sheet)
		if err != nil {
			return nil, nil, err
		}
		t := tm.AddSpriteSheet(atlasKey, img, stagecraft.SpriteSheetConfig{FrameWidth: w, FrameHeight: h})
		if t == nil {
			return nil, nil, fmt.Errorf("sheet %s does not fit %s", sheet, imagePath)
		}
		return tm, t, nil
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, nil, err
	}
	var t *stagecraft.Texture
	switch ext := strings.ToLower(filepath.Ext(dataPath)); ext {
	case ".json":
		t, err = tm.AddAtlas(atlasKey, []image.Image{img}, [][]byte{data})
	case ".xml":
		t, err = tm.AddAtlasXML(atlasKey, img, data)
	case ".meta":
		t, err = tm.AddUnityAtlas(atlasKey, img, data)
	default:
		return nil, nil, fmt.Errorf("unknown atlas format %q", ext)
	}
	if err != nil {
		return nil, nil, err
	}
	return tm, t, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// parseSheetSize reads "WxH", or "W" for square frames.
func parseSheetSize(s string) (int, int, error) {
	ws, hs, square := strings.Cut(strings.ToLower(s), "x")
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("bad sheet size %q", s)
	}
	if !square {
		return w, w, nil
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("bad sheet size %q", s)
	}
	return w, h, nil
}

// atlasArgs splits the positional image and optional data arguments.
func atlasArgs(args []string) (imagePath, dataPath string) {
	imagePath = args[0]
	if len(args) > 1 {
		dataPath = args[1]
	}
	return imagePath, dataPath
}
