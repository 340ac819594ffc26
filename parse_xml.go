package stagecraft

import (
	"encoding/xml"
	"fmt"
)

type xmlTextureAtlas struct {
	XMLName     xml.Name        `xml:"TextureAtlas"`
	ImagePath   string          `xml:"imagePath,attr"`
	SubTextures []xmlSubTexture `xml:"SubTexture"`
}

type xmlSubTexture struct {
	Name        string `xml:"name,attr"`
	X           int    `xml:"x,attr"`
	Y           int    `xml:"y,attr"`
	Width       int    `xml:"width,attr"`
	Height      int    `xml:"height,attr"`
	FrameX      *int   `xml:"frameX,attr"`
	FrameY      int    `xml:"frameY,attr"`
	FrameWidth  int    `xml:"frameWidth,attr"`
	FrameHeight int    `xml:"frameHeight,attr"`
	Rotated     bool   `xml:"rotated,attr"`
}

// parseAtlasXML adds the frames of a Starling/Sparrow TextureAtlas document
// to one source of t. A SubTexture with frameX is trimmed: frameWidth and
// frameHeight are the original sprite size and -frameX/-frameY the offset of
// the cut pixels inside it.
func parseAtlasXML(t *Texture, sourceIndex int, data []byte) error {
	if sourceIndex >= len(t.Source) {
		return fmt.Errorf("stagecraft: atlas %q has no source %d: %w", t.Key, sourceIndex, ErrInvalidAtlas)
	}
	var doc xmlTextureAtlas
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("stagecraft: failed to parse atlas XML: %w", err)
	}

	src := t.Source[sourceIndex]
	t.Add(BaseFrame, sourceIndex, 0, 0, src.Width, src.Height)

	for _, st := range doc.SubTextures {
		f := t.Add(st.Name, sourceIndex, st.X, st.Y, st.Width, st.Height)
		if f == nil {
			t.logger().Warn("invalid atlas xml, frame already exists", "texture", t.Key, "frame", st.Name)
			continue
		}
		if st.FrameX != nil {
			f.SetTrim(st.FrameWidth, st.FrameHeight,
				abs(*st.FrameX), abs(st.FrameY), st.Width, st.Height)
		}
		if st.Rotated {
			f.Rotated = true
			f.UpdateUVsInverted()
		}
	}
	if doc.ImagePath != "" {
		t.CustomData["imagePath"] = doc.ImagePath
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
