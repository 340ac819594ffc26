package stagecraft

import "strconv"

// SpriteSheetConfig describes a grid of equally sized frames.
type SpriteSheetConfig struct {
	FrameWidth  int `yaml:"frameWidth"`
	FrameHeight int `yaml:"frameHeight"` // defaults to FrameWidth
	StartFrame  int `yaml:"startFrame"`  // negative counts back from the last cell
	EndFrame    int `yaml:"endFrame"`    // -1 or 0 means the last cell
	Margin      int `yaml:"margin"`
	Spacing     int `yaml:"spacing"`

	// Atlas and Frame name the atlas frame holding the sheet when used with
	// AddSpriteSheetFromAtlas.
	Atlas string `yaml:"atlas"`
	Frame string `yaml:"frame"`
}

func (c SpriteSheetConfig) frameHeight() int {
	if c.FrameHeight <= 0 {
		return c.FrameWidth
	}
	return c.FrameHeight
}

// frameRange resolves StartFrame/EndFrame against the number of cells.
func (c SpriteSheetConfig) frameRange(total int) (start, end int) {
	start, end = c.StartFrame, c.EndFrame
	if start > total || start < -total {
		start = 0
	}
	if start < 0 {
		start += total
	}
	if end <= 0 || end > total || end < start {
		end = total
	}
	return start, end
}

// parseSpriteSheet cuts the region (x, y, width, height) of a source into a
// grid. Frames are named by their index, counting from StartFrame as "0".
// Cells on the right or bottom edge that do not fit are clipped.
func parseSpriteSheet(t *Texture, sourceIndex, x, y, width, height int, cfg SpriteSheetConfig) {
	fw, fh := cfg.FrameWidth, cfg.frameHeight()
	if fw <= 0 || fh <= 0 {
		t.logger().Error("sprite sheet has an invalid frame size", "texture", t.Key, "frameWidth", fw, "frameHeight", fh)
		return
	}
	if sourceIndex >= len(t.Source) {
		return
	}

	src := t.Source[sourceIndex]
	t.Add(BaseFrame, sourceIndex, 0, 0, src.Width, src.Height)

	margin, spacing := cfg.Margin, cfg.Spacing
	cols := (width - margin + spacing) / (fw + spacing)
	rows := (height - margin + spacing) / (fh + spacing)
	total := cols * rows
	if total <= 0 {
		t.logger().Warn("sprite sheet frame size results in zero frames", "texture", t.Key)
		return
	}
	start, end := cfg.frameRange(total)

	fx, fy := margin, margin
	n := 0
	for i := 0; i < total; i++ {
		ax, ay := 0, 0
		if w := fx + fw; w > width {
			ax = w - width
		}
		if h := fy + fh; h > height {
			ay = h - height
		}
		if i >= start && i <= end {
			t.Add(strconv.Itoa(n), sourceIndex, x+fx, y+fy, fw-ax, fh-ay)
			n++
		}
		fx += fw + spacing
		if fx+fw > width {
			fx = margin
			fy += fh + spacing
		}
	}
}

// parseSpriteSheetFromAtlas cuts a trimmed atlas frame into a grid laid over
// the frame's untrimmed size. Each cell keeps only the part overlapping the
// trimmed pixels and carries trim data restoring its full cell size.
func parseSpriteSheetFromAtlas(t *Texture, sheet *Frame, cfg SpriteSheetConfig) {
	fw, fh := cfg.FrameWidth, cfg.frameHeight()
	if fw <= 0 || fh <= 0 {
		t.logger().Error("sprite sheet has an invalid frame size", "texture", t.Key, "frameWidth", fw, "frameHeight", fh)
		return
	}

	src := t.Source[0]
	t.Add(BaseFrame, 0, 0, 0, src.Width, src.Height)

	width, height := sheet.RealWidth(), sheet.RealHeight()
	ss := sheet.Data.SpriteSourceSize
	margin, spacing := cfg.Margin, cfg.Spacing
	cols := (width - margin + spacing) / (fw + spacing)
	rows := (height - margin + spacing) / (fh + spacing)
	total := cols * rows
	if total <= 0 {
		t.logger().Warn("sprite sheet frame size results in zero frames", "texture", t.Key)
		return
	}
	start, end := cfg.frameRange(total)

	n := 0
	for i := 0; i < total; i++ {
		if i < start || i > end {
			continue
		}
		cellX := margin + (i%cols)*(fw+spacing)
		cellY := margin + (i/cols)*(fh+spacing)

		x0, y0 := max(cellX, ss.X), max(cellY, ss.Y)
		x1, y1 := min(cellX+fw, ss.R), min(cellY+fh, ss.B)

		name := strconv.Itoa(n)
		n++
		if x1 <= x0 || y1 <= y0 {
			f := t.Add(name, 0, sheet.CutX, sheet.CutY, 0, 0)
			if f != nil {
				f.SetTrim(fw, fh, 0, 0, 0, 0)
			}
			continue
		}
		f := t.Add(name, 0, sheet.CutX+(x0-ss.X), sheet.CutY+(y0-ss.Y), x1-x0, y1-y0)
		if f != nil {
			f.SetTrim(fw, fh, x0-cellX, y0-cellY, x1-x0, y1-y0)
		}
	}
}
