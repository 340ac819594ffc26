package stagecraft

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// frameStats holds per-frame timing and draw-call metrics.
// Only logged when debug mode is on.
type frameStats struct {
	update    time.Duration
	render    time.Duration
	drawCalls int
}

// SetDebugMode enables per-frame stats at debug level and lowers the logger
// to debug. Turning it off restores the configured level.
func (g *Game) SetDebugMode(enabled bool) {
	g.debug = enabled
	if enabled {
		g.logger.SetLevel(log.DebugLevel)
	} else {
		g.logger.SetLevel(g.level)
	}
}

// IsDebugMode reports whether debug mode is on.
func (g *Game) IsDebugMode() bool { return g.debug }

// debugLog prints timing and draw-call stats.
func (g *Game) debugLog() {
	if !g.debug {
		return
	}
	s := g.stats
	g.logger.Debug("frame",
		"update", s.update,
		"render", s.render,
		"total", s.update+s.render,
		"drawCalls", s.drawCalls,
		"scenes", g.scene.Len(),
	)
}

// overlayText is the debug overlay drawn in the top-left corner.
func (g *Game) overlayText() string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nscenes: %d\ndraws: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.scene.Len(), g.stats.drawCalls)
}

// drawOverlay prints the frame stats over the screen in debug mode.
func (g *Game) drawOverlay(screen *ebiten.Image) {
	if !g.debug || screen == nil {
		return
	}
	ebitenutil.DebugPrint(screen, g.overlayText())
}

// LogScenes writes the scene list, top of the render order last, at debug
// level.
func (g *Game) LogScenes() {
	for _, line := range strings.Split(strings.TrimRight(g.scene.Dump(), "\n"), "\n") {
		if line != "" {
			g.logger.Debug(line)
		}
	}
}
