package stagecraft

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestDebugModeLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.LogOutput = &buf
	cfg.LogLevel = "warn"
	g := newBootedGame(t, cfg)

	assert.False(t, g.IsDebugMode())
	assert.Equal(t, log.WarnLevel, g.Logger().GetLevel())

	g.SetDebugMode(true)
	assert.True(t, g.IsDebugMode())
	assert.Equal(t, log.DebugLevel, g.Logger().GetLevel())

	g.SetDebugMode(false)
	assert.Equal(t, log.WarnLevel, g.Logger().GetLevel(), "turning debug off restores the configured level")
}

func TestDebugLogScenes(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.LogOutput = &buf
	g := newBootedGame(t, cfg)
	addScene(t, g, newLifecycleScene("menu"), true, nil)
	addScene(t, g, newLifecycleScene("hud"), false, nil)

	g.LogScenes()
	assert.Empty(t, buf.String(), "scene dumps log at debug level")

	g.SetDebugMode(true)
	g.LogScenes()
	out := buf.String()
	assert.Contains(t, out, "[*] menu (running)")
	assert.Contains(t, out, "[-] hud (init)")
	assert.Less(t, strings.Index(out, "menu"), strings.Index(out, "hud"))
}

func TestDebugFrameStats(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.LogOutput = &buf
	cfg.Debug = true
	g := newBootedGame(t, cfg)

	g.debugLog()
	assert.Contains(t, buf.String(), "drawCalls")

	buf.Reset()
	g.SetDebugMode(false)
	g.debugLog()
	assert.Empty(t, buf.String())
}

func TestDebugOverlay(t *testing.T) {
	g := newBootedGame(t, testConfig())
	addScene(t, g, newLifecycleScene("menu"), true, nil)
	g.stats.drawCalls = 7

	text := g.overlayText()
	assert.True(t, strings.HasPrefix(text, "FPS: "))
	assert.Contains(t, text, "scenes: 1")
	assert.Contains(t, text, "draws: 7")

	g.drawOverlay(nil)
}
