package stagecraft

import (
	"context"
	"image/color"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"img.png":    {Data: pngBytes(t, solidImage(8, 8, color.NRGBA{R: 200, A: 255}))},
		"atlas.png":  {Data: pngBytes(t, gradientImage(32, 32))},
		"atlas.json": {Data: []byte(hashAtlasJSON)},
		"atlas.xml":  {Data: []byte(starlingXML)},
		"big.png":    {Data: pngBytes(t, gradientImage(64, 64))},
		"big.meta":   {Data: []byte(unityMetaYAML)},
		"doc.json":   {Data: []byte(`{"level": 3, "name": "caves"}`)},
		"bad.json":   {Data: []byte(`{"level": `)},
		"cfg.xml":    {Data: []byte(`<config><speed>2</speed></config>`)},
		"conf.yaml":  {Data: []byte("lives: 3\n")},
		"note.txt":   {Data: []byte("hello")},
		"blob.bin":   {Data: []byte{0, 1, 2, 3}},
		"beep.wav":   {Data: []byte("RIFF")},
	}
}

// loaderFor returns the loader of an added, not yet started scene.
func loaderFor(t *testing.T, cfg Config) (*Game, *LoaderPlugin) {
	t.Helper()
	g := newBootedGame(t, cfg)
	s := newLifecycleScene("loader")
	addScene(t, g, s, false, nil)
	return g, s.Load()
}

func waitLoader(t *testing.T, l *LoaderPlugin) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
}

func TestLoaderLoadsEveryFileType(t *testing.T) {
	cfg := testConfig()
	cfg.Assets = testAssets(t)
	g, l := loaderFor(t, cfg)

	l.Image("img", "img.png").
		Atlas("atlas", "atlas.png", "atlas.json").
		AtlasXML("xml", "atlas.png", "atlas.xml").
		UnityAtlas("unity", "big.png", "big.meta").
		SpriteSheet("sheet", "img.png", SpriteSheetConfig{FrameWidth: 4, FrameHeight: 4}).
		JSON("doc", "doc.json").
		XML("cfg", "cfg.xml").
		YAML("conf", "conf.yaml").
		Text("note", "note.txt").
		Binary("blob", "blob.bin").
		Audio("beep", "beep.wav")
	require.Equal(t, 11, l.Len())

	completed := map[string]FileType{}
	var progress []float64
	var done, failed int
	started := 0
	l.On(EventLoadStart, func(...any) { started++ })
	l.On(EventFileComplete, func(args ...any) {
		completed[args[0].(string)] = args[1].(FileType)
	})
	l.On(EventLoadProgress, func(args ...any) { progress = append(progress, args[0].(float64)) })
	l.On(EventLoadComplete, func(args ...any) {
		assert.Same(t, l, args[0])
		done, failed = args[1].(int), args[2].(int)
	})

	l.Start()
	assert.True(t, l.IsLoading())
	assert.Equal(t, 1, started)
	assert.Equal(t, 0, l.Len(), "start takes the queue")
	waitLoader(t, l)
	l.Update()

	assert.Equal(t, 11, done)
	assert.Equal(t, 0, failed)
	assert.Len(t, completed, 11)
	assert.Equal(t, FileAtlasXML, completed["xml"])
	assert.Len(t, progress, 11)
	assert.InDelta(t, 1.0, progress[len(progress)-1], epsilon)
	assert.False(t, l.IsLoading())

	tm := g.Textures()
	for _, key := range []string{"img", "atlas", "xml", "unity", "sheet"} {
		assert.True(t, tm.Exists(key), key)
	}
	assert.NotNil(t, tm.GetFrame("atlas", "alpha"))
	assert.Len(t, tm.Get("sheet").GetFrameNames(false), 4)

	c := g.Cache()
	assert.Equal(t, map[string]any{"level": float64(3), "name": "caves"}, c.JSON.Get("doc"))
	assert.Equal(t, map[string]any{"lives": 3}, c.YAML.Get("conf"))
	assert.Equal(t, "hello", c.Text.Get("note"))
	assert.Equal(t, []byte{0, 1, 2, 3}, c.Binary.Get("blob"))
	assert.Equal(t, []byte(`<config><speed>2</speed></config>`), c.XML.Get("cfg"))
	assert.Equal(t, []byte("RIFF"), c.Audio.Get("beep"))
}

func TestLoaderErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Assets = testAssets(t)
	_, l := loaderFor(t, cfg)

	l.Image("missing", "nope.png")
	l.JSON("bad", "bad.json")
	l.AddFile(FileConfig{Type: FileAtlas, Key: "nodata", URL: "atlas.png"})
	l.AddFile(FileConfig{Type: "bogus", Key: "weird", URL: "note.txt"})
	l.Image("notimage", "note.txt")

	errs := map[string]error{}
	l.On(EventLoadError, func(args ...any) {
		errs[args[0].(FileConfig).Key] = args[1].(error)
	})
	var done, failed int
	l.On(EventLoadComplete, func(args ...any) { done, failed = args[1].(int), args[2].(int) })

	l.Start()
	waitLoader(t, l)
	l.Update()

	assert.Equal(t, 0, done)
	assert.Equal(t, 5, failed)
	require.Len(t, errs, 5)
	assert.ErrorIs(t, errs["missing"], fs.ErrNotExist)
	assert.ErrorIs(t, errs["nodata"], ErrInvalidAtlas)
	assert.ErrorIs(t, errs["weird"], ErrUnknownFileType)
	assert.Equal(t, 1.0, l.Progress())
}

func TestLoaderSkipsDuplicates(t *testing.T) {
	cfg := testConfig()
	cfg.Assets = testAssets(t)
	g, l := loaderFor(t, cfg)
	g.Textures().AddImage("taken", gradientImage(2, 2))
	g.Cache().JSON.Add("cached", 1)

	assert.False(t, l.AddFile(FileConfig{Type: FileImage, URL: "img.png"}), "no key")
	assert.False(t, l.AddFile(FileConfig{Type: FileImage, Key: "k"}), "no url")
	assert.False(t, l.AddFile(FileConfig{Type: FileImage, Key: "taken", URL: "img.png"}))
	assert.False(t, l.AddFile(FileConfig{Type: FileJSON, Key: "cached", URL: "doc.json"}))

	assert.True(t, l.AddFile(FileConfig{Type: FileImage, Key: "hero", URL: "img.png"}))
	assert.False(t, l.AddFile(FileConfig{Type: FileAtlas, Key: "hero", URL: "atlas.png", DataURL: "atlas.json"}), "textures share one key space")
	assert.True(t, l.AddFile(FileConfig{Type: FileJSON, Key: "hero", URL: "doc.json"}))
	assert.True(t, l.AddFile(FileConfig{Type: FileText, Key: "hero", URL: "note.txt"}))
	assert.False(t, l.AddFile(FileConfig{Type: FileText, Key: "hero", URL: "note.txt"}))
	assert.Equal(t, 3, l.Len())

	n := l.AddPack([]FileConfig{
		{Type: FileImage, Key: "hero", URL: "img.png"},
		{Type: FileYAML, Key: "conf", URL: "conf.yaml"},
	})
	assert.Equal(t, 1, n)
}

func TestLoaderStartEmpty(t *testing.T) {
	_, l := loaderFor(t, testConfig())
	var events []string
	l.On(EventLoadStart, func(...any) { events = append(events, EventLoadStart) })
	l.On(EventLoadComplete, func(...any) { events = append(events, EventLoadComplete) })

	l.Start()
	assert.Equal(t, []string{EventLoadStart, EventLoadComplete}, events)
	assert.False(t, l.IsLoading())
	assert.Equal(t, 1.0, l.Progress())
}

func TestLoaderResetAbandonsLoad(t *testing.T) {
	cfg := testConfig()
	cfg.Assets = testAssets(t)
	g, l := loaderFor(t, cfg)

	completed := 0
	l.On(EventLoadComplete, func(...any) { completed++ })
	l.Image("img", "img.png")
	l.Start()
	l.Reset()
	assert.False(t, l.IsLoading())

	waitLoader(t, l)
	l.Update()
	assert.Zero(t, completed)
	assert.False(t, g.Textures().Exists("img"))
}

func TestLoaderHTTP(t *testing.T) {
	img := pngBytes(t, gradientImage(4, 4))
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/img.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	})
	mux.HandleFunc("/assets/doc.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.BaseURL = srv.URL
	cfg.AssetPath = "assets"
	g, l := loaderFor(t, cfg)

	l.Image("rel", "img.png")
	l.JSON("doc", "doc.json")
	l.Image("abs", srv.URL+"/assets/img.png")
	l.Image("gone", "missing.png")

	var failedFile FileConfig
	l.On(EventLoadError, func(args ...any) { failedFile = args[0].(FileConfig) })

	l.Start()
	waitLoader(t, l)
	l.Update()

	assert.True(t, g.Textures().Exists("rel"))
	assert.True(t, g.Textures().Exists("abs"))
	assert.Equal(t, []any{float64(1), float64(2)}, g.Cache().JSON.Get("doc"))
	assert.Equal(t, "gone", failedFile.Key)
}

func TestLoaderKeepsRootWhileLoading(t *testing.T) {
	img := pngBytes(t, gradientImage(4, 4))
	gate := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/first.png", func(w http.ResponseWriter, r *http.Request) {
		<-gate
		_, _ = w.Write(img)
	})
	mux.HandleFunc("/assets/second.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(img)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.BaseURL = srv.URL
	cfg.AssetPath = "assets"
	cfg.MaxParallelDownloads = 1
	g, l := loaderFor(t, cfg)

	l.Image("first", "first.png")
	l.Image("second", "second.png")
	l.Start()
	l.SetPath("moved")
	l.SetBaseURL("http://127.0.0.1:1")
	close(gate)

	waitLoader(t, l)
	l.Update()
	assert.True(t, g.Textures().Exists("first"))
	assert.True(t, g.Textures().Exists("second"), "files fetched later still use the starting root")
}

func TestLoaderScenePack(t *testing.T) {
	cfg := testConfig()
	cfg.Assets = testAssets(t)
	g := newBootedGame(t, cfg)

	s := newLifecycleScene("packed")
	s.cfg.Files = []FileConfig{
		{Type: FileImage, Key: "hero", URL: "img.png"},
		{Type: FileJSON, Key: "level", URL: "doc.json"},
	}
	addScene(t, g, s, true, nil)
	assert.Equal(t, StatusLoading, status(s))
	assert.Empty(t, s.calls, "init waits for the pack")

	waitLoader(t, s.Load())
	runFrame(g, nil)
	require.GreaterOrEqual(t, len(s.calls), 3)
	assert.Equal(t, []string{"init", "preload", "create"}, s.calls[:3])
	assert.Equal(t, StatusRunning, status(s))
	assert.True(t, g.Textures().Exists("hero"))
	assert.True(t, g.Cache().JSON.Has("level"))
}

func TestLoaderFailedFileStillCreates(t *testing.T) {
	cfg := testConfig()
	cfg.Assets = testAssets(t)
	g := newBootedGame(t, cfg)

	scene, err := g.Scene().Add("", Descriptor(SceneDescriptor{
		Config:  SceneConfig{Key: "broken"},
		Preload: func(s *FuncScene) { s.Load().Image("ghost", "ghost.png") },
	}), true, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, status(scene))

	waitLoader(t, scene.Sys().Load())
	runFrame(g, nil)
	assert.Equal(t, StatusRunning, status(scene))
	assert.False(t, g.Textures().Exists("ghost"))
}

// blockingFS never answers until released.
type blockingFS struct {
	release chan struct{}
}

func (b blockingFS) Open(name string) (fs.File, error) {
	<-b.release
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func TestLoaderNeverCompletingLoadStaysLoading(t *testing.T) {
	cfg := testConfig()
	block := blockingFS{release: make(chan struct{})}
	cfg.Assets = block
	g := newBootedGame(t, cfg)
	t.Cleanup(func() { close(block.release) })

	s := newLifecycleScene("stuck")
	s.cfg.Files = []FileConfig{{Type: FileImage, Key: "slow", URL: "slow.png"}}
	addScene(t, g, s, true, nil)

	for i := 0; i < 5; i++ {
		runFrame(g, nil)
	}
	assert.Equal(t, StatusLoading, status(s))
	assert.True(t, s.Load().IsLoading())
	assert.Zero(t, s.count("create"))

	r := &recordRenderer{}
	runFrame(g, r)
	assert.Contains(t, r.begun, "main", "loading scenes still render")
}

func TestLoaderStopCancelsPack(t *testing.T) {
	cfg := testConfig()
	cfg.Assets = testAssets(t)
	g := newBootedGame(t, cfg)

	s := newLifecycleScene("cancel")
	s.cfg.Files = []FileConfig{{Type: FileImage, Key: "hero", URL: "img.png"}}
	addScene(t, g, s, true, nil)
	waitLoader(t, s.Load())

	g.Scene().Stop("cancel", nil)
	runFrame(g, nil)
	assert.Equal(t, StatusShutdown, status(s))
	assert.Zero(t, s.count("create"))
	assert.False(t, g.Textures().Exists("hero"))
}
