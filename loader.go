package stagecraft

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// FileType selects how a loaded file is decoded and where it is stored.
type FileType string

const (
	FileImage       FileType = "image"
	FileAtlas       FileType = "atlas"
	FileAtlasXML    FileType = "atlasXML"
	FileUnityAtlas  FileType = "unityAtlas"
	FileSpriteSheet FileType = "spritesheet"
	FileJSON        FileType = "json"
	FileXML         FileType = "xml"
	FileYAML        FileType = "yaml"
	FileText        FileType = "text"
	FileBinary      FileType = "binary"
	FileAudio       FileType = "audio"
)

// FileConfig describes one file to load. Atlases use URL for the image and
// DataURL for the frame data.
type FileConfig struct {
	Type        FileType          `yaml:"type"`
	Key         string            `yaml:"key"`
	URL         string            `yaml:"url"`
	DataURL     string            `yaml:"dataURL"`
	FrameConfig SpriteSheetConfig `yaml:"frameConfig"`
}

func (f FileConfig) isTexture() bool {
	switch f.Type {
	case FileImage, FileAtlas, FileAtlasXML, FileUnityAtlas, FileSpriteSheet:
		return true
	}
	return false
}

type loaderState uint8

const (
	loaderIdle loaderState = iota
	loaderLoading
	loaderComplete
)

type loadResult struct {
	gen   uint64
	file  FileConfig
	img   image.Image
	data  []byte
	value any
	err   error
}

// LoaderPlugin loads a scene's files. Files are fetched and decoded on
// background goroutines; results are applied to the texture manager and
// caches by Update, which runs on the scene's preupdate event.
//
// Events: start(loader), filecomplete(key, type, value), loaderror(file, err),
// progress(fraction) and finally complete(loader, completed, failed).
type LoaderPlugin struct {
	*EventEmitter

	sys    *Systems
	logger *log.Logger

	assets      fs.FS
	path        string
	baseURL     string
	maxParallel int
	timeout     time.Duration
	client      *http.Client

	list          []FileConfig
	state         loaderState
	totalToLoad   int
	totalComplete int
	totalFailed   int
	gen           uint64
	cancel        context.CancelFunc

	mu      sync.Mutex
	results []loadResult
	wg      sync.WaitGroup

	updateHandle ListenerHandle
}

// Boot implements ScenePluginInstance.
func (l *LoaderPlugin) Boot(sys *Systems) {
	l.sys = sys
	l.logger = sys.logger
	l.EventEmitter = NewEventEmitter()

	cfg := sys.game.Config
	l.assets = cfg.Assets
	l.path = cfg.AssetPath
	l.baseURL = cfg.BaseURL
	l.maxParallel = cfg.MaxParallelDownloads
	if l.maxParallel <= 0 {
		l.maxParallel = 32
	}
	l.timeout = cfg.LoaderTimeout
	l.client = &http.Client{Timeout: l.timeout}

	l.updateHandle = sys.events.On(EventPreUpdate, func(...any) { l.Update() })
}

// Shutdown implements PluginShutdowner.
func (l *LoaderPlugin) Shutdown() {
	l.Reset()
	l.RemoveAllListeners()
}

// Destroy implements ScenePluginInstance.
func (l *LoaderPlugin) Destroy() {
	l.Shutdown()
	l.updateHandle.Remove()
}

// SetPath sets the prefix joined to relative URLs. A load already running
// keeps the prefix it started with.
func (l *LoaderPlugin) SetPath(p string) *LoaderPlugin {
	l.path = p
	return l
}

// SetBaseURL sets the server relative URLs are fetched from when no asset
// file system is configured.
func (l *LoaderPlugin) SetBaseURL(u string) *LoaderPlugin {
	l.baseURL = u
	return l
}

// Len returns the number of queued files.
func (l *LoaderPlugin) Len() int { return len(l.list) }

// IsLoading reports whether a load is in flight.
func (l *LoaderPlugin) IsLoading() bool { return l.state == loaderLoading }

// Progress returns the fraction of the current load that has finished.
func (l *LoaderPlugin) Progress() float64 {
	if l.totalToLoad == 0 {
		return 1
	}
	return float64(l.totalComplete+l.totalFailed) / float64(l.totalToLoad)
}

// AddFile queues a file. Files whose key is already in the texture manager
// or the target cache, or already queued, are skipped.
func (l *LoaderPlugin) AddFile(f FileConfig) bool {
	if f.Key == "" || f.URL == "" {
		l.logger.Warn("loader file needs a key and url", "type", f.Type, "key", f.Key)
		return false
	}
	if l.keyExists(f) {
		l.logger.Debug("loader skipped file with existing key", "type", f.Type, "key", f.Key)
		return false
	}
	for _, q := range l.list {
		if q.Key == f.Key && q.isTexture() == f.isTexture() && (q.isTexture() || q.Type == f.Type) {
			return false
		}
	}
	l.list = append(l.list, f)
	return true
}

func (l *LoaderPlugin) keyExists(f FileConfig) bool {
	if f.isTexture() {
		return l.sys.textures.Exists(f.Key)
	}
	if c := l.cacheFor(f.Type); c != nil {
		return c.Has(f.Key)
	}
	return false
}

func (l *LoaderPlugin) cacheFor(t FileType) *BaseCache {
	c := l.sys.cache
	switch t {
	case FileJSON:
		return c.JSON
	case FileXML:
		return c.XML
	case FileYAML:
		return c.YAML
	case FileText:
		return c.Text
	case FileBinary:
		return c.Binary
	case FileAudio:
		return c.Audio
	}
	return nil
}

// AddPack queues every file in files and returns how many were added.
func (l *LoaderPlugin) AddPack(files []FileConfig) int {
	n := 0
	for _, f := range files {
		if l.AddFile(f) {
			n++
		}
	}
	return n
}

// Image queues an image.
func (l *LoaderPlugin) Image(key, url string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileImage, Key: key, URL: url})
	return l
}

// Atlas queues a TexturePacker JSON atlas.
func (l *LoaderPlugin) Atlas(key, textureURL, atlasURL string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileAtlas, Key: key, URL: textureURL, DataURL: atlasURL})
	return l
}

// AtlasXML queues a Starling XML atlas.
func (l *LoaderPlugin) AtlasXML(key, textureURL, xmlURL string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileAtlasXML, Key: key, URL: textureURL, DataURL: xmlURL})
	return l
}

// UnityAtlas queues an image with its Unity .meta sprite data.
func (l *LoaderPlugin) UnityAtlas(key, textureURL, metaURL string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileUnityAtlas, Key: key, URL: textureURL, DataURL: metaURL})
	return l
}

// SpriteSheet queues an image cut into a grid.
func (l *LoaderPlugin) SpriteSheet(key, url string, cfg SpriteSheetConfig) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileSpriteSheet, Key: key, URL: url, FrameConfig: cfg})
	return l
}

// JSON queues a JSON document for the JSON cache.
func (l *LoaderPlugin) JSON(key, url string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileJSON, Key: key, URL: url})
	return l
}

// XML queues an XML document for the XML cache.
func (l *LoaderPlugin) XML(key, url string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileXML, Key: key, URL: url})
	return l
}

// YAML queues a YAML document for the YAML cache.
func (l *LoaderPlugin) YAML(key, url string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileYAML, Key: key, URL: url})
	return l
}

// Text queues a text file for the Text cache.
func (l *LoaderPlugin) Text(key, url string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileText, Key: key, URL: url})
	return l
}

// Binary queues a file for the Binary cache.
func (l *LoaderPlugin) Binary(key, url string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileBinary, Key: key, URL: url})
	return l
}

// Audio queues an encoded audio file for the Audio cache.
func (l *LoaderPlugin) Audio(key, url string) *LoaderPlugin {
	l.AddFile(FileConfig{Type: FileAudio, Key: key, URL: url})
	return l
}

// Start begins loading the queued files. With nothing queued it completes
// immediately.
func (l *LoaderPlugin) Start() {
	if l.state == loaderLoading {
		return
	}
	files := l.list
	l.list = nil
	l.totalToLoad = len(files)
	l.totalComplete = 0
	l.totalFailed = 0

	l.Emit(EventLoadStart, l)
	if len(files) == 0 {
		l.state = loaderComplete
		l.Emit(EventLoadComplete, l, 0, 0)
		return
	}
	l.state = loaderLoading

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	gen := l.gen
	root := fileRoot{path: l.path, baseURL: l.baseURL}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		var g errgroup.Group
		g.SetLimit(l.maxParallel)
		for _, f := range files {
			g.Go(func() error {
				res := l.load(ctx, root, f)
				res.gen = gen
				l.mu.Lock()
				l.results = append(l.results, res)
				l.mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until every in-flight file has been fetched and decoded. The
// results still have to be applied with Update.
func (l *LoaderPlugin) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset drops queued files and abandons any load in flight.
func (l *LoaderPlugin) Reset() {
	l.list = nil
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state = loaderIdle
	l.totalToLoad = 0
	l.totalComplete = 0
	l.totalFailed = 0
	l.mu.Lock()
	l.results = nil
	l.mu.Unlock()
}

// Update applies finished files and emits complete once all have finished.
func (l *LoaderPlugin) Update() {
	if l.state != loaderLoading {
		return
	}
	l.mu.Lock()
	done := l.results
	l.results = nil
	l.mu.Unlock()

	for _, res := range done {
		if res.gen != l.gen || l.state != loaderLoading {
			continue
		}
		value, err := res.value, res.err
		if err == nil {
			value, err = l.apply(res)
		}
		if err != nil {
			l.totalFailed++
			l.logger.Warn("failed to load file", "key", res.file.Key, "url", res.file.URL, "error", err)
			l.Emit(EventLoadError, res.file, err)
		} else {
			l.totalComplete++
			l.Emit(EventFileComplete, res.file.Key, res.file.Type, value)
		}
		l.Emit(EventLoadProgress, l.Progress())
	}

	if l.state == loaderLoading && l.totalComplete+l.totalFailed >= l.totalToLoad {
		l.state = loaderComplete
		if l.cancel != nil {
			l.cancel()
			l.cancel = nil
		}
		l.Emit(EventLoadComplete, l, l.totalComplete, l.totalFailed)
	}
}

// apply stores a decoded file on the frame goroutine.
func (l *LoaderPlugin) apply(res loadResult) (any, error) {
	f := res.file
	tm := l.sys.textures
	var (
		t   *Texture
		err error
	)
	switch f.Type {
	case FileImage:
		t = tm.AddImage(f.Key, res.img)
	case FileAtlas:
		t, err = tm.AddAtlas(f.Key, []image.Image{res.img}, [][]byte{res.data})
	case FileAtlasXML:
		t, err = tm.AddAtlasXML(f.Key, res.img, res.data)
	case FileUnityAtlas:
		t, err = tm.AddUnityAtlas(f.Key, res.img, res.data)
	case FileSpriteSheet:
		t = tm.AddSpriteSheet(f.Key, res.img, f.FrameConfig)
	default:
		c := l.cacheFor(f.Type)
		if c == nil {
			return nil, fmt.Errorf("stagecraft: %q: %w", f.Type, ErrUnknownFileType)
		}
		c.Add(f.Key, res.value)
		return res.value, nil
	}
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("stagecraft: texture key %q already in use", f.Key)
	}
	return t, nil
}

// load fetches and decodes one file on a worker goroutine.
func (l *LoaderPlugin) load(ctx context.Context, root fileRoot, f FileConfig) loadResult {
	res := loadResult{file: f}
	raw, err := l.fetch(ctx, root, f.URL)
	if err != nil {
		res.err = err
		return res
	}

	switch f.Type {
	case FileImage, FileSpriteSheet:
		res.img, res.err = decodeImage(raw)
	case FileAtlas, FileAtlasXML, FileUnityAtlas:
		if f.DataURL == "" {
			res.err = fmt.Errorf("stagecraft: atlas %q has no data url: %w", f.Key, ErrInvalidAtlas)
			return res
		}
		if res.img, res.err = decodeImage(raw); res.err != nil {
			return res
		}
		res.data, res.err = l.fetch(ctx, root, f.DataURL)
	case FileJSON:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			res.err = fmt.Errorf("stagecraft: failed to parse JSON %s: %w", f.URL, err)
			return res
		}
		res.value = v
	case FileYAML:
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			res.err = fmt.Errorf("stagecraft: failed to parse YAML %s: %w", f.URL, err)
			return res
		}
		res.value = v
	case FileText:
		res.value = string(raw)
	case FileXML, FileBinary, FileAudio:
		res.value = raw
	default:
		res.err = fmt.Errorf("stagecraft: %q: %w", f.Type, ErrUnknownFileType)
	}
	return res
}

func isRemoteURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// fileRoot is the path and base URL a load started with.
type fileRoot struct {
	path    string
	baseURL string
}

// fetch reads a file from the asset file system, the base URL or disk.
func (l *LoaderPlugin) fetch(ctx context.Context, root fileRoot, url string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	switch {
	case isRemoteURL(url):
		return l.fetchHTTP(ctx, url)
	case l.assets != nil:
		data, err := fs.ReadFile(l.assets, path.Join(root.path, url))
		if err != nil {
			return nil, fmt.Errorf("stagecraft: failed to read %s: %w", url, err)
		}
		return data, nil
	case root.baseURL != "":
		return l.fetchHTTP(ctx, strings.TrimSuffix(root.baseURL, "/")+"/"+path.Join(root.path, url))
	default:
		data, err := os.ReadFile(path.Join(root.path, url))
		if err != nil {
			return nil, fmt.Errorf("stagecraft: failed to read %s: %w", url, err)
		}
		return data, nil
	}
}

func (l *LoaderPlugin) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stagecraft: bad request for %s: %w", url, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stagecraft: failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stagecraft: failed to fetch %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stagecraft: failed to read %s: %w", url, err)
	}
	return data, nil
}
