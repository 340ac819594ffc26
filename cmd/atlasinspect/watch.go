package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce is how long a file must stay quiet before its change is
// reported. Every new event for the file restarts the wait.
const watchDebounce = 100 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <image> [data]",
	Short: "Reload an atlas whenever its files change",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, dataPath := atlasArgs(args)
		w, err := newAtlasWatcher(imagePath, dataPath)
		if err != nil {
			return err
		}
		defer w.Close()

		reload := func() {
			_, t, err := loadAtlas(imagePath, dataPath, flagSheet, logger)
			if err != nil {
				logger.Error("reload failed", "err", err)
				return
			}
			if t == nil {
				logger.Warn("atlas not registered")
				return
			}
			logger.Info("atlas loaded", "frames", len(t.GetFrameNames(false)), "sources", len(t.Source))
		}
		reload()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt)
		defer signal.Stop(stop)
		for {
			select {
			case name, ok := <-w.Events:
				if !ok {
					return nil
				}
				logger.Debug("changed", "file", name)
				reload()
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", "err", err)
			case <-stop:
				return nil
			}
		}
	},
}

// atlasWatcher reports writes to a fixed set of files. It watches their
// directories so editors that replace files on save are still seen.
type atlasWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	Events   chan string
	Errors   chan error
	done     chan struct{}
}

func newAtlasWatcher(paths ...string) (*atlasWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &atlasWatcher{
		watcher:  fw,
		files:    make(map[string]bool),
		debounce: watchDebounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	go w.run()
	return w, nil
}

func (w *atlasWatcher) run() {
	defer close(w.Events)
	defer close(w.Errors)
	quiet := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			if t, ok := timers[abs]; ok {
				t.Reset(w.debounce)
				continue
			}
			timers[abs] = time.AfterFunc(w.debounce, func() {
				select {
				case quiet <- abs:
				case <-w.done:
				}
			})
		case abs := <-quiet:
			select {
			case w.Events <- abs:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// Close stops watching. Events and Errors are closed once the watcher has
// stopped.
func (w *atlasWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
