package gpiod

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/BertoldVdb/go-gpiod/closeflag"
)

const devDir = "/dev"

// ListChipPaths returns the paths of all GPIO character devices on the
// system, sorted by name.
func ListChipPaths() ([]string, error) {
	return listChipPathsIn(devDir)
}

func listChipPathsIn(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "gpiochip*"))
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, path := range matches {
		if isChipName(filepath.Base(path)) {
			paths = append(paths, path)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isChipName(name string) bool {
	rest, ok := strings.CutPrefix(name, "gpiochip")
	if !ok || rest == "" {
		return false
	}

	_, err := strconv.Atoi(rest)
	return err == nil
}

// ChipPathEvent reports the appearance or disappearance of a GPIO
// character device.
type ChipPathEvent struct {
	Path  string
	Added bool
}

// ChipPathWatcher reports GPIO chip hotplug through a channel. It
// watches the device directory with fsnotify.
type ChipPathWatcher struct {
	// Events delivers hotplug events until Close is called.
	Events chan (ChipPathEvent)

	watcher *fsnotify.Watcher
	flag    closeflag.CloseFlag
	done    chan (struct{})
}

// NewChipPathWatcher starts watching dir for GPIO devices appearing or
// disappearing. Pass an empty dir to watch /dev.
func NewChipPathWatcher(dir string) (*ChipPathWatcher, error) {
	if dir == "" {
		dir = devDir
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &ChipPathWatcher{
		Events:  make(chan (ChipPathEvent), 16),
		watcher: watcher,
		done:    make(chan (struct{})),
	}

	go w.run()

	return w, nil
}

func (w *ChipPathWatcher) run() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isChipName(filepath.Base(event.Name)) {
				continue
			}

			var out ChipPathEvent
			if event.Has(fsnotify.Create) {
				out = ChipPathEvent{Path: event.Name, Added: true}
			} else if event.Has(fsnotify.Remove) {
				out = ChipPathEvent{Path: event.Name}
			} else {
				continue
			}

			select {
			case w.Events <- out:
			case <-w.flag.Chan():
				return
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-w.flag.Chan():
			return
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *ChipPathWatcher) Close() error {
	err := w.flag.Close()
	if err == closeflag.ErrorClosed {
		return nil
	}

	w.watcher.Close()
	<-w.done

	return err
}
