package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

const defaultDebounce = 500 * time.Millisecond

// CharacterWatcher watches the bootstrap file and reports the new character
// once a burst of writes has settled. Game tooling tends to rewrite the file
// several times in quick succession during a character switch; the debounce
// collapses that into one callback.
type CharacterWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	source   ports.CharacterSource
	onChange func(domain.CharacterName)
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	pending time.Time
	dirty   bool
	last    domain.CharacterName
}

var (
	errNilSource   = errors.New("character source is nil")
	errNilCallback = errors.New("change callback is nil")
	errRunning     = errors.New("character watcher already running")
)

func NewCharacterWatcher(path string, source ports.CharacterSource, onChange func(domain.CharacterName), logger *zap.Logger) (*CharacterWatcher, error) {
	if source == nil {
		return nil, errNilSource
	}
	if onChange == nil {
		return nil, errNilCallback
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &CharacterWatcher{
		watcher:  watcher,
		path:     abs,
		source:   source,
		onChange: onChange,
		logger:   logger,
		debounce: defaultDebounce,
	}, nil
}

// Start watches the bootstrap file's directory so the file may appear,
// disappear, or be renamed into place after the watcher is up.
func (w *CharacterWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errRunning
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		if closeErr := w.watcher.Close(); closeErr != nil {
			w.logger.Warn("closing bootstrap watcher failed", zap.Error(closeErr))
		}
		return err
	}

	if name, err := w.source.CurrentCharacter(context.Background()); err == nil {
		w.mu.Lock()
		w.last = name
		w.mu.Unlock()
	}

	go w.run(w.stopCh, w.doneCh)

	w.logger.Info("watching bootstrap file", zap.String("path", w.path))

	return nil
}

// Stop drains the watcher goroutine and closes the underlying notifier. Safe
// to call repeatedly.
func (w *CharacterWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing bootstrap watcher failed", zap.Error(err))
	}
}

func (w *CharacterWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.running
}

func (w *CharacterWatcher) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("bootstrap watcher error", zap.Error(err))

		case <-ticker.C:
			w.emitSettled()
		}
	}
}

func (w *CharacterWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.mu.Lock()
	w.pending = time.Now()
	w.dirty = true
	w.mu.Unlock()
}

func (w *CharacterWatcher) emitSettled() {
	w.mu.Lock()
	if !w.dirty || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.dirty = false
	w.mu.Unlock()

	name, err := w.source.CurrentCharacter(context.Background())
	if err != nil {
		w.logger.Warn("bootstrap re-read failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	changed := name != w.last
	w.last = name
	w.mu.Unlock()

	if changed {
		w.logger.Info("bootstrap character changed", zap.String("character", string(name)))
		w.onChange(name)
	}
}
