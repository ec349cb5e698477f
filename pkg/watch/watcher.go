package watch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/events"
	"github.com/arthur-debert/pkglink/pkg/logging"
)

const defaultBuffer = 256

// Options configures a Watcher
type Options struct {
	// Debounce collapses repeated notifications of the same kind for the
	// same path arriving within this window. Zero disables debouncing.
	Debounce time.Duration
	// Buffer is the capacity of the notification channel.
	Buffer int
}

// SubscribeOptions filters what a subscription reports
type SubscribeOptions struct {
	// Kinds limits the reported notification kinds. Empty means all.
	Kinds []events.Kind
	// Exclude holds glob patterns matched against each segment of the path
	// relative to the subscription root.
	Exclude []string
}

type subscription struct {
	root    string
	file    bool
	kinds   map[events.Kind]bool
	exclude []string
	dirs    map[string]bool
}

type pendingNotification struct {
	n    events.Notification
	last time.Time
}

// Watcher multiplexes subscriptions over one fsnotify watcher
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	subs    map[string]*subscription
	dirRefs map[string]int

	debounce time.Duration
	pending  []*pendingNotification

	out      chan events.Notification
	stopChan chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

// New starts a watcher with no subscriptions.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrWatch, "failed to create file watcher")
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	w := &Watcher{
		fsw:      fsw,
		subs:     make(map[string]*subscription),
		dirRefs:  make(map[string]int),
		debounce: opts.Debounce,
		out:      make(chan events.Notification, buffer),
		stopChan: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Notifications delivers classified-ready raw notifications. The channel is
// closed by Close.
func (w *Watcher) Notifications() <-chan events.Notification {
	return w.out
}

// Subscribe starts reporting changes at path. Subscribing an already
// subscribed path replaces its options.
func (w *Watcher) Subscribe(path string, opts SubscribeOptions) error {
	logger := logging.GetLogger("watch.Subscribe")
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New(errors.ErrWatch, "watcher is closed")
	}
	if _, ok := w.subs[path]; ok {
		w.unsubscribeLocked(path)
	}

	sub := &subscription{
		root:    path,
		kinds:   make(map[events.Kind]bool),
		exclude: opts.Exclude,
		dirs:    make(map[string]bool),
	}
	for _, k := range opts.Kinds {
		sub.kinds[k] = true
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		if err := w.addTreeLocked(sub, path); err != nil {
			w.releaseLocked(sub)
			return err
		}
	case err == nil || os.IsNotExist(err):
		// Files, including ones that do not exist yet, are watched through
		// their parent directory.
		sub.file = true
		if err := w.addDirLocked(sub, filepath.Dir(path)); err != nil {
			return err
		}
	default:
		return errors.Wrap(err, errors.ErrWatch, "failed to stat watch path").WithDetail("path", path)
	}

	w.subs[path] = sub
	logger.Debug().Str("path", path).Bool("file", sub.file).Int("dirs", len(sub.dirs)).Msg("Subscribed")
	return nil
}

// Unsubscribe stops reporting changes at path. Unknown paths are ignored.
func (w *Watcher) Unsubscribe(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unsubscribeLocked(filepath.Clean(path))
	return nil
}

// UnsubscribeAll drops every subscription.
func (w *Watcher) UnsubscribeAll() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path := range w.subs {
		w.unsubscribeLocked(path)
	}
	return nil
}

// Paths returns the subscribed paths, sorted.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.subs))
	for path := range w.subs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Close stops the watcher and closes the notification channel.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stopChan)
	err := w.fsw.Close()
	w.wg.Wait()
	close(w.out)
	return err
}

func (w *Watcher) unsubscribeLocked(path string) {
	sub, ok := w.subs[path]
	if !ok {
		return
	}
	w.releaseLocked(sub)
	delete(w.subs, path)
	logger := logging.GetLogger("watch.Unsubscribe")
	logger.Debug().Str("path", path).Msg("Unsubscribed")
}

func (w *Watcher) releaseLocked(sub *subscription) {
	for dir := range sub.dirs {
		w.dirRefs[dir]--
		if w.dirRefs[dir] <= 0 {
			delete(w.dirRefs, dir)
			// The directory may already be gone, which drops its watch.
			_ = w.fsw.Remove(dir)
		}
	}
	sub.dirs = make(map[string]bool)
}

func (w *Watcher) addDirLocked(sub *subscription, dir string) error {
	if sub.dirs[dir] {
		return nil
	}
	if w.dirRefs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return errors.Wrap(err, errors.ErrWatch, "failed to watch directory").WithDetail("path", dir)
		}
	}
	w.dirRefs[dir]++
	sub.dirs[dir] = true
	return nil
}

func (w *Watcher) addTreeLocked(sub *subscription, dir string) error {
	if err := w.addDirLocked(sub, dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.ErrWatch, "failed to read directory").WithDetail("path", dir)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		if sub.excludes(child) {
			continue
		}
		if err := w.addTreeLocked(sub, child); err != nil {
			return err
		}
	}
	return nil
}

// matches reports whether sub wants a notification of kind at path.
func (s *subscription) matches(kind events.Kind, path string) bool {
	if len(s.kinds) > 0 && !s.kinds[kind] {
		return false
	}
	if s.file {
		return path == s.root
	}
	return s.covers(path)
}

// covers reports whether path lies inside a directory subscription.
func (s *subscription) covers(path string) bool {
	if s.file || !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return false
	}
	return !s.excludes(path)
}

func (s *subscription) excludes(path string) bool {
	if len(s.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, pattern := range s.exclude {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		for _, segment := range strings.Split(rel, string(filepath.Separator)) {
			if matched, _ := filepath.Match(pattern, segment); matched {
				return true
			}
		}
	}
	return false
}

func kindOf(op fsnotify.Op) (events.Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return events.Created, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return events.Deleted, true
	case op.Has(fsnotify.Write):
		return events.Modified, true
	}
	return 0, false
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	logger := logging.GetLogger("watch")

	var tick <-chan time.Time
	if w.debounce > 0 {
		ticker := time.NewTicker(w.debounce / 2)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.flush(true)
				return
			}
			if n, ok := w.translate(event); ok {
				if w.debounce > 0 {
					w.queue(n)
				} else if !w.emit(n) {
					return
				}
			}

		case <-tick:
			w.flush(false)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("File watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// translate maps a raw event onto at most one notification and keeps
// directory watches in step with created and removed directories.
func (w *Watcher) translate(event fsnotify.Event) (events.Notification, bool) {
	kind, ok := kindOf(event.Op)
	if !ok {
		return events.Notification{}, false
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if kind == events.Created {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			logger := logging.GetLogger("watch")
			for _, sub := range w.subs {
				if sub.covers(path) {
					if err := w.addTreeLocked(sub, path); err != nil {
						logger.Warn().Err(err).Str("path", path).Msg("Failed to follow new directory")
					}
				}
			}
		}
	}

	if kind == events.Deleted {
		if _, ok := w.dirRefs[path]; ok {
			delete(w.dirRefs, path)
			for _, sub := range w.subs {
				delete(sub.dirs, path)
			}
		}
	}

	for _, sub := range w.subs {
		if sub.matches(kind, path) {
			return events.Notification{Kind: kind, Path: path}, true
		}
	}
	return events.Notification{}, false
}

func (w *Watcher) emit(n events.Notification) bool {
	select {
	case w.out <- n:
		return true
	case <-w.stopChan:
		return false
	}
}

// queue records n for a debounced flush. A file deleted and created again
// inside the window (an editor's atomic save) is reported as one
// modification when a subscription wants modifications for it.
func (w *Watcher) queue(n events.Notification) {
	now := time.Now()
	for i, p := range w.pending {
		if p.n == n {
			p.last = now
			return
		}
		if n.Kind == events.Created && p.n.Kind == events.Deleted && p.n.Path == n.Path && w.replaced(n.Path) {
			modified := events.Notification{Kind: events.Modified, Path: n.Path}
			for _, other := range w.pending {
				if other.n == modified {
					other.last = now
					w.pending = append(w.pending[:i], w.pending[i+1:]...)
					return
				}
			}
			p.n = modified
			p.last = now
			return
		}
	}
	w.pending = append(w.pending, &pendingNotification{n: n, last: now})
}

func (w *Watcher) replaced(path string) bool {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sub := range w.subs {
		if sub.matches(events.Modified, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) flush(all bool) {
	now := time.Now()
	kept := w.pending[:0]
	for _, p := range w.pending {
		if all || now.Sub(p.last) >= w.debounce {
			if !w.emit(p.n) {
				return
			}
			continue
		}
		kept = append(kept, p)
	}
	w.pending = kept
}
