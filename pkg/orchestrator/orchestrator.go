package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/pkglink/pkg/descriptor"
	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/events"
	"github.com/arthur-debert/pkglink/pkg/links"
	"github.com/arthur-debert/pkglink/pkg/logging"
	"github.com/arthur-debert/pkglink/pkg/paths"
	"github.com/arthur-debert/pkglink/pkg/store"
	"github.com/arthur-debert/pkglink/pkg/types"
	"github.com/arthur-debert/pkglink/pkg/watch"
)

// Paths locates the project inputs and outputs. All paths are absolute.
type Paths struct {
	Manifest string
	Source   string
	Build    string
}

// Layout describes how packages are recognized and built
type Layout struct {
	DescriptorFile string
	NestedDir      string
	IgnorePatterns []string
	Strict         bool
}

// Watches is the part of the watch layer the orchestrator drives
type Watches interface {
	Subscribe(path string, opts watch.SubscribeOptions) error
	Unsubscribe(path string) error
	UnsubscribeAll() error
}

// Options configures an Orchestrator
type Options struct {
	FS      types.FS
	Paths   Paths
	Layout  Layout
	Watches Watches // nil disables watch registration
}

// Orchestrator dispatches change events to store, link and watch updates
type Orchestrator struct {
	fs         types.FS
	paths      Paths
	layout     Layout
	watches    Watches
	links      *links.Manager
	classifier *events.Classifier
	store      *store.Store
	logger     zerolog.Logger
}

// New creates an orchestrator with an empty store. Call Initialize before
// handling events.
func New(opts Options) *Orchestrator {
	layout := opts.Layout
	if layout.DescriptorFile == "" {
		layout.DescriptorFile = descriptor.DefaultFileName
	}
	if layout.NestedDir == "" {
		layout.NestedDir = links.DefaultNestedDir
	}

	w := opts.Watches
	if w == nil {
		w = noWatches{}
	}

	locations := Paths{
		Manifest: filepath.Clean(opts.Paths.Manifest),
		Source:   filepath.Clean(opts.Paths.Source),
		Build:    filepath.Clean(opts.Paths.Build),
	}

	return &Orchestrator{
		fs:         opts.FS,
		paths:      locations,
		layout:     layout,
		watches:    w,
		links:      links.New(opts.FS, layout.NestedDir),
		classifier: events.NewClassifier(locations.Manifest, locations.Source, layout.DescriptorFile),
		store:      store.Empty(locations.Source, locations.Build),
		logger:     logging.GetLogger("orchestrator"),
	}
}

// Store returns the current package store. It is replaced on every
// reinitialization.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Initialize performs the first full build.
func (o *Orchestrator) Initialize() error {
	return o.Reinitialize("initialize")
}

// Reinitialize rebuilds everything from a fresh scan. If the scan fails the
// current state is kept. If the build tree cannot be rewritten the watches are
// registered again for whichever store is current.
func (o *Orchestrator) Reinitialize(reason string) error {
	done := logging.LogOperationStart(o.logger, "reinitialize")
	defer done()
	o.logger.Info().Str("reason", reason).Msg("Rebuilding package tree")

	if err := paths.CheckTrees(o.paths.Source, o.paths.Build); err != nil {
		return err
	}

	next, err := o.Scan()
	if err != nil {
		return err
	}

	if err := o.watches.UnsubscribeAll(); err != nil {
		return errors.Wrap(err, errors.ErrWatch, "failed to drop watches")
	}

	if err := o.rebuild(next); err != nil {
		// Keep the manifest and source root watched so a later change can
		// trigger another rebuild.
		if werr := o.registerWatches(); werr != nil {
			o.logger.Error().Err(werr).Msg("Failed to restore watches")
		}
		return err
	}

	if err := o.registerWatches(); err != nil {
		return err
	}

	o.logger.Info().
		Int("packages", next.Len()).
		Strs("topLevel", next.TopLevelNames()).
		Strs("used", next.UsedNames()).
		Msg("Package tree ready")
	return nil
}

// rebuild swaps in next and rewrites the build tree from it.
func (o *Orchestrator) rebuild(next *store.Store) error {
	if err := o.links.CleanBuildTree(o.store); err != nil {
		return err
	}
	o.store = next
	if err := o.links.CleanBuildTree(next); err != nil {
		return err
	}

	for _, name := range next.UsedNames() {
		if err := o.links.Materialize(name, next); err != nil {
			return err
		}
	}
	return nil
}

// Scan loads a fresh store from the manifest and the source tree without
// touching the build tree or the current state.
func (o *Orchestrator) Scan() (*store.Store, error) {
	topLevel, err := o.readManifest()
	if err != nil {
		return nil, err
	}

	return store.Load(o.fs, store.LoadOptions{
		SourceRoot:     o.paths.Source,
		BuildRoot:      o.paths.Build,
		TopLevelNames:  topLevel,
		DescriptorFile: o.layout.DescriptorFile,
		NestedDir:      o.layout.NestedDir,
		IgnorePatterns: o.layout.IgnorePatterns,
		Strict:         o.layout.Strict,
	})
}

// Close drops every watch.
func (o *Orchestrator) Close() error {
	return o.watches.UnsubscribeAll()
}

// Process classifies a raw notification and handles the resulting event.
// Notifications that do not classify are ignored.
func (o *Orchestrator) Process(n events.Notification) error {
	ev, ok := o.classifier.Classify(n)
	if !ok {
		o.logger.Trace().Str("notification", n.String()).Msg("Ignoring unclassifiable notification")
		return nil
	}
	return o.Handle(ev)
}

// Run processes notifications until ctx is done or ch is closed. Errors are
// logged and the offending notification is dropped.
func (o *Orchestrator) Run(ctx context.Context, ch <-chan events.Notification) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			if err := o.Process(n); err != nil {
				o.logger.Error().Err(err).Str("notification", n.String()).Msg("Dropping change")
			}
		}
	}
}

func (o *Orchestrator) readManifest() ([]string, error) {
	content, err := o.fs.ReadFile(o.paths.Manifest)
	if err != nil {
		if os.IsNotExist(err) {
			o.logger.Warn().Str("path", o.paths.Manifest).Msg("Manifest not found, no package is used")
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrManifestRead, "failed to read manifest").
			WithDetail("path", o.paths.Manifest)
	}
	return descriptor.ParseManifest(string(content)), nil
}

func (o *Orchestrator) registerWatches() error {
	if err := o.watches.Subscribe(o.paths.Manifest, watch.SubscribeOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrWatch, "failed to watch manifest")
	}
	if err := o.watches.Subscribe(o.paths.Source, watch.SubscribeOptions{
		Kinds:   []events.Kind{events.Created, events.Deleted},
		Exclude: []string{o.layout.NestedDir},
	}); err != nil {
		return errors.Wrap(err, errors.ErrWatch, "failed to watch source root")
	}
	for _, name := range o.store.UsedNames() {
		if err := o.watchPackage(name); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) watchPackage(name string) error {
	p, _ := o.store.Get(name)
	if err := o.watches.Subscribe(p.SourcePath, watch.SubscribeOptions{
		Kinds:   []events.Kind{events.Modified},
		Exclude: []string{o.layout.NestedDir},
	}); err != nil {
		return errors.Wrap(err, errors.ErrWatch, "failed to watch package").WithDetail("package", name)
	}
	return nil
}

func (o *Orchestrator) unwatchPackage(name string) error {
	p, _ := o.store.Get(name)
	if err := o.watches.Unsubscribe(p.SourcePath); err != nil {
		return errors.Wrap(err, errors.ErrWatch, "failed to unwatch package").WithDetail("package", name)
	}
	return nil
}

type noWatches struct{}

func (noWatches) Subscribe(string, watch.SubscribeOptions) error { return nil }
func (noWatches) Unsubscribe(string) error                       { return nil }
func (noWatches) UnsubscribeAll() error                          { return nil }
