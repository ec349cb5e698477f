package orchestrator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/pkglink/pkg/descriptor"
	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/events"
	"github.com/arthur-debert/pkglink/pkg/store"
	"github.com/arthur-debert/pkglink/pkg/types"
	"github.com/arthur-debert/pkglink/pkg/usage"
)

// Handle applies one classified event.
func (o *Orchestrator) Handle(ev events.Event) error {
	o.logger.Debug().Str("event", ev.Type()).Str("path", ev.FilePath()).Msg("Handling change")

	switch e := ev.(type) {
	case events.ManifestChanged:
		return o.manifestChanged()
	case events.DescriptorChanged:
		return o.descriptorChanged(e.Path)
	case events.SourceFileChanged:
		return o.sourceFileChanged(e.Path)
	case events.SourceFileAdded:
		return o.sourceFileAdded(e.Path)
	case events.SourceFileRemoved:
		return o.sourceFileRemoved(e.Path)
	case events.PackageAdded:
		return o.Reinitialize("package added: " + e.Path)
	case events.PackageRemoved:
		return o.Reinitialize("package removed: " + e.Path)
	}
	return errors.Newf(errors.ErrInternal, "unhandled event %T", ev)
}

func (o *Orchestrator) manifestChanged() error {
	names, err := o.readManifest()
	if err != nil {
		return err
	}

	st := o.store
	before := st.TopLevelNames()
	after := usage.Intersect(names, st.Names())
	added, removed := usage.Diff(after, before)
	if len(added) == 0 && len(removed) == 0 {
		o.logger.Debug().Msg("Top-level packages unchanged")
		return nil
	}

	if err := setTopLevel(st, added, removed); err != nil {
		return err
	}
	used, err := st.ResolveUsed()
	if err != nil {
		// Put the flags back so the store stays consistent with the tree.
		_ = setTopLevel(st, removed, added)
		return err
	}

	o.logger.Info().Strs("added", added).Strs("removed", removed).Msg("Top-level packages changed")
	return o.applyUsed(used)
}

func setTopLevel(st *store.Store, on, off []string) error {
	if err := st.SetAttributes(on, store.SetTopLevel(true)); err != nil {
		return err
	}
	return st.SetAttributes(off, store.SetTopLevel(false))
}

// applyUsed moves the store and the build tree from the current used set to
// used.
func (o *Orchestrator) applyUsed(used []string) error {
	st := o.store
	added, removed := usage.Diff(used, st.UsedNames())
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	if err := st.SetAttributes(added, store.SetUsed(true)); err != nil {
		return err
	}
	if err := st.SetAttributes(removed, store.SetUsed(false)); err != nil {
		return err
	}

	for _, name := range removed {
		if err := o.links.Dematerialize(name, st); err != nil {
			return err
		}
		if err := o.unwatchPackage(name); err != nil {
			return err
		}
	}
	for _, name := range added {
		if err := o.links.Materialize(name, st); err != nil {
			return err
		}
		if err := o.watchPackage(name); err != nil {
			return err
		}
	}

	o.logger.Info().Strs("added", added).Strs("removed", removed).Msg("Used packages changed")
	return nil
}

func (o *Orchestrator) descriptorChanged(path string) error {
	st := o.store
	owner, ok := st.OwnerOf(path)
	if !ok {
		o.logger.Warn().Str("path", path).Msg("Descriptor does not belong to a known package, ignoring")
		return nil
	}
	if filepath.Dir(path) != owner.SourcePath {
		// Packages are leaves: a descriptor deeper inside one is plain content.
		return o.sourceFileChanged(path)
	}

	content, err := o.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			o.logger.Debug().Str("path", path).Msg("Descriptor vanished before it could be read")
			return nil
		}
		return errors.Wrap(err, errors.ErrFilesystem, "failed to read descriptor").WithDetail("path", path)
	}

	desc, err := descriptor.Parse(string(content))
	if err != nil {
		o.logger.Warn().Err(err).Str("path", path).Str("package", owner.Name).Msg("Invalid descriptor, ignoring change")
		return nil
	}

	if desc.Name != owner.Name {
		return o.Reinitialize("package renamed: " + owner.Name + " -> " + desc.Name)
	}

	privateAfter := usage.Intersect(desc.Dependencies, st.Names())
	addedDeps, removedDeps := usage.Diff(privateAfter, owner.PrivateDependencies)

	if err := st.SetAttributes([]string{owner.Name},
		store.SetDeclaredDependencies(desc.Dependencies),
		store.SetPrivateDependencies(privateAfter),
	); err != nil {
		return err
	}

	used, err := st.ResolveUsed()
	if err != nil {
		_ = st.SetAttributes([]string{owner.Name},
			store.SetDeclaredDependencies(owner.DeclaredDependencies),
			store.SetPrivateDependencies(owner.PrivateDependencies),
		)
		return err
	}

	if len(addedDeps) > 0 || len(removedDeps) > 0 {
		o.logger.Info().
			Str("package", owner.Name).
			Strs("added", addedDeps).
			Strs("removed", removedDeps).
			Msg("Dependencies changed")
	}

	if owner.Used {
		for _, dep := range removedDeps {
			if err := o.links.UnlinkDependency(dep, owner.Name, st); err != nil {
				return err
			}
		}
		for _, dep := range addedDeps {
			if err := o.links.LinkDependency(dep, owner.Name, st); err != nil {
				return err
			}
		}
	}

	if err := o.applyUsed(used); err != nil {
		return err
	}

	if p, _ := st.Get(owner.Name); p.Used {
		if _, err := o.links.SyncFile(path, owner.Name, st); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) owner(path string) (types.Package, bool) {
	p, ok := o.store.OwnerOf(path)
	if !ok {
		o.logger.Debug().Str("path", path).Msg("No package owns this path, ignoring")
	}
	return p, ok
}

func (o *Orchestrator) sourceFileChanged(path string) error {
	p, ok := o.owner(path)
	if !ok || !p.Used {
		return nil
	}
	if o.insideNestedDir(p, path) {
		return nil
	}
	if _, err := o.fs.Lstat(path); os.IsNotExist(err) {
		// Removed again before we got to it; the delete event follows.
		return nil
	}
	_, err := o.links.SyncFile(path, p.Name, o.store)
	return err
}

func (o *Orchestrator) sourceFileAdded(path string) error {
	if o.holdsPackage(path) {
		return o.Reinitialize("package directory added: " + path)
	}
	return o.sourceFileChanged(path)
}

func (o *Orchestrator) sourceFileRemoved(path string) error {
	if o.removesPackage(path) {
		return o.Reinitialize("package directory removed: " + path)
	}
	p, ok := o.owner(path)
	if !ok || !p.Used || o.insideNestedDir(p, path) {
		return nil
	}
	return o.links.RemoveFile(path, p.Name, o.store)
}

func (o *Orchestrator) insideNestedDir(p types.Package, path string) bool {
	nested := filepath.Join(p.SourcePath, o.layout.NestedDir)
	return path == nested || strings.HasPrefix(path, nested+string(filepath.Separator))
}

// removesPackage reports whether path is a package directory or an ancestor
// of one. Directory moves arrive as a single delete.
func (o *Orchestrator) removesPackage(path string) bool {
	prefix := path + string(filepath.Separator)
	for _, p := range o.store.Packages() {
		if p.SourcePath == path || strings.HasPrefix(p.SourcePath, prefix) {
			return true
		}
	}
	return false
}

// holdsPackage reports whether a newly created directory brings a package
// with it, which happens when a package directory is moved into place.
func (o *Orchestrator) holdsPackage(path string) bool {
	if _, ok := o.store.OwnerOf(path); ok {
		return false
	}
	info, err := o.fs.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	return o.containsDescriptor(path)
}

func (o *Orchestrator) containsDescriptor(dir string) bool {
	if _, err := o.fs.Stat(filepath.Join(dir, o.layout.DescriptorFile)); err == nil {
		return true
	}
	entries, err := o.fs.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || name == o.layout.NestedDir {
			continue
		}
		if o.containsDescriptor(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}
