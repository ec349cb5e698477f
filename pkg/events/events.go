package events

import "fmt"

// Kind is the type of a raw filesystem notification
type Kind int

const (
	Created Kind = iota
	Modified
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Notification is a raw change reported by the watch layer
type Notification struct {
	Kind Kind
	Path string
}

func (n Notification) String() string {
	return n.Kind.String() + " " + n.Path
}

// Event is a classified change. The set of implementations is closed.
type Event interface {
	// Type names the event for logs
	Type() string
	// FilePath is the absolute path the event is about
	FilePath() string
	sealed()
}

// ManifestChanged: the project manifest was written, created or removed.
type ManifestChanged struct{ Path string }

// DescriptorChanged: a package descriptor inside the source tree was modified.
type DescriptorChanged struct{ Path string }

// SourceFileChanged: any other file inside the source tree was modified.
type SourceFileChanged struct{ Path string }

// SourceFileAdded: a file other than a descriptor appeared.
type SourceFileAdded struct{ Path string }

// SourceFileRemoved: a file other than a descriptor disappeared.
type SourceFileRemoved struct{ Path string }

// PackageAdded: a descriptor appeared, so a new package may exist.
type PackageAdded struct{ Path string }

// PackageRemoved: a descriptor disappeared.
type PackageRemoved struct{ Path string }

func (ManifestChanged) Type() string   { return "manifest-changed" }
func (DescriptorChanged) Type() string { return "descriptor-changed" }
func (SourceFileChanged) Type() string { return "source-file-changed" }
func (SourceFileAdded) Type() string   { return "source-file-added" }
func (SourceFileRemoved) Type() string { return "source-file-removed" }
func (PackageAdded) Type() string      { return "package-added" }
func (PackageRemoved) Type() string    { return "package-removed" }

func (e ManifestChanged) FilePath() string   { return e.Path }
func (e DescriptorChanged) FilePath() string { return e.Path }
func (e SourceFileChanged) FilePath() string { return e.Path }
func (e SourceFileAdded) FilePath() string   { return e.Path }
func (e SourceFileRemoved) FilePath() string { return e.Path }
func (e PackageAdded) FilePath() string      { return e.Path }
func (e PackageRemoved) FilePath() string    { return e.Path }

func (ManifestChanged) sealed()   {}
func (DescriptorChanged) sealed() {}
func (SourceFileChanged) sealed() {}
func (SourceFileAdded) sealed()   {}
func (SourceFileRemoved) sealed() {}
func (PackageAdded) sealed()      {}
func (PackageRemoved) sealed()    {}
