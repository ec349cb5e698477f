package events

import (
	"path/filepath"
	"strings"
)

// Classifier maps notifications to events using path containment and the
// descriptor file name.
type Classifier struct {
	manifestPath   string
	sourceRoot     string
	descriptorFile string
}

// NewClassifier creates a classifier for one project layout.
func NewClassifier(manifestPath, sourceRoot, descriptorFile string) *Classifier {
	return &Classifier{
		manifestPath:   filepath.Clean(manifestPath),
		sourceRoot:     filepath.Clean(sourceRoot),
		descriptorFile: descriptorFile,
	}
}

// Classify returns the event for n. It returns false for a modification
// outside both the manifest and the source tree.
func (c *Classifier) Classify(n Notification) (Event, bool) {
	path := filepath.Clean(n.Path)
	isDescriptor := filepath.Base(path) == c.descriptorFile

	if path == c.manifestPath {
		return ManifestChanged{Path: path}, true
	}

	switch n.Kind {
	case Modified:
		if !c.inSourceTree(path) {
			return nil, false
		}
		if isDescriptor {
			return DescriptorChanged{Path: path}, true
		}
		return SourceFileChanged{Path: path}, true
	case Created:
		if isDescriptor {
			return PackageAdded{Path: path}, true
		}
		return SourceFileAdded{Path: path}, true
	case Deleted:
		if isDescriptor {
			return PackageRemoved{Path: path}, true
		}
		return SourceFileRemoved{Path: path}, true
	}
	return nil, false
}

func (c *Classifier) inSourceTree(path string) bool {
	return strings.HasPrefix(path, c.sourceRoot+string(filepath.Separator))
}
