// pkg/events/classifier_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test mapping of raw notifications to change events

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier("/app/.meteor/packages", "/app/private", "package.js")

	tests := []struct {
		name string
		in   Notification
		want Event
	}{
		{"manifest_modified", Notification{Modified, "/app/.meteor/packages"}, ManifestChanged{Path: "/app/.meteor/packages"}},
		{"manifest_recreated", Notification{Created, "/app/.meteor/packages"}, ManifestChanged{Path: "/app/.meteor/packages"}},
		{"manifest_deleted", Notification{Deleted, "/app/.meteor//packages"}, ManifestChanged{Path: "/app/.meteor/packages"}},
		{"descriptor_modified", Notification{Modified, "/app/private/a/package.js"}, DescriptorChanged{Path: "/app/private/a/package.js"}},
		{"source_modified", Notification{Modified, "/app/private/a/lib/x.js"}, SourceFileChanged{Path: "/app/private/a/lib/x.js"}},
		{"descriptor_created", Notification{Created, "/app/private/new/package.js"}, PackageAdded{Path: "/app/private/new/package.js"}},
		{"source_created", Notification{Created, "/app/private/a/y.js"}, SourceFileAdded{Path: "/app/private/a/y.js"}},
		{"descriptor_deleted", Notification{Deleted, "/app/private/a/package.js"}, PackageRemoved{Path: "/app/private/a/package.js"}},
		{"source_deleted", Notification{Deleted, "/app/private/a/y.js"}, SourceFileRemoved{Path: "/app/private/a/y.js"}},
		{"similar_name_is_not_descriptor", Notification{Modified, "/app/private/a/package.json"}, SourceFileChanged{Path: "/app/private/a/package.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.FilePath(), got.FilePath())
		})
	}
}

func TestClassify_Unclassifiable(t *testing.T) {
	c := NewClassifier("/app/.meteor/packages", "/app/private", "package.js")

	for _, n := range []Notification{
		{Modified, "/app/client/main.js"},
		{Modified, "/app/private-other/a/package.js"},
		{Modified, "/app/private"},
		{Kind(42), "/app/private/a/x.js"},
	} {
		_, ok := c.Classify(n)
		assert.False(t, ok, n.String())
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestEventTypes(t *testing.T) {
	all := []Event{
		ManifestChanged{}, DescriptorChanged{}, SourceFileChanged{}, SourceFileAdded{},
		SourceFileRemoved{}, PackageAdded{}, PackageRemoved{},
	}
	seen := make(map[string]bool)
	for _, e := range all {
		assert.False(t, seen[e.Type()], e.Type())
		seen[e.Type()] = true
	}
}
