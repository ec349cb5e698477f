package descriptor

import (
	"regexp"
	"strings"

	"github.com/arthur-debert/pkglink/pkg/errors"
)

// DefaultFileName is the descriptor file that marks a directory as a package
const DefaultFileName = "package.js"

const (
	describeStart = "Package.describe("
	describeEnd   = "})"
	onUseStart    = "Package.onUse("
	onUseEnd      = "});"
)

var (
	commentLine  = regexp.MustCompile(`^\s*//`)
	nameField    = regexp.MustCompile(`name\s*:\s*['"]([^'"]+)['"]`)
	useCall      = regexp.MustCompile(`api\.use\(\s*(\[[^\]]*\]|['"][^'"]+['"])`)
	quotedString = regexp.MustCompile(`['"]([^'"]+)['"]`)
)

// Section selects the lines of a block starting at the first line containing
// From and ending at the next line containing To (both inclusive). An empty
// From selects from the first line; an empty To runs to the end of the text.
type Section struct {
	From string
	To   string
}

// SelectLines returns the lines of text inside section for which match
// returns true. Comment lines are never returned.
func SelectLines(text string, section Section, match func(string) bool) []string {
	var selected []string
	inside := section.From == ""

	for _, line := range strings.Split(text, "\n") {
		started := false
		if !inside && strings.Contains(line, section.From) {
			inside = true
			started = true
		}
		if !inside {
			continue
		}
		if !commentLine.MatchString(line) && (match == nil || match(line)) {
			selected = append(selected, line)
		}
		// The opening line may also close a one-line block.
		if section.To != "" && strings.Contains(line, section.To) {
			if !started || strings.Index(line, section.To) > strings.Index(line, section.From) {
				inside = false
			}
		}
	}

	return selected
}

// ParseName extracts the package name declared in Package.describe.
func ParseName(content string) (string, error) {
	lines := SelectLines(content, Section{From: describeStart, To: describeEnd}, nameField.MatchString)
	for _, line := range lines {
		if m := nameField.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), nil
		}
	}
	return "", errors.New(errors.ErrDescriptorParse, "descriptor does not declare a package name")
}

// ParseDependencies extracts the dependency names declared with api.use
// inside Package.onUse, in declaration order and without duplicates.
func ParseDependencies(content string) []string {
	lines := SelectLines(content, Section{From: onUseStart, To: onUseEnd}, useCall.MatchString)

	seen := make(map[string]bool)
	var deps []string
	for _, line := range lines {
		for _, call := range useCall.FindAllStringSubmatch(line, -1) {
			for _, quoted := range quotedString.FindAllStringSubmatch(call[1], -1) {
				name := StripVersion(quoted[1])
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true
				deps = append(deps, name)
			}
		}
	}
	return deps
}

// Descriptor is the parsed content of one package descriptor
type Descriptor struct {
	Name         string
	Dependencies []string
}

// Parse reads both the name and the dependencies of a descriptor.
func Parse(content string) (Descriptor, error) {
	name, err := ParseName(content)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Name: name, Dependencies: ParseDependencies(content)}, nil
}

// StripVersion removes a trailing version constraint ("pkg@1.0.0", "pkg@=2.1").
func StripVersion(name string) string {
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
