package descriptor

import "strings"

// ParseManifest returns the package names listed in a project manifest.
// Only lines starting with an ASCII letter count; anything after the first token of
// a line is ignored, and so are version constraints.
func ParseManifest(content string) []string {
	seen := make(map[string]bool)
	var names []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || !isASCIILetter(line[0]) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := StripVersion(fields[0])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
