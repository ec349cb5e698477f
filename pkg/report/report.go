package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/store"
	"github.com/arthur-debert/pkglink/pkg/usage"
)

// Entry describes one package in a listing
type Entry struct {
	Name         string   `json:"name" yaml:"name" toml:"name"`
	Source       string   `json:"source" yaml:"source" toml:"source"`
	Build        string   `json:"build" yaml:"build" toml:"build"`
	TopLevel     bool     `json:"topLevel" yaml:"topLevel" toml:"top_level"`
	Used         bool     `json:"used" yaml:"used" toml:"used"`
	Dependencies []string `json:"dependencies" yaml:"dependencies" toml:"dependencies"`
	External     []string `json:"external,omitempty" yaml:"external,omitempty" toml:"external,omitempty"`
}

// Listing is the renderable state of a store
type Listing struct {
	Manifest string  `json:"manifest" yaml:"manifest" toml:"manifest"`
	Source   string  `json:"source" yaml:"source" toml:"source"`
	Build    string  `json:"build" yaml:"build" toml:"build"`
	Shared   bool    `json:"shared" yaml:"shared" toml:"shared"`
	Packages []Entry `json:"packages" yaml:"packages" toml:"packages"`
}

// New builds a listing from st. manifest is only informational.
func New(st *store.Store, manifest string) Listing {
	l := Listing{
		Manifest: manifest,
		Source:   st.SourceRoot(),
		Build:    st.BuildRoot(),
		Shared:   st.SharedTree(),
		Packages: make([]Entry, 0, st.Len()),
	}
	for _, p := range st.Packages() {
		_, external := usage.Diff(p.PrivateDependencies, p.DeclaredDependencies)
		deps := p.PrivateDependencies
		if deps == nil {
			deps = []string{}
		}
		l.Packages = append(l.Packages, Entry{
			Name:         p.Name,
			Source:       p.SourcePath,
			Build:        p.BuildPath,
			TopLevel:     p.TopLevel,
			Used:         p.Used,
			Dependencies: deps,
			External:     external,
		})
	}
	return l
}

// UsedCount returns how many packages are used
func (l Listing) UsedCount() int {
	n := 0
	for _, e := range l.Packages {
		if e.Used {
			n++
		}
	}
	return n
}

// Render writes l to w in format f. FormatAuto inspects w when it is a
// terminal file and falls back to plain text otherwise.
func Render(w io.Writer, l Listing, f Format) error {
	if f == FormatAuto {
		f = FormatText
		if file, ok := w.(*os.File); ok {
			f = DetectFormat(file)
		}
	}

	var err error
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(l)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(l)
		if err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(l)
	case FormatTerminal:
		err = renderText(w, l, newStyles(w, false))
	default:
		err = renderText(w, l, newStyles(w, true))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to render listing").WithDetail("format", f.String())
	}
	return nil
}

func renderText(w io.Writer, l Listing, s styles) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", s.title.Render(fmt.Sprintf("Packages: %d found, %d used", len(l.Packages), l.UsedCount())))
	fmt.Fprintf(&b, "  %s %s\n", s.muted.Render("manifest"), s.path.Render(l.Manifest))
	fmt.Fprintf(&b, "  %s   %s\n", s.muted.Render("source"), s.path.Render(l.Source))
	if l.Shared {
		fmt.Fprintf(&b, "  %s    %s\n", s.muted.Render("build"), s.muted.Render("(in place)"))
	} else {
		fmt.Fprintf(&b, "  %s    %s\n", s.muted.Render("build"), s.path.Render(l.Build))
	}

	width := 0
	for _, e := range l.Packages {
		if len(e.Name) > width {
			width = len(e.Name)
		}
	}

	if len(l.Packages) > 0 {
		b.WriteString("\n")
	}
	for _, e := range l.Packages {
		marker, state := s.muted.Render("○"), s.muted.Render("unused")
		switch {
		case e.TopLevel:
			marker, state = s.topLevel.Render("●"), s.topLevel.Render("top-level")
		case e.Used:
			marker, state = s.used.Render("●"), s.used.Render("used")
		}

		name := e.Name + strings.Repeat(" ", width-len(e.Name))
		fmt.Fprintf(&b, "%s %s  %-9s  %s\n", marker, s.name.Render(name), state, s.path.Render(relativeTo(l.Source, e.Source)))
		if len(e.Dependencies) > 0 {
			fmt.Fprintf(&b, "    %s %s\n", s.muted.Render("uses"), strings.Join(e.Dependencies, ", "))
		}
		if len(e.External) > 0 {
			fmt.Fprintf(&b, "    %s %s\n", s.muted.Render("external"), s.muted.Render(strings.Join(e.External, ", ")))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
