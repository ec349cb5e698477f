package version

// Build information set by ldflags
var (
	Version = "dev"     // Set by goreleaser: -X github.com/arthur-debert/pkglink/internal/version.Version={{.Version}}
	Commit  = "unknown" // Set by goreleaser: -X github.com/arthur-debert/pkglink/internal/version.Commit={{.Commit}}
	Date    = "unknown" // Set by goreleaser: -X github.com/arthur-debert/pkglink/internal/version.Date={{.Date}}
)

// String formats the build information for --version output
func String() string {
	return "pkglink " + Version + " (commit " + Commit + ", built " + Date + ")"
}
