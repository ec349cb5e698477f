package pkglink

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Keep Meteor private packages linked into the build tree"
	MsgInitShort       = "Build the package tree once"
	MsgWatchShort      = "Build the package tree and follow changes"
	MsgListShort       = "List discovered packages and their usage"
	MsgConfigShort     = "Print the effective configuration"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgInitDone     = "Linked %d of %d packages into %s\n"
	MsgWatching     = "Watching %s (%d packages in use). Press Ctrl+C to stop.\n"
	MsgWatchStopped = "Stopped watching."

	// Error messages
	MsgErrLoadConfig   = "failed to load configuration: %w"
	MsgErrResolvePaths = "failed to resolve paths: %w"
	MsgErrInitialize   = "failed to build package tree: %w"
	MsgErrWatch        = "failed to start watcher: %w"
	MsgErrList         = "failed to list packages: %w"
	MsgErrEncodeConfig = "failed to encode configuration: %w"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Path to a configuration file (default: .pkglink.toml in the project root)"
	MsgFlagManifest = "Path to the top-level manifest (default: .meteor/packages)"
	MsgFlagSource   = "Directory holding package sources"
	MsgFlagBuild    = "Directory where packages are built"
	MsgFlagFormat   = "Output format: auto, text, json, yaml or toml"
)

// Long messages
const (
	MsgRootLong = `pkglink keeps the packages of a Meteor application in sync with the
private packages they use.

Every directory under the source tree that holds a package.js is a package.
Packages listed in .meteor/packages are top level. Every package reachable
from the top level through package.js dependencies is in use and gets built:
its files are copied (or left in place when source and build trees are the
same) and each private dependency is linked into its nested packages/
directory.

Paths are resolved from flags, then .pkglink.toml, then the
METEOR_PRIVATE_PACKAGE_DIRS and METEOR_PACKAGE_DIRS variables.`

	MsgInitLong = `Init scans the source tree, cleans stale build output and builds every
package in use. It exits once the tree is consistent.`

	MsgWatchLong = `Watch performs the same build as init and then follows changes to the
manifest, package descriptors and package sources, updating only what each
change affects. Structural changes trigger a full rebuild.`

	MsgListLong = `List scans the source tree and prints every package with its top-level
and in-use state, private dependencies and external dependencies.
Nothing is written to disk.`

	MsgConfigLong = `Config prints the configuration after layering defaults, the project
file, PKGLINK_* environment variables and command line flags.`

	MsgCompletionLong = `Generate a shell completion script for pkglink.

  bash:       source <(pkglink completion bash)
  zsh:        pkglink completion zsh > "${fpath[1]}/_pkglink"
  fish:       pkglink completion fish | source
  powershell: pkglink completion powershell | Out-String | Invoke-Expression`
)
