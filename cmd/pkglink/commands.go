package pkglink

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/pkglink/internal/version"
	"github.com/arthur-debert/pkglink/pkg/config"
	"github.com/arthur-debert/pkglink/pkg/filesystem"
	"github.com/arthur-debert/pkglink/pkg/logging"
	"github.com/arthur-debert/pkglink/pkg/orchestrator"
	"github.com/arthur-debert/pkglink/pkg/paths"
	"github.com/arthur-debert/pkglink/pkg/report"
	"github.com/arthur-debert/pkglink/pkg/watch"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity  int
	root       string
	configFile string
	manifest   string
	source     string
	build      string
}

// settings is the resolved configuration a command runs with
type settings struct {
	config *config.Config
	paths  paths.Paths
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "pkglink",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.SetVersionTemplate(version.String() + "\n")

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVarP(&opts.root, "root", "C", "", "Project root (default: nearest directory containing .meteor)")
	flags.StringVar(&opts.configFile, "config", "", MsgFlagConfig)
	flags.StringVar(&opts.manifest, "manifest", "", MsgFlagManifest)
	flags.StringVar(&opts.source, "source", "", MsgFlagSource)
	flags.StringVar(&opts.build, "build", "", MsgFlagBuild)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// loadSettings layers configuration and resolves project paths. Path flags
// are relative to the working directory and override everything else.
func loadSettings(opts *globalOptions) (*settings, error) {
	root := opts.root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf(MsgErrResolvePaths, err)
		}
		root = cwd
		if found, ok := paths.FindProjectRoot(cwd); ok {
			root = found
		}
	}

	overrides := make(map[string]interface{})
	for key, value := range map[string]string{
		"paths.manifest": opts.manifest,
		"paths.source":   opts.source,
		"paths.build":    opts.build,
	} {
		if value == "" {
			continue
		}
		abs, err := filepath.Abs(paths.ExpandHome(value))
		if err != nil {
			return nil, fmt.Errorf(MsgErrResolvePaths, err)
		}
		overrides[key] = abs
	}

	cfg, err := config.Load(config.LoadOptions{
		File:      opts.configFile,
		Dir:       root,
		Overrides: overrides,
	})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}

	p, err := paths.Resolve(paths.Options{Root: root, Config: cfg.Paths})
	if err != nil {
		return nil, fmt.Errorf(MsgErrResolvePaths, err)
	}

	return &settings{config: cfg, paths: p}, nil
}

func (s *settings) orchestrator(w orchestrator.Watches) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		FS: filesystem.NewGuardedOS(s.paths.Source, filepath.Dir(s.paths.Manifest)),
		Paths: orchestrator.Paths{
			Manifest: s.paths.Manifest,
			Source:   s.paths.Source,
			Build:    s.paths.Build,
		},
		Layout: orchestrator.Layout{
			DescriptorFile: s.config.Layout.DescriptorFile,
			NestedDir:      s.config.Layout.NestedDir,
			IgnorePatterns: s.config.Scan.Ignore,
			Strict:         s.config.Scan.Strict,
		},
		Watches: w,
	})
}

func newInitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(opts)
			if err != nil {
				return err
			}

			o := s.orchestrator(nil)
			if err := o.Initialize(); err != nil {
				return fmt.Errorf(MsgErrInitialize, err)
			}

			st := o.Store()
			fmt.Fprintf(cmd.OutOrStdout(), MsgInitDone, len(st.UsedNames()), st.Len(), s.paths.Build)
			return nil
		},
	}
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(opts)
			if err != nil {
				return err
			}

			w, err := watch.New(watch.Options{Debounce: s.config.Watch.Debounce})
			if err != nil {
				return fmt.Errorf(MsgErrWatch, err)
			}
			defer func() { _ = w.Close() }()

			o := s.orchestrator(w)
			if err := o.Initialize(); err != nil {
				return fmt.Errorf(MsgErrInitialize, err)
			}
			defer func() { _ = o.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgWatching, s.paths.Source, len(o.Store().UsedNames()))
			if err := o.Run(ctx, w.Notifications()); err != nil {
				return err
			}
			fmt.Fprintln(out, MsgWatchStopped)
			return nil
		},
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		Long:    MsgListLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			s, err := loadSettings(opts)
			if err != nil {
				return err
			}

			st, err := s.orchestrator(nil).Scan()
			if err != nil {
				return fmt.Errorf(MsgErrList, err)
			}

			return report.Render(cmd.OutOrStdout(), report.New(st, s.paths.Manifest), f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "auto", MsgFlagFormat)
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json", "yaml", "toml"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(opts)
			if err != nil {
				return err
			}

			// Show the resolved locations rather than the empty defaults.
			cfg := *s.config
			cfg.Paths = config.PathsConfig{
				Manifest: s.paths.Manifest,
				Source:   s.paths.Source,
				Build:    s.paths.Build,
			}

			data, err := config.Encode(&cfg)
			if err != nil {
				return fmt.Errorf(MsgErrEncodeConfig, err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
