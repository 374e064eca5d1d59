package main

import (
	"fmt"
	"path/filepath"

	"github.com/brettbedarf/treenav/config"
	"github.com/brettbedarf/treenav/internal/util"
	"github.com/brettbedarf/treenav/mount"
	"github.com/brettbedarf/treenav/navigator"
	"github.com/spf13/cobra"
)

// app carries the flags and the loaded config shared by every subcommand.
type app struct {
	cfgFile    string
	verbose    int
	mountType  string
	source     string
	include    []string
	maxPathLen int

	cfg    *config.Config
	mounts *mount.Registry
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{mounts: mount.Default()}

	rootCmd := &cobra.Command{
		Use:   "treenav",
		Short: "Step through every file under a directory tree by rank",
		Long: `treenav ranks the regular files under a root directory depth first,
files before subdirectories at every level, and resolves a rank by walking
the tree again from the root. No index is kept between requests.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (.yaml, .yml or .json)")
	flags.IntVarP(&a.verbose, "verbose", "v", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace)")
	flags.StringVar(&a.mountType, "mount", config.DefaultMountType, "how to attach the medium: none or loopback")
	flags.StringVar(&a.source, "source", "", "directory served at the root by the loopback mount")
	flags.StringArrayVar(&a.include, "include", nil, "glob a file name must match to be ranked (repeatable)")
	flags.IntVar(&a.maxPathLen, "max-path-len", config.DefaultMaxPathLen, "longest directory path to descend into, 0 for unbounded")

	rootCmd.AddCommand(a.newListCmd())
	rootCmd.AddCommand(a.newCountCmd())
	rootCmd.AddCommand(a.newGotoCmd())
	rootCmd.AddCommand(a.newWalkCmd())
	rootCmd.AddCommand(a.newLsCmd())
	rootCmd.AddCommand(a.newBrowseCmd())

	return rootCmd
}

// loadConfig merges defaults, the config file and explicitly set flags,
// in that order, then initializes logging.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg := config.NewDefaultConfig()
	if a.cfgFile != "" {
		var err error
		if cfg, err = config.NewConfigFromFile(a.cfgFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	override := &config.ConfigOverride{}
	if flags.Changed("verbose") {
		override.LogLvl = &a.verbose
	}
	if flags.Changed("mount") {
		override.MountType = &a.mountType
	}
	if flags.Changed("source") {
		override.Source = &a.source
	}
	if flags.Changed("include") {
		override.Include = a.include
	}
	if flags.Changed("max-path-len") {
		override.MaxPathLen = &a.maxPathLen
	}
	cfg.Merge(override)

	util.InitializeLogger(cfg.LogLvl)
	a.cfg = cfg
	return nil
}

// rootFor picks the root named on the command line or the configured one.
func (a *app) rootFor(args []string) (*config.Config, error) {
	cfg := *a.cfg
	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return nil, err
		}
		cfg.Root = filepath.ToSlash(abs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// options builds session options for cfg including its mounter.
func (a *app) options(cfg *config.Config) (navigator.Options, error) {
	m, err := a.mounts.NewMounter(cfg)
	if err != nil {
		return navigator.Options{}, err
	}
	opts := navigator.OptionsFromConfig(cfg)
	opts.Mounter = m
	return opts, nil
}

// startSession starts a session on the root named by args.
func (a *app) startSession(args []string) (*navigator.Session, error) {
	cfg, err := a.rootFor(args)
	if err != nil {
		return nil, err
	}
	opts, err := a.options(cfg)
	if err != nil {
		return nil, err
	}
	return navigator.Start(opts)
}
