package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vanderheijden86/logview/pkg/client"
	"github.com/vanderheijden86/logview/pkg/config"
	"github.com/vanderheijden86/logview/pkg/debug"
	"github.com/vanderheijden86/logview/pkg/logging"
	"github.com/vanderheijden86/logview/pkg/logstore"
	"github.com/vanderheijden86/logview/pkg/version"
	"github.com/vanderheijden86/logview/pkg/viewer"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile  string
	source   string
	logLevel string
	debug    bool

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lv [source]",
		Short: "Browse, search, download and delete log files",
		Long: `lv browses a tree of log files, either a local directory or a remote
"lv serve" instance.

source is a configured source name, a directory or an http(s) URL. Without
one, the configured default source is used, falling back to the current
directory. When stdout is not a terminal lv prints the tree instead.`,
		Version:       version.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.load()
		},
		RunE: a.runBrowse,
	}
	root.SetVersionTemplate("lv {{.Version}}\n")

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/lv/config.yaml)")
	root.PersistentFlags().StringVarP(&a.source, "source", "s", "", "source name, directory or URL")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "write UI trace output to the log")

	_ = root.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, s := range a.cfg.Sources {
			names = append(names, s.Name)
		}
		return names, cobra.ShellCompDirectiveDefault
	})

	root.AddCommand(
		a.newBrowseCmd(),
		a.newServeCmd(),
		a.newListCmd(),
		a.newGetCmd(),
		a.newRemoveCmd(),
		a.newDownloadCmd(),
		a.newAuditCmd(),
		newVersionCmd(),
	)
	return root
}

// load reads the config file, applies environment and flag overrides and
// builds the stderr logger. Commands that take over the terminal swap the
// logger for a file one.
func (a *app) load() error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadFrom(a.cfgFile)
		if err == nil {
			err = a.cfg.ApplyEnv(os.Getenv)
		}
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.source != "" {
		a.cfg.UseSource(a.source)
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}

	a.log, err = logging.New(logging.Options{
		Level:  a.cfg.Log.Level,
		Colors: term.IsTerminal(int(os.Stderr.Fd())),
		File:   a.cfg.Log.File,
	})
	return err
}

// useLogFile sends logging to a file so lines do not tear the alternate
// screen. Without a usable state directory logging is discarded.
func (a *app) useLogFile() {
	path := a.cfg.Log.File
	if path == "" {
		dir := config.StateDir()
		if dir == "" {
			a.log = logging.Nop()
			return
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			a.log = logging.Nop()
			return
		}
		path = filepath.Join(dir, "lv.log")
	}
	l, err := logging.New(logging.Options{Level: a.cfg.Log.Level, File: path})
	if err != nil {
		a.log = logging.Nop()
		return
	}
	a.log = l
}

// selectSource applies a positional source argument.
func (a *app) selectSource(args []string) {
	if len(args) > 0 {
		a.cfg.UseSource(args[0])
	}
}

// currentSource returns the source to use, defaulting to the working
// directory.
func (a *app) currentSource() config.Source {
	if s, ok := a.cfg.DefaultSource(); ok {
		return s
	}
	return config.Source{Name: "default", Root: "."}
}

// collaborator opens the current source.
func (a *app) collaborator() (viewer.Collaborator, config.Source, error) {
	src := a.currentSource()
	if src.IsRemote() {
		c, err := client.New(src.URL, client.WithLogger(logging.For(a.log, logging.ComponentClient)))
		if err != nil {
			return nil, src, err
		}
		return c, src, nil
	}
	st, err := logstore.New(src.Root,
		logstore.WithHidden(a.cfg.UI.ShowHidden),
		logstore.WithLogger(logging.For(a.log, logging.ComponentStore)),
	)
	if err != nil {
		return nil, src, err
	}
	return st, src, nil
}

// enableDebug routes UI tracing into the command's log unless LV_DEBUG_FILE
// already chose a destination.
func (a *app) enableDebug() {
	if a.debug || (os.Getenv("LV_DEBUG") != "" && os.Getenv("LV_DEBUG_FILE") == "") {
		debug.SetLogger(logging.For(a.log, logging.ComponentUI))
		debug.SetEnabled(true)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "lv %s\n", version.String())
			return err
		},
	}
}
