package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vanderheijden86/logview/pkg/audit"
	"github.com/vanderheijden86/logview/pkg/client"
	"github.com/vanderheijden86/logview/pkg/config"
	"github.com/vanderheijden86/logview/pkg/logging"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/server"
	"github.com/vanderheijden86/logview/pkg/tree"
	"github.com/vanderheijden86/logview/pkg/ui"
	"github.com/vanderheijden86/logview/pkg/viewer"
	"github.com/vanderheijden86/logview/pkg/watcher"
)

var errNoEntry = errors.New("no such log entry")

func (a *app) newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [source]",
		Short: "Open the interactive browser (the default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runBrowse,
	}
}

func (a *app) runBrowse(cmd *cobra.Command, args []string) error {
	a.selectSource(args)
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return a.listTree(cmd, listOptions{})
	}

	a.useLogFile()
	defer func() { _ = a.log.Sync() }()
	a.enableDebug()

	coll, src, err := a.collaborator()
	if err != nil {
		return err
	}

	opts := ui.Options{
		Source:        sourceLabel(src),
		Policy:        tree.ParseMatchPolicy(a.cfg.Search.Policy),
		MatchProp:     tree.MatchProp(a.cfg.Search.MatchProp),
		KeepTree:      a.cfg.Search.KeepMatchedSubtree,
		DebounceDelay: a.cfg.DebounceDelay(),
		DownloadDir:   a.cfg.Download.Dir,
		StateDir:      config.StateDir(),
		SplitRatio:    a.cfg.UI.SplitRatio,
		Logger:        logging.For(a.log, logging.ComponentUI),
	}

	if !src.IsRemote() && a.cfg.LiveReloadEnabled() {
		wlog := logging.For(a.log, logging.ComponentWatcher)
		w, err := watcher.New(src.Root, watcher.WithOnError(func(err error) {
			wlog.Warn("watch failed", zap.Error(err))
		}))
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			wlog.Warn("live reload disabled", zap.String("root", src.Root), zap.Error(err))
		} else {
			defer w.Stop()
			wlog.Info("watching", zap.String("root", w.Root()), zap.Bool("polling", w.IsPolling()))
			opts.Watcher = w
		}
	}

	m := ui.NewModel(coll, opts)
	defer m.Close()
	return runTUIProgram(m)
}

// sourceLabel names src in the UI and keys its persisted state.
func sourceLabel(src config.Source) string {
	if src.IsRemote() {
		return src.URL
	}
	if abs, err := filepath.Abs(src.Root); err == nil {
		return abs
	}
	return src.Root
}

func (a *app) newServeCmd() *cobra.Command {
	var addr, auditDB string
	var noAudit bool

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a log directory over HTTP",
		Long: `Serve a local log directory over the REST API that "lv <url>" and other
clients use. Deletions and downloads are recorded in an audit journal.`,
		Example: `  # Serve /var/log/app on the configured address
  lv serve /var/log/app

  # Serve on another port without a journal
  lv serve --addr :9000 --no-audit ./logs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.selectSource(args)
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("audit-db") {
				a.cfg.Server.AuditDB = auditDB
			}
			if noAudit {
				a.cfg.Server.AuditDB = ""
			} else if a.cfg.Server.AuditDB == "" {
				a.cfg.Server.AuditDB = config.DefaultAuditDB()
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8089)")
	cmd.Flags().StringVar(&auditDB, "audit-db", "", "audit journal path (default $XDG_DATA_HOME/lv/audit.db)")
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "do not keep an audit journal")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	defer func() { _ = a.log.Sync() }()

	coll, src, err := a.collaborator()
	if err != nil {
		return err
	}
	if src.IsRemote() {
		return fmt.Errorf("serve needs a local directory, %q is remote", src.URL)
	}

	var journal *audit.Journal
	if p := a.cfg.Server.AuditDB; p != "" {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create audit directory: %w", err)
		}
		journal, err = audit.Open(p)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("serving logs",
		zap.String("root", sourceLabel(src)),
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("audit_db", a.cfg.Server.AuditDB),
	)
	srv := server.New(server.Config{
		Source:  coll,
		Journal: journal,
		Addr:    a.cfg.Server.Addr,
		Logger:  logging.For(a.log, logging.ComponentServer),
	})
	return srv.Serve(ctx)
}

func (a *app) newListCmd() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "ls [source]",
		Short: "Print the log tree",
		Example: `  # Everything under the default source
  lv ls

  # Only entries matching "error", as JSON
  lv ls -k error --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.selectSource(args)
			return a.listTree(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.keyword, "keyword", "k", "", "only show entries matching keyword")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")
	return cmd
}

func (a *app) listTree(cmd *cobra.Command, opts listOptions) error {
	coll, _, err := a.collaborator()
	if err != nil {
		return err
	}
	nodes, err := coll.ListLogs(cmd.Context())
	if err != nil {
		return viewer.Transport("list logs", err)
	}
	nodes = tree.Filter(nodes, opts.keyword, a.cfg.FilterOptions()...).TreeData
	if opts.json {
		return writeJSON(cmd.OutOrStdout(), nodes)
	}
	return writeTree(cmd.OutOrStdout(), nodes)
}

func (a *app) newGetCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "get <entry>",
		Short: "Print a log file",
		Long: `Print a log file. entry is its path relative to the log root. Large
files are cut to their tail unless --full is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, _, err := a.collaborator()
			if err != nil {
				return err
			}
			filename, parent := splitKey(args[0])
			out := cmd.OutOrStdout()
			if full {
				body, err := coll.DownloadLog(cmd.Context(), filename, parent)
				if err != nil {
					return viewer.Transport("download log", err)
				}
				defer body.Close()
				_, err = io.Copy(out, body)
				return err
			}
			text, err := coll.GetLogContent(cmd.Context(), filename, parent)
			if err != nil {
				return viewer.Transport("get log content", err)
			}
			_, err = io.WriteString(out, text)
			return err
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "stream the whole file")
	return cmd
}

func (a *app) newRemoveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <entry>",
		Aliases: []string{"delete"},
		Short:   "Delete a log file or directory",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, _, err := a.collaborator()
			if err != nil {
				return err
			}
			node, err := lookupEntry(ctx, coll, args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirmDelete(node)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
					return nil
				}
			}
			if err := coll.DeleteLog(ctx, node.Title, node.Parent, node.Type); err != nil {
				return viewer.Transport("delete log", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", node.Key)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirmDelete asks on the terminal. Without one, deletion needs --yes.
func confirmDelete(node model.TreeNode) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("refusing to delete without --yes: stdin is not a terminal")
	}
	desc := "The file is removed permanently."
	if node.IsDir() {
		desc = fmt.Sprintf("This directory and everything in it (%d entries) is removed permanently.",
			tree.Count(node.Children))
	}
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete %s?", node.Key)).
			Description(desc).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&ok),
	)).WithTheme(huh.ThemeDracula()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func (a *app) newDownloadCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download <entry>",
		Short: "Save a log file into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, _, err := a.collaborator()
			if err != nil {
				return err
			}
			node, err := lookupEntry(ctx, coll, args[0])
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.Download.Dir
			}
			saved, err := viewer.Download(ctx, coll, node, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", saved)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "output", "o", "", "target directory (default from config)")
	return cmd
}

func (a *app) newAuditCmd() *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent deletions and downloads",
		Long: `Show the audit journal. For a remote source it is fetched from the
server; otherwise the local journal written by "lv serve" is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := a.auditRecords(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			return writeAudit(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", audit.DefaultLimit, "number of records")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) auditRecords(ctx context.Context, limit int) ([]audit.Record, error) {
	src := a.currentSource()
	if src.IsRemote() {
		c, err := client.New(src.URL, client.WithLogger(logging.For(a.log, logging.ComponentClient)))
		if err != nil {
			return nil, err
		}
		return c.Audit(ctx, limit)
	}

	p := a.cfg.Server.AuditDB
	if p == "" {
		p = config.DefaultAuditDB()
	}
	if _, err := os.Stat(p); err != nil {
		return nil, fmt.Errorf("no audit journal at %q", p)
	}
	j, err := audit.Open(p)
	if err != nil {
		return nil, err
	}
	defer j.Close()
	return j.Recent(ctx, limit)
}

// splitKey turns an entry key into the (filename, parent) pair the
// collaborator takes.
func splitKey(key string) (filename, parent string) {
	key = path.Clean("/" + filepath.ToSlash(key))[1:]
	dir, file := path.Split(key)
	return file, path.Clean("/" + dir)[1:]
}

// lookupEntry finds key in the current tree.
func lookupEntry(ctx context.Context, c viewer.Collaborator, key string) (model.TreeNode, error) {
	nodes, err := c.ListLogs(ctx)
	if err != nil {
		return model.TreeNode{}, viewer.Transport("list logs", err)
	}
	filename, parent := splitKey(key)
	if parent != "" {
		filename = parent + "/" + filename
	}
	n, ok := tree.NewIndex(nodes).Lookup(filename)
	if !ok {
		return model.TreeNode{}, fmt.Errorf("%s: %w", key, errNoEntry)
	}
	return *n, nil
}
