package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vanderheijden86/logview/pkg/audit"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/tree"
)

type listOptions struct {
	keyword string
	json    bool
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTree prints nodes fully expanded, one entry per line. Directories end
// in "/", files carry their size.
func writeTree(w io.Writer, nodes []model.TreeNode) error {
	if len(nodes) == 0 {
		_, err := fmt.Fprintln(w, "No logs")
		return err
	}
	var err error
	tree.Walk(nodes, func(n *model.TreeNode, depth int) bool {
		if err != nil {
			return false
		}
		indent := strings.Repeat("  ", depth)
		if n.IsDir() {
			_, err = fmt.Fprintf(w, "%s%s/\n", indent, n.Title)
			return true
		}
		_, err = fmt.Fprintf(w, "%s%s  %s\n", indent, n.Title, humanize.IBytes(uint64(max(n.Size, 0))))
		return false
	})
	return err
}

func writeAudit(w io.Writer, recs []audit.Record) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "(no records)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Action", "Entry", "Type", "Result", "Remote"})
	for _, r := range recs {
		entry := r.Filename
		if r.Path != "" {
			entry = r.Path + "/" + r.Filename
		}
		result := "ok"
		if !r.OK {
			result = "failed: " + r.Error
		}
		t.AppendRow(table.Row{humanize.Time(r.Time), r.Action, entry, r.Type, result, r.Remote})
	}
	t.Render()
	return nil
}
