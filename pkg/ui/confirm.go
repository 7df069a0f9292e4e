package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/tree"
)

// deleteConfirm wraps a huh confirm form for one pending deletion. The form
// is driven by the main Update loop, which must forward every message to it.
type deleteConfirm struct {
	node    model.TreeNode
	form    *huh.Form
	confirm bool
}

func newDeleteConfirm(node model.TreeNode) *deleteConfirm {
	d := &deleteConfirm{node: node}

	title := fmt.Sprintf("Delete %s?", node.Key)
	desc := "The file is removed permanently."
	if node.IsDir() {
		desc = fmt.Sprintf("This directory and everything in it (%d entries) is removed permanently.",
			tree.Count(node.Children))
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&d.confirm),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
	return d
}

func (d *deleteConfirm) Init() tea.Cmd { return d.form.Init() }

// Update forwards msg to the form.
func (d *deleteConfirm) Update(msg tea.Msg) tea.Cmd {
	f, cmd := d.form.Update(msg)
	if form, ok := f.(*huh.Form); ok {
		d.form = form
	}
	return cmd
}

// done reports whether the form was answered or aborted.
func (d *deleteConfirm) done() bool {
	return d.form.State != huh.StateNormal
}

// confirmed reports whether the user chose Delete.
func (d *deleteConfirm) confirmed() bool {
	return d.form.State == huh.StateCompleted && d.confirm
}

func (d *deleteConfirm) View() string { return d.form.View() }
