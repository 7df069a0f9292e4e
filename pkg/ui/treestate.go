package ui

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/logview/pkg/debug"
	"github.com/vanderheijden86/logview/pkg/model"
)

// TreeState is the persistent expand/collapse state of one log source.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "source": "/var/log/app",
//	  "expanded": ["app", "app/api"]
//	}
//
// Keys that no longer exist are carried along harmlessly; a corrupted or
// missing file means nothing is expanded.
type TreeState struct {
	Version  int      `json:"version"`
	Source   string   `json:"source"`
	Expanded []string `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

const treeStateFileName = "tree-state.json"

// TreeStatePath returns the state file for source under stateDir. Each
// source gets its own directory named by a hash of its location.
func TreeStatePath(stateDir, source string) string {
	sum := sha256.Sum256([]byte(source))
	return filepath.Join(stateDir, "sources", hex.EncodeToString(sum[:8]), treeStateFileName)
}

// LoadTreeState reads the expanded keys saved for source. Any failure yields
// an empty set.
func LoadTreeState(stateDir, source string) model.KeySet {
	if stateDir == "" {
		return model.KeySet{}
	}
	path := TreeStatePath(stateDir, source)
	data, err := os.ReadFile(path)
	if err != nil {
		return model.KeySet{}
	}
	var st TreeState
	if err := json.Unmarshal(data, &st); err != nil {
		debug.Log("invalid tree state %s, ignoring: %v", path, err)
		return model.KeySet{}
	}
	if st.Version != TreeStateVersion {
		return model.KeySet{}
	}
	return model.NewKeySet(st.Expanded...)
}

// SaveTreeState writes the expanded keys for source. Errors are logged, never
// surfaced: losing expansion state is not worth interrupting the user.
func SaveTreeState(stateDir, source string, expanded model.KeySet) {
	if stateDir == "" {
		return
	}
	st := TreeState{
		Version:  TreeStateVersion,
		Source:   source,
		Expanded: expanded.Sorted(),
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		debug.Log("marshal tree state: %v", err)
		return
	}
	path := TreeStatePath(stateDir, source)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		debug.Log("create state directory: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		debug.Log("write tree state %s: %v", path, err)
	}
}
