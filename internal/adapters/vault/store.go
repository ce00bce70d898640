// Package vault reads the destination note store. Artifact presence is
// derived from what actually landed on disk, not from what the agent claims
// it wrote: reported paths drift, modification times do not.
package vault

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store implements secondary.VaultStore over a directory tree.
type Store struct {
	root string
}

// NewStore creates a vault store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the vault root directory.
func (s *Store) Root() string {
	return s.root
}

// Abs resolves a vault-relative path to an absolute one.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.root, rel)
}

// Exists reports whether a vault-relative path exists.
func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(s.Abs(rel))
	return err == nil
}

// RecentlyModified returns vault-relative paths of Markdown files under dir
// modified at or after since, newest first.
func (s *Store) RecentlyModified(dir string, since time.Time) []string {
	type hit struct {
		rel string
		mod time.Time
	}

	var hits []hit
	base := s.Abs(dir)
	filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil // unreadable subtrees are simply not artifacts
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if info.ModTime().Before(since) {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		hits = append(hits, hit{rel: rel, mod: info.ModTime()})
		return nil
	})

	sort.Slice(hits, func(i, j int) bool { return hits[i].mod.After(hits[j].mod) })

	paths := make([]string, len(hits))
	for i, h := range hits {
		paths[i] = h.rel
	}
	return paths
}
