// +build ignore

package main

import (
	"bufio"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Backfills the completion ledger from notes that already exist in the
// vault, so entries clipped before curator took over are not processed
// again. A note counts when its frontmatter carries a source URL.
//
// The URL is recorded as the entry GUID. Feeds that publish a separate GUID
// per item can still reprocess such an entry once; the resulting duplicate
// note is harmless and the ledger is correct from then on.

// sourceLine matches a frontmatter source field, e.g. `source: https://...`.
var sourceLine = regexp.MustCompile(`^source:\s*"?(https?://\S+?)"?\s*$`)

type backfillEntry struct {
	URL      string
	Title    string
	NotePath string // vault-relative
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview backfill without executing")
	vaultDir := flag.String("vault", "", "Vault root directory (required)")
	dataDir := flag.String("data-dir", "", "Curator data directory (default ~/.curator)")
	flag.Parse()

	if *vaultDir == "" {
		fmt.Fprintln(os.Stderr, "Error: -vault is required")
		os.Exit(1)
	}

	if *dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home dir: %v\n", err)
			os.Exit(1)
		}
		*dataDir = filepath.Join(homeDir, ".curator")
	}
	dbPath := filepath.Join(*dataDir, "curator.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	entries, err := findVaultEntries(*vaultDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning vault: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No notes with a source URL found")
		return
	}

	fmt.Printf("Found %d note(s) with a source URL:\n\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %s\n", e.NotePath)
		fmt.Printf("    -> %s\n", e.URL)
	}
	fmt.Println()

	if *dryRun {
		fmt.Println("=== DRY RUN - No changes made ===")
		return
	}

	fmt.Println("=== Executing backfill ===")
	fmt.Println()

	inserted := 0
	for _, e := range entries {
		ok, err := backfill(db, e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recording %s: %v\n", e.NotePath, err)
			continue
		}
		if ok {
			fmt.Printf("✓ Recorded %s\n", e.URL)
			inserted++
		}
	}

	fmt.Printf("\n=== Backfill complete: %d/%d entries recorded ===\n", inserted, len(entries))
}

// findVaultEntries walks the vault for Markdown notes whose frontmatter
// names a source URL.
func findVaultEntries(root string) ([]backfillEntry, error) {
	var entries []backfillEntry

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return err
		}

		url, err := sourceURL(path)
		if err != nil || url == "" {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		entries = append(entries, backfillEntry{
			URL:      url,
			Title:    strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())),
			NotePath: rel,
		})
		return nil
	})

	return entries, err
}

// sourceURL reads a note's frontmatter block and returns its source URL,
// or empty when the note has none.
func sourceURL(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return "", scanner.Err()
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "---" {
			break
		}
		if m := sourceLine.FindStringSubmatch(line); m != nil {
			return m[1], nil
		}
	}

	return "", scanner.Err()
}

// backfill inserts one completion record, reporting false when the URL is
// already in the ledger.
func backfill(db *sql.DB, e backfillEntry) (bool, error) {
	res, err := db.Exec(`
		INSERT OR IGNORE INTO processed_entries (entry_guid, entry_url, entry_title, note_path)
		VALUES (?, ?, ?, ?)
	`, e.URL, e.URL, e.Title, e.NotePath)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
