// Package reconcile keeps the card store in step with the configured
// deck sources: it walks each source, parses every deck file,
// fingerprints the cards, inserts the unseen ones with a fresh
// scheduling state and deletes cards whose content has disappeared.
package reconcile

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/memodeck/memodeck/internal/deck"
	"github.com/memodeck/memodeck/internal/gitdeck"
	"github.com/memodeck/memodeck/internal/parser"
	"github.com/memodeck/memodeck/internal/storage"
)

// Source type names as stored in the sources table.
const (
	TypeLocal = "local"
	TypeGit   = "git"
)

// ClassifySource guesses whether a source path is a git URL or a
// local directory.
func ClassifySource(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return TypeGit
	}
	return TypeLocal
}

// Summary reports what one reconciliation run did.
type Summary struct {
	Sources  int
	Parsed   int
	Inserted int
	Orphaned int
	Problems []string
}

// Run reconciles every registered source. Per-source and per-file
// problems are collected into the summary rather than aborting the
// run; only a failure to list the sources is fatal.
func Run(ctx context.Context, db *storage.DB, reposDir string, now time.Time) (Summary, error) {
	var sum Summary

	sources, err := db.GetAllSources()
	if err != nil {
		return sum, fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return sum, nil
	}

	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return sum, fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)
		sum.Sources++

		dir := source.Path
		if source.Type == TypeGit {
			localPath, err := localPathFor(reposDir, source.Path)
			if err != nil {
				sum.Problems = append(sum.Problems, fmt.Sprintf("source %s: %v", source.Path, err))
				continue
			}
			if err := gitdeck.Sync(ctx, source.Path, localPath); err != nil {
				sum.Problems = append(sum.Problems, fmt.Sprintf("source %s: %v", source.Path, err))
				continue
			}
			dir = localPath
		}

		reconcileDir(db, source, dir, now, &sum)
	}

	slog.Info("reconciliation complete",
		"sources", sum.Sources,
		"parsed", sum.Parsed,
		"inserted", sum.Inserted,
		"orphaned", sum.Orphaned,
		"problems", len(sum.Problems),
	)
	return sum, nil
}

// reconcileDir walks one source directory and reconciles its cards
// against the store.
func reconcileDir(db *storage.DB, source storage.Source, dir string, now time.Time, sum *Summary) {
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			sum.Problems = append(sum.Problems, fmt.Sprintf("parsing %s: %v", path, parseErr))
		}
		for _, card := range cards {
			card.Fingerprint = deck.Fingerprint(card)
			sum.Parsed++
			found[card.Fingerprint] = true

			existing, findErr := db.FindCardByFingerprint(card.Fingerprint)
			if findErr != nil {
				sum.Problems = append(sum.Problems, fmt.Sprintf("db check for %s: %v", card.Fingerprint, findErr))
				continue
			}
			if existing != nil {
				continue
			}
			slog.Info("new card found", "fingerprint", card.Fingerprint)
			if insertErr := db.InsertCard(card, source.ID, now); insertErr != nil {
				sum.Problems = append(sum.Problems, fmt.Sprintf("db insert for %s: %v", card.Fingerprint, insertErr))
				continue
			}
			sum.Inserted++
		}
		return nil
	})
	if walkErr != nil {
		sum.Problems = append(sum.Problems, fmt.Sprintf("walking %s: %v", dir, walkErr))
		return
	}

	stored, err := db.GetCardsBySourceID(source.ID)
	if err != nil {
		sum.Problems = append(sum.Problems, fmt.Sprintf("listing cards for source %d: %v", source.ID, err))
		return
	}
	for _, cs := range stored {
		if found[cs.Fingerprint] {
			continue
		}
		slog.Info("orphaned card, deleting", "fingerprint", cs.Fingerprint)
		if err := db.DeleteCardByFingerprint(cs.Fingerprint); err != nil {
			sum.Problems = append(sum.Problems, fmt.Sprintf("deleting orphan %s: %v", cs.Fingerprint, err))
			continue
		}
		sum.Orphaned++
	}

	if err := db.UpdateSourceLastScanned(source.ID, now); err != nil {
		slog.Warn("failed to stamp source", "source_id", source.ID, "error", err)
	}
}

// localPathFor maps a git URL to its checkout directory under baseDir.
// Both https URLs and scp-style git@host:owner/repo.git addresses are
// supported.
func localPathFor(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	if at := strings.IndexByte(repoURL, '@'); at >= 0 {
		if colon := strings.IndexByte(repoURL[at:], ':'); colon >= 0 {
			host := repoURL[at+1 : at+colon]
			repoPath := strings.TrimSuffix(repoURL[at+colon+1:], ".git")
			if host != "" && repoPath != "" {
				return filepath.Join(baseDir, host, repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
