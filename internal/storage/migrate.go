// ABOUTME: Data migration between fitlog storage backends.
// ABOUTME: Copies every document of the listed collections from source to destination.
package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated documents per collection.
type MigrateSummary struct {
	Copied  map[string]int
	Skipped map[string]int
}

// Total returns the number of documents copied.
func (m *MigrateSummary) Total() int {
	n := 0
	for _, c := range m.Copied {
		n += c
	}
	return n
}

// MigrateData copies all documents of collections from src to dst.
// Identifiers are preserved, so allocation in dst continues where src left off.
// Documents already present in dst are skipped.
func MigrateData(ctx context.Context, src, dst Store, collections []string) (*MigrateSummary, error) {
	summary := &MigrateSummary{Copied: map[string]int{}, Skipped: map[string]int{}}

	for _, coll := range collections {
		docs, err := src.List(ctx, coll)
		if err != nil {
			return nil, fmt.Errorf("list source %s: %w", coll, err)
		}
		for _, doc := range docs {
			inserted, err := insertIfAbsent(ctx, dst, coll, doc.ID, doc.Data)
			if err != nil {
				return nil, fmt.Errorf("copy %s/%s: %w", coll, doc.ID, err)
			}
			if inserted {
				summary.Copied[coll]++
			} else {
				summary.Skipped[coll]++
			}
		}
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
