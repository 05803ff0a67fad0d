// ABOUTME: Export and import of whole collections as JSON or YAML.
// ABOUTME: Documents are carried as plain field maps so either format round-trips.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportVersion is written into every export file.
const ExportVersion = "1.0"

// ExportData represents the full export format for fitlog data.
type ExportData struct {
	Version     string                      `json:"version" yaml:"version"`
	ExportedAt  string                      `json:"exported_at" yaml:"exported_at"`
	Tool        string                      `json:"tool" yaml:"tool"`
	Collections map[string][]map[string]any `json:"collections" yaml:"collections"`
}

// ImportSummary counts imported and skipped documents per collection.
type ImportSummary struct {
	Imported map[string]int
	Skipped  map[string]int
}

// GetAllData reads every listed collection for export.
func GetAllData(ctx context.Context, s Store, collections []string) (*ExportData, error) {
	data := &ExportData{
		Version:     ExportVersion,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Tool:        "fitlog",
		Collections: make(map[string][]map[string]any, len(collections)),
	}

	for _, coll := range collections {
		docs, err := s.List(ctx, coll)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", coll, err)
		}
		fields := make([]map[string]any, 0, len(docs))
		for _, doc := range docs {
			var m map[string]any
			if err := json.Unmarshal(doc.Data, &m); err != nil {
				return nil, fmt.Errorf("decode %s/%s: %w", coll, doc.ID, err)
			}
			fields = append(fields, m)
		}
		data.Collections[coll] = fields
	}
	return data, nil
}

// ExportJSON renders an export as indented JSON.
func ExportJSON(data *ExportData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML renders an export as YAML.
func ExportYAML(data *ExportData) ([]byte, error) {
	return yaml.Marshal(data)
}

// ParseExport reads an export file in either format. JSON is valid YAML,
// so one decoder handles both.
func ParseExport(raw []byte) (*ExportData, error) {
	var data ExportData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	if data.Version == "" {
		return nil, errors.New("parse export: missing version")
	}
	return &data, nil
}

// ImportData inserts every document of the export into s. Documents whose
// identifier already exists are skipped, so importing twice is harmless.
func ImportData(ctx context.Context, s Store, data *ExportData) (*ImportSummary, error) {
	summary := &ImportSummary{Imported: map[string]int{}, Skipped: map[string]int{}}

	for coll, docs := range data.Collections {
		for i, fields := range docs {
			id, ok := fields["_id"].(string)
			if !ok || id == "" {
				return summary, fmt.Errorf("import %s[%d]: missing _id", coll, i)
			}
			body, err := json.Marshal(fields)
			if err != nil {
				return summary, fmt.Errorf("import %s/%s: %w", coll, id, err)
			}

			inserted, err := insertIfAbsent(ctx, s, coll, id, body)
			if err != nil {
				return summary, fmt.Errorf("import %s/%s: %w", coll, id, err)
			}
			if inserted {
				summary.Imported[coll]++
			} else {
				summary.Skipped[coll]++
			}
		}
	}
	return summary, nil
}

func insertIfAbsent(ctx context.Context, s Store, coll, id string, body []byte) (bool, error) {
	inserted := false
	err := s.Update(ctx, coll, func(tx Tx) error {
		exists, err := tx.Exists(id)
		if err != nil || exists {
			return err
		}
		if err := tx.Insert(id, body); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if errors.Is(err, ErrDuplicateKey) {
		return false, nil
	}
	return inserted, err
}
