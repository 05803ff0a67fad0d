// ABOUTME: Tests for export, import, and backend-to-backend migration.
// ABOUTME: Round-trips documents through JSON and YAML and checks idempotent import.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCollections = []string{"Users", "Workouts", "Nutrition"}

func seed(t *testing.T, s Store) {
	t.Helper()
	insert(t, s, "Users", "user1", `{"_id":"user1","username":"ann","email":"a@x","password":"p"}`)
	insert(t, s, "Workouts", "workout1", `{"_id":"workout1","duration":30,"intensity":"high","userId":"user1"}`)
	insert(t, s, "Nutrition", "nutrition1",
		`{"_id":"nutrition1","foodsConsumed":[{"foodName":"apple","quantity":1,"calories":95}],"userId":"user1"}`)
}

func TestExportImportRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		render func(*ExportData) ([]byte, error)
	}{
		{"json", ExportJSON},
		{"yaml", ExportYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			src := setupTestDB(t)
			seed(t, src)

			data, err := GetAllData(ctx, src, testCollections)
			require.NoError(t, err)
			assert.Equal(t, "fitlog", data.Tool)
			assert.Len(t, data.Collections["Workouts"], 1)

			raw, err := tt.render(data)
			require.NoError(t, err)

			parsed, err := ParseExport(raw)
			require.NoError(t, err)

			dst := setupTestBadger(t)
			summary, err := ImportData(ctx, dst, parsed)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Imported["Users"])
			assert.Equal(t, 1, summary.Imported["Nutrition"])

			doc, err := dst.Get(ctx, "Nutrition", "nutrition1")
			require.NoError(t, err)
			assert.JSONEq(t,
				`{"_id":"nutrition1","foodsConsumed":[{"foodName":"apple","quantity":1,"calories":95}],"userId":"user1"}`,
				string(doc.Data))

			again, err := ImportData(ctx, dst, parsed)
			require.NoError(t, err)
			assert.Equal(t, 1, again.Skipped["Workouts"])
			assert.Zero(t, again.Imported["Workouts"])
		})
	}
}

func TestParseExportRejectsMissingVersion(t *testing.T) {
	_, err := ParseExport([]byte(`{"collections":{}}`))
	assert.Error(t, err)
}

func TestImportRequiresID(t *testing.T) {
	data := &ExportData{
		Version:     ExportVersion,
		Collections: map[string][]map[string]any{"Goals": {{"goalName": "x"}}},
	}
	_, err := ImportData(context.Background(), setupTestBadger(t), data)
	assert.Error(t, err)
}

func TestMigrateDataSQLiteToBadger(t *testing.T) {
	ctx := context.Background()
	src := setupTestDB(t)
	seed(t, src)
	dst := setupTestBadger(t)

	summary, err := MigrateData(ctx, src, dst, testCollections)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total())

	docs, err := dst.Find(ctx, "Workouts", "userId", "user1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "workout1", docs[0].ID)

	// Running again copies nothing new.
	summary, err = MigrateData(ctx, src, dst, testCollections)
	require.NoError(t, err)
	assert.Zero(t, summary.Total())
	assert.Equal(t, 1, summary.Skipped["Users"])
}

func TestIsDirNonEmpty(t *testing.T) {
	dir := t.TempDir()

	nonEmpty, err := IsDirNonEmpty(dir)
	require.NoError(t, err)
	assert.False(t, nonEmpty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("x"), 0600))
	nonEmpty, err = IsDirNonEmpty(dir)
	require.NoError(t, err)
	assert.True(t, nonEmpty)

	nonEmpty, err = IsDirNonEmpty(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, nonEmpty)
}
