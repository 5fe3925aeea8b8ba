package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/datatypes"
)

func TestMergeExtraJSONKeepsOldAddsNewOverwritesShared(t *testing.T) {
	old := datatypes.JSONMap{"a": 1.0, "shared": "old"}
	fresh := datatypes.JSONMap{"b": 2.0, "shared": "new"}

	merged := mergeExtraJSON(old, fresh)
	if merged["a"] != 1.0 {
		t.Fatalf("expected old key 'a' to survive, got %v", merged["a"])
	}
	if merged["b"] != 2.0 {
		t.Fatalf("expected new key 'b' to be added, got %v", merged["b"])
	}
	if merged["shared"] != "new" {
		t.Fatalf("expected new value to win on shared key, got %v", merged["shared"])
	}
}

func TestToFileRecordCopiesEveryField(t *testing.T) {
	row := fileRecordModel{
		FileID:          "f1",
		OriginalName:    "a.txt",
		StorageURI:      "text/docs/a.txt",
		Modality:        "text",
		Collection:      "docs",
		DescriptiveText: "a description",
		SummaryPreview:  "a description",
		SizeBytes:       42,
		Extra:           datatypes.JSONMap{"k": "v"},
		CreatedAtUnix:   100,
		UpdatedAtUnix:   200,
	}
	rec := toFileRecord(row)
	if rec.FileID != row.FileID || rec.OriginalName != row.OriginalName || rec.SizeBytes != row.SizeBytes {
		t.Fatalf("toFileRecord dropped a scalar field: %+v", rec)
	}
	if rec.Extra["k"] != "v" {
		t.Fatalf("toFileRecord dropped Extra: %+v", rec.Extra)
	}
	if rec.CreatedAtUnix != 100 || rec.UpdatedAtUnix != 200 {
		t.Fatalf("toFileRecord dropped timestamps: %+v", rec)
	}
}

func TestGormStoreUpsertPreservesCreationFieldsOnUpdate(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "documents.sqlite3")
	g, err := NewGormStore(dbPath)
	if err != nil {
		t.Fatalf("NewGormStore: %v", err)
	}

	first, err := g.Upsert(ctx, FileRecordInput{
		FileID:          "f1",
		OriginalName:    "report.pdf",
		SizeBytes:       100,
		DescriptiveText: "first summary",
		Extra:           map[string]any{"a": 1.0},
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := g.Upsert(ctx, FileRecordInput{
		FileID:          "f1",
		OriginalName:    "renamed-by-caller.pdf",
		SizeBytes:       999,
		DescriptiveText: "second summary",
		Extra:           map[string]any{"b": 2.0},
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.OriginalName != first.OriginalName {
		t.Fatalf("original_name should never change on update: got %q", second.OriginalName)
	}
	if second.SizeBytes != first.SizeBytes {
		t.Fatalf("size_bytes should never change on update: got %d", second.SizeBytes)
	}
	if second.DescriptiveText != "second summary" {
		t.Fatalf("descriptive_text should be replaced on update, got %q", second.DescriptiveText)
	}
	if second.Extra["a"] != 1.0 || second.Extra["b"] != 2.0 {
		t.Fatalf("expected merged extra to retain both keys, got %v", second.Extra)
	}

	rec, ok, err := g.FindByKey(ctx, "f1")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if !ok {
		t.Fatalf("expected f1 to be found")
	}
	if rec.DescriptiveText != "second summary" {
		t.Fatalf("persisted record out of sync with Upsert return value: %+v", rec)
	}
}

func TestGormStoreFindBySubstringRanksByTermOverlap(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "documents.sqlite3")
	g, err := NewGormStore(dbPath)
	if err != nil {
		t.Fatalf("NewGormStore: %v", err)
	}

	g.Upsert(ctx, FileRecordInput{FileID: "a", OriginalName: "a.txt", DescriptiveText: "invoice invoice payment"})
	g.Upsert(ctx, FileRecordInput{FileID: "b", OriginalName: "b.txt", DescriptiveText: "invoice only"})
	g.Upsert(ctx, FileRecordInput{FileID: "c", OriginalName: "c.txt", DescriptiveText: "unrelated content"})

	hits, err := g.FindBySubstring(ctx, []string{"invoice"}, 0)
	if err != nil {
		t.Fatalf("FindBySubstring: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("want 2 hits, got %d", len(hits))
	}
	if hits[0].Record.FileID != "a" {
		t.Fatalf("expected file with more term occurrences ranked first, got %s", hits[0].Record.FileID)
	}
}
