package docstore

import (
	"context"
	"testing"
)

func TestMemoryStoreUpsertPreservesCreationFieldsOnUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	first, err := m.Upsert(ctx, FileRecordInput{
		FileID:          "f1",
		OriginalName:    "report.pdf",
		SizeBytes:       100,
		DescriptiveText: "first summary",
		Extra:           map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := m.Upsert(ctx, FileRecordInput{
		FileID:          "f1",
		OriginalName:    "renamed-by-caller.pdf",
		SizeBytes:       999,
		DescriptiveText: "second summary",
		Extra:           map[string]any{"b": 2},
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
	if second.CreatedAtUnix != first.CreatedAtUnix {
		t.Fatalf("created_at should never change on update")
	}
	if second.DescriptiveText != "second summary" {
		t.Fatalf("descriptive_text should be replaced on update, got %q", second.DescriptiveText)
	}
	if second.Extra["a"] != 1.0 && second.Extra["a"] != 1 {
		t.Fatalf("expected merged extra to retain prior key 'a', got %v", second.Extra)
	}
	if second.Extra["b"] != 2.0 && second.Extra["b"] != 2 {
		t.Fatalf("expected merged extra to include new key 'b', got %v", second.Extra)
	}
}

func TestMemoryStoreFindBySubstringRanksByTermOverlap(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Upsert(ctx, FileRecordInput{FileID: "a", OriginalName: "a.txt", DescriptiveText: "invoice invoice payment"})
	m.Upsert(ctx, FileRecordInput{FileID: "b", OriginalName: "b.txt", DescriptiveText: "invoice only"})
	m.Upsert(ctx, FileRecordInput{FileID: "c", OriginalName: "c.txt", DescriptiveText: "unrelated content"})

	hits, err := m.FindBySubstring(ctx, []string{"invoice"}, 0)
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

func TestMemoryStoreCollectionsDeduped(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Upsert(ctx, FileRecordInput{FileID: "a", Collection: "invoices"})
	m.Upsert(ctx, FileRecordInput{FileID: "b", Collection: "invoices"})
	m.Upsert(ctx, FileRecordInput{FileID: "c", Collection: "receipts"})

	cols, err := m.Collections(ctx)
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("want 2 distinct collections, got %v", cols)
	}
}
