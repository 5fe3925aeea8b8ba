package search

import (
	"context"
	"testing"

	"github.com/brinkfield/multicore/internal/docstore"
	"github.com/brinkfield/multicore/internal/encoder"
	"github.com/brinkfield/multicore/internal/platform/logger"
	"github.com/brinkfield/multicore/internal/vectorstore"
)

func newSearcher(t *testing.T) (*Searcher, docstore.Store, *vectorstore.Store) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	enc, err := encoder.New(false)
	if err != nil {
		t.Fatalf("encoder.New: %v", err)
	}
	vs, err := vectorstore.New(log, "", "test_collection")
	if err != nil {
		t.Fatalf("vectorstore.New: %v", err)
	}
	ds := docstore.NewMemoryStore()
	return New(enc, vs, ds), ds, vs
}

func seedFile(t *testing.T, ctx context.Context, ds docstore.Store, vs *vectorstore.Store, enc *encoder.Encoder, fileID, name, modality, text string) {
	t.Helper()
	_, err := ds.Upsert(ctx, docstore.FileRecordInput{
		FileID:          fileID,
		OriginalName:    name,
		StorageURI:      modality + "/" + name,
		Modality:        modality,
		DescriptiveText: text,
		SummaryPreview:  text,
	})
	if err != nil {
		t.Fatalf("seed upsert: %v", err)
	}
	vec := enc.EncodeText(text)
	err = vs.UpsertEmbeddings(ctx, fileID, []vectorstore.Entry{{Text: text, Embedding: vec, Metadata: map[string]string{"type": "file", "modality": modality}}})
	if err != nil {
		t.Fatalf("seed vector upsert: %v", err)
	}
}

func TestSearchSemanticRanksExactTextMatchFirst(t *testing.T) {
	ctx := context.Background()
	s, ds, vs := newSearcher(t)

	seedFile(t, ctx, ds, vs, s.Encoder, "f1", "invoice.txt", "text", "quarterly invoice payment summary")
	seedFile(t, ctx, ds, vs, s.Encoder, "f2", "unrelated.txt", "text", "a completely different topic about gardening")

	result := s.Search(ctx, "quarterly invoice payment summary", 5, "")
	if result.Source != "semantic" {
		t.Fatalf("want semantic source, got %s", result.Source)
	}
	if len(result.Results) == 0 || result.Results[0].ID != "f1" {
		t.Fatalf("want exact text match ranked first, got %+v", result.Results)
	}
}

func TestSearchSemanticDedupsByFileID(t *testing.T) {
	ctx := context.Background()
	s, ds, vs := newSearcher(t)

	seedFile(t, ctx, ds, vs, s.Encoder, "f1", "doc.txt", "text", "alpha beta gamma")
	// add an extra chunk row under the same file_id
	chunkIdx := 0
	err := vs.UpsertEmbeddings(ctx, "f1", []vectorstore.Entry{
		{Text: "alpha beta gamma", Embedding: s.Encoder.EncodeText("alpha beta gamma"), Metadata: map[string]string{"type": "file"}},
		{Text: "alpha beta gamma chunk", Embedding: s.Encoder.EncodeText("alpha beta gamma"), ChunkIndex: &chunkIdx, Metadata: map[string]string{"type": "chunk"}},
	})
	if err != nil {
		t.Fatalf("upsert chunk: %v", err)
	}

	result := s.Search(ctx, "alpha beta gamma", 5, "")
	count := 0
	for _, hit := range result.Results {
		if hit.ID == "f1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("want exactly one hit per file_id after dedup, got %d", count)
	}
}

func TestSearchSemanticAppliesModalityFilter(t *testing.T) {
	ctx := context.Background()
	s, ds, vs := newSearcher(t)

	seedFile(t, ctx, ds, vs, s.Encoder, "f1", "photo.png", "image", "a photo of a sunset")
	seedFile(t, ctx, ds, vs, s.Encoder, "f2", "article.txt", "text", "a photo of a sunset")

	result := s.Search(ctx, "a photo of a sunset", 5, "text")
	for _, hit := range result.Results {
		if hit.Modality != "text" {
			t.Fatalf("modality filter leaked a non-text hit: %+v", hit)
		}
	}
}

func TestSearchFallsBackToMetadataWhenVectorStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	log, _ := logger.New("test")
	enc, _ := encoder.New(false)
	vs := vectorstore.Unavailable(log)
	ds := docstore.NewMemoryStore()
	s := New(enc, vs, ds)

	ds.Upsert(ctx, docstore.FileRecordInput{FileID: "f1", OriginalName: "invoice.txt", DescriptiveText: "invoice payment due"})
	ds.Upsert(ctx, docstore.FileRecordInput{FileID: "f2", OriginalName: "other.txt", DescriptiveText: "something else entirely"})

	result := s.Search(ctx, "invoice payment", 5, "")
	if result.Source != "metadata" {
		t.Fatalf("want metadata fallback source, got %s", result.Source)
	}
	if len(result.Results) != 1 || result.Results[0].ID != "f1" {
		t.Fatalf("want f1 as the only fallback hit, got %+v", result.Results)
	}
}

func TestSearchDefaultsKWhenZeroOrNegative(t *testing.T) {
	ctx := context.Background()
	s, ds, vs := newSearcher(t)
	for i := 0; i < 15; i++ {
		seedFile(t, ctx, ds, vs, s.Encoder, string(rune('a'+i)), "f.txt", "text", "repeated content block")
	}

	result := s.Search(ctx, "repeated content block", 0, "")
	if len(result.Results) != 10 {
		t.Fatalf("want default k=10 results, got %d", len(result.Results))
	}

	result = s.Search(ctx, "repeated content block", -1, "")
	if len(result.Results) != 10 {
		t.Fatalf("want default k=10 results for negative k, got %d", len(result.Results))
	}
}
