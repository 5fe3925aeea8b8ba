package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brinkfield/multicore/internal/domain"
	"github.com/brinkfield/multicore/internal/encoder"
	"github.com/brinkfield/multicore/internal/extractor"
	"github.com/brinkfield/multicore/internal/platform/logger"
)

func vecNorm(v []float32) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	return math.Sqrt(sumSq)
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	enc, err := encoder.New(false)
	if err != nil {
		t.Fatalf("encoder.New: %v", err)
	}
	ex := extractor.New(log)
	return New(ex, enc, log)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestEncodePathShortTextHasNoChunks(t *testing.T) {
	p := newPipeline(t)
	path := writeTemp(t, "note.txt", "a short note about nothing in particular")

	out, res := p.EncodePath(path, "note.txt")
	if res.Err != "" {
		t.Fatalf("unexpected extraction error: %s", res.Err)
	}
	if out.Modality != domain.ModalityText {
		t.Fatalf("want modality=text got=%s", out.Modality)
	}
	if len(out.EmbeddingsChunks) != 0 {
		t.Fatalf("short text should not be chunked, got %d chunks", len(out.EmbeddingsChunks))
	}
	if len(out.Embedding) != encoder.Dim {
		t.Fatalf("want embedding dim=%d got=%d", encoder.Dim, len(out.Embedding))
	}
}

func TestEncodePathLongTextIsChunked(t *testing.T) {
	p := newPipeline(t)
	word := "lorem "
	long := strings.Repeat(word, 4000) // far beyond ChunkSize tokens
	path := writeTemp(t, "long.txt", long)

	out, res := p.EncodePath(path, "long.txt")
	if res.Err != "" {
		t.Fatalf("unexpected extraction error: %s", res.Err)
	}
	if len(out.EmbeddingsChunks) == 0 {
		t.Fatalf("expected long text to be split into chunks")
	}
	for i, c := range out.EmbeddingsChunks {
		if c.ChunkIndex != i {
			t.Fatalf("chunk %d has ChunkIndex=%d, want sequential index", i, c.ChunkIndex)
		}
		if len(c.Embedding) != encoder.Dim {
			t.Fatalf("chunk %d embedding has wrong dim: %d", i, len(c.Embedding))
		}
	}
	if count, ok := out.Extra["chunk_count"].(int); !ok || count != len(out.EmbeddingsChunks) {
		t.Fatalf("extra.chunk_count=%v does not match len(chunks)=%d", out.Extra["chunk_count"], len(out.EmbeddingsChunks))
	}
}

func TestEncodePathEmptyTextFileFallsBackToNameAndStaysNormalized(t *testing.T) {
	p := newPipeline(t)
	path := writeTemp(t, "empty.txt", "")

	out, res := p.EncodePath(path, "empty.txt")
	if res.Err != "" {
		t.Fatalf("an empty text layer is a successful extraction, not an error: %s", res.Err)
	}
	if out.DescriptiveText == "" {
		t.Fatalf("expected a non-empty descriptive_text fallback for empty extracted text")
	}
	if len(out.Embedding) != encoder.Dim {
		t.Fatalf("want embedding dim=%d got=%d", encoder.Dim, len(out.Embedding))
	}
	if n := vecNorm(out.Embedding); math.Abs(n-1.0) > 1e-5 {
		t.Fatalf("expected unit-norm embedding for the empty-text fallback, got norm=%v", n)
	}
}

func TestEncodePathMissingFileReturnsErrNoPanic(t *testing.T) {
	p := newPipeline(t)
	out, res := p.EncodePath(filepath.Join(t.TempDir(), "missing.txt"), "missing.txt")
	if res.Err == "" {
		t.Fatalf("expected an extraction error for a missing file")
	}
	if out.Embedding != nil || out.DescriptiveText != "" {
		t.Fatalf("expected a zero-value PipelineOutput on extraction failure, got %+v", out)
	}
}

func TestBuildSummaryCollapsesWhitespaceAndPrefersSentenceBoundary(t *testing.T) {
	text := "First sentence here.   Second   sentence follows.\n\nThird one too."
	got := buildSummary(text)
	if strings.Contains(got, "  ") {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}

	long := strings.Repeat("word ", 200) + "end."
	got = buildSummary(long)
	if len(got) > 500 {
		t.Fatalf("expected truncation to <= 500 chars, got %d", len(got))
	}
}

func TestChunkByTokensProducesOverlappingWindows(t *testing.T) {
	log, _ := logger.New("test")
	enc, _ := encoder.New(false)
	_ = log

	words := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	chunks := chunkByTokens(enc, text, 10, 4)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for 100 words at size=10, got %d", len(chunks))
	}
	for _, c := range chunks {
		n := len(strings.Fields(c))
		if n > 10 {
			t.Fatalf("chunk exceeds requested window size: %d words", n)
		}
	}
}

func TestChunkByTokensEmptyTextReturnsNil(t *testing.T) {
	enc, _ := encoder.New(false)
	if chunks := chunkByTokens(enc, "", 10, 4); chunks != nil {
		t.Fatalf("expected nil chunks for empty text, got %v", chunks)
	}
}
