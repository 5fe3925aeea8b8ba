// Package pipeline orchestrates the extractor and encoder per file to
// produce a descriptive text, its embedding, optional chunk embeddings,
// and extra diagnostics. Dispatch is a tagged union over modality, one
// handler per case, each returning the same PipelineOutput shape —
// mirroring this project's earlier ingestion pipeline's
// dispatch-by-kind structure.
package pipeline

import (
	"math"
	"strings"

	"github.com/brinkfield/multicore/internal/domain"
	"github.com/brinkfield/multicore/internal/encoder"
	"github.com/brinkfield/multicore/internal/extractor"
	"github.com/brinkfield/multicore/internal/platform/logger"
)

// DefaultChunkSize and DefaultChunkOverlap are the knobs for splitting
// long text into overlapping chunks. Text is chunked once its tiktoken
// token count exceeds ChunkSize; the chunk windows and their overlap are
// then measured in whitespace-separated words (see chunkByTokens).
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
)

// Pipeline wires one Extractor and one Encoder; both are process-wide,
// non-reentrant handles per the "global model handles" note, so a
// Pipeline is safe to share across a batch but not across concurrent
// batches without an external lock.
type Pipeline struct {
	Extractor    *extractor.Extractor
	Encoder      *encoder.Encoder
	Log          *logger.Logger
	ChunkSize    int
	ChunkOverlap int
}

// New constructs a Pipeline with the default chunking knobs.
func New(ex *extractor.Extractor, enc *encoder.Encoder, log *logger.Logger) *Pipeline {
	return &Pipeline{
		Extractor:    ex,
		Encoder:      enc,
		Log:          log.With("component", "Pipeline"),
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
}

// EncodePath extracts and encodes the file at path, returning the
// descriptive text, its embedding, any per-chunk embeddings, and
// modality-specific extras alongside the raw extraction result.
func (p *Pipeline) EncodePath(path, originalName string) (domain.PipelineOutput, domain.ExtractionResult) {
	res := p.Extractor.Extract(path, originalName)
	if res.Err != "" {
		return domain.PipelineOutput{}, res
	}

	switch res.Modality {
	case domain.ModalityImage:
		return p.handleImage(res), res
	case domain.ModalityVideo:
		return p.handleVideo(res), res
	case domain.ModalityAudio:
		return p.handleAudio(res), res
	default:
		return p.handleText(res, originalName), res
	}
}

func (p *Pipeline) handleImage(res domain.ExtractionResult) domain.PipelineOutput {
	t := *res.ImageTensor
	caption := p.Encoder.CaptionImage(t)
	modelInput := p.Encoder.PreprocessImage(t)
	vec := p.Encoder.EncodeImage(modelInput)
	return domain.PipelineOutput{
		Modality:        domain.ModalityImage,
		DescriptiveText: caption,
		Embedding:       vec,
		Extra: map[string]any{
			"width":  t.Width,
			"height": t.Height,
		},
		CLIPGenerated: true,
	}
}

func (p *Pipeline) handleVideo(res domain.ExtractionResult) domain.PipelineOutput {
	fs := *res.FrameSet
	if len(fs.Frames) == 0 {
		return domain.PipelineOutput{Modality: domain.ModalityVideo}
	}

	chunks := make([]domain.ChunkEmbedding, 0, len(fs.Frames))
	sum := make([]float64, encoder.Dim)
	for i, frame := range fs.Frames {
		modelInput := p.Encoder.PreprocessImage(frame)
		vec := p.Encoder.EncodeImage(modelInput)
		for j, v := range vec {
			sum[j] += float64(v)
		}
		frameCaption := p.Encoder.CaptionImage(frame)
		chunks = append(chunks, domain.ChunkEmbedding{
			Text:       frameCaption,
			Embedding:  vec,
			ChunkIndex: i,
		})
	}

	mean := make([]float32, encoder.Dim)
	for j := range sum {
		mean[j] = float32(sum[j] / float64(len(fs.Frames)))
	}
	meanVec := renormalize(mean)

	middle := len(fs.Frames) / 2
	descriptiveText := "video; " + chunks[middle].Text

	return domain.PipelineOutput{
		Modality:         domain.ModalityVideo,
		DescriptiveText:  descriptiveText,
		Embedding:        meanVec,
		EmbeddingsChunks: chunks,
		Extra: map[string]any{
			"duration_s":          fs.DurationSec,
			"frame_count_sampled": fs.FrameCountTotal,
			"source_fps":          fs.SourceFPS,
		},
		CLIPGenerated: true,
	}
}

func (p *Pipeline) handleAudio(res domain.ExtractionResult) domain.PipelineOutput {
	transcript := p.Encoder.TranscribeAudio(res.AudioPath)
	text := transcript
	if text == "" {
		text = "audio file"
	}
	vec := p.Encoder.EncodeText(text)
	extra := map[string]any{}
	if res.AudioDurationSec > 0 {
		extra["duration_s"] = res.AudioDurationSec
	}
	return domain.PipelineOutput{
		Modality:        domain.ModalityAudio,
		DescriptiveText: transcript,
		Embedding:       vec,
		Extra:           extra,
		CLIPGenerated:   true,
	}
}

// handleText builds the descriptive text and embedding for an
// extraction that succeeded but may still have yielded no text (a
// missing/empty text layer is success, not an extractor error — see
// internal/extractor's extractPDF and extractDOCX). Encoding an empty
// string would hand the vector store a zero vector, violating the
// "every produced embedding is unit-norm" guarantee, so that case
// falls back to originalName the same way ingest.fallbackOutput does
// for an outright extractor failure.
func (p *Pipeline) handleText(res domain.ExtractionResult, originalName string) domain.PipelineOutput {
	summary := buildSummary(res.Text)
	if summary == "" {
		summary = originalName + " (no text content)"
	}
	vec := p.Encoder.EncodeText(summary)

	out := domain.PipelineOutput{
		Modality:        domain.ModalityText,
		DescriptiveText: summary,
		Embedding:       vec,
		Extra:           map[string]any{},
	}

	if p.Encoder.CountTokens(res.Text) > p.ChunkSize {
		chunks := chunkByTokens(p.Encoder, res.Text, p.ChunkSize, p.ChunkOverlap)
		out.EmbeddingsChunks = make([]domain.ChunkEmbedding, 0, len(chunks))
		for i, c := range chunks {
			out.EmbeddingsChunks = append(out.EmbeddingsChunks, domain.ChunkEmbedding{
				Text:       c,
				Embedding:  p.Encoder.EncodeText(c),
				ChunkIndex: i,
			})
		}
		out.Extra["chunk_count"] = len(chunks)
	}

	return out
}

// buildSummary collapses whitespace and truncates to <= 500 chars,
// preferring a sentence boundary over a mid-word cut.
func buildSummary(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) <= 500 {
		return collapsed
	}
	cut := collapsed[:500]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > 0 {
		return cut[:idx+1]
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		return cut[:idx]
	}
	return cut
}

// chunkByTokens splits text into overlapping windows of size
// whitespace-separated words, each starting size-overlap words after the
// previous one. Window size and overlap are word counts, not tiktoken
// token counts; the encoder's tokenizer is only used to drop chunks that
// contain no tokens.
func chunkByTokens(enc *encoder.Encoder, text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if overlap >= size {
		overlap = size / 2
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if enc.CountTokens(chunk) > 0 {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}
	return chunks
}

func renormalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq < 1e-24 {
		return v
	}
	root := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / root)
	}
	return out
}
