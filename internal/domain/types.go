// Package domain holds the shared types that flow between every
// component of the ingestion and retrieval core: classifier, extractor,
// encoder, pipeline, storage, docstore, vectorstore, ingest and search
// all exchange values defined here rather than their own local structs.
package domain

import "time"

// Modality is assigned during triage and determines the extractor and
// encoder path a file takes through the pipeline.
type Modality string

const (
	ModalityImage   Modality = "image"
	ModalityVideo   Modality = "video"
	ModalityAudio   Modality = "audio"
	ModalityText    Modality = "text"
	ModalityUnknown Modality = "unknown"
)

// EmbeddingKind distinguishes the single canonical row for a file from
// its chunk rows.
type EmbeddingKind string

const (
	EmbeddingKindFile  EmbeddingKind = "file"
	EmbeddingKindChunk EmbeddingKind = "chunk"
)

// FileRecord is the metadata document persisted by the document store,
// keyed by FileID.
type FileRecord struct {
	FileID          string         `json:"file_id"`
	OriginalName    string         `json:"original_name"`
	StorageURI      string         `json:"storage_uri"`
	Modality        Modality       `json:"modality"`
	Collection      string         `json:"collection"`
	DescriptiveText string         `json:"descriptive_text"`
	SummaryPreview  string         `json:"summary_preview"`
	SizeBytes       int64          `json:"size_bytes"`
	Extra           map[string]any `json:"extra"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// EmbeddingRecord is one row in the vector store's single collection.
type EmbeddingRecord struct {
	EmbID        string         `json:"emb_id"`
	FileID       string         `json:"file_id"`
	ChunkIndex   *int           `json:"chunk_index,omitempty"`
	Modality     Modality       `json:"modality"`
	Collection   string         `json:"collection"`
	Text         string         `json:"text"`
	Embedding    []float32      `json:"embedding"`
	Metadata     map[string]any `json:"metadata"`
}

// Kind reports whether this row is the canonical file-level embedding
// or a chunk, derived from ChunkIndex rather than stored redundantly.
func (e EmbeddingRecord) Kind() EmbeddingKind {
	if e.ChunkIndex == nil {
		return EmbeddingKindFile
	}
	return EmbeddingKindChunk
}

// Segment is a single unit of extracted content (an OCR block, a page
// of native text, a caption). No extractor in this module produces
// Segments: extractors return their text directly in
// ExtractionResult.Text.
type Segment struct {
	Text     string
	Metadata map[string]any
}

// AssetRef is a derived, content-addressed file kept alongside the
// original (a rendered PDF page, a video keyframe, an extracted audio
// track). It is the element type of ExtractionResult.Assets; no extractor
// in this module fills that field, and ingest writes no "assets" key
// into a record's Extra.
type AssetRef struct {
	Kind     string         `json:"kind"`
	URI      string         `json:"uri"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExtractionResult is what an extractor (internal/extractor) hands to
// the pipeline: either raw decoded content, or an empty payload plus a
// non-empty Err string — extractors never panic across this boundary.
type ExtractionResult struct {
	Modality         Modality
	Text             string
	ImageTensor      *ImageTensor
	FrameSet         *FrameSet
	AudioPath        string
	AudioDurationSec float64
	Assets           []AssetRef
	Diagnostics      map[string]any
	Err              string
}

// ImageTensor is a decoded RGB image: Pix holds row-major RGB bytes,
// len(Pix) == Width*Height*3.
type ImageTensor struct {
	Width  int
	Height int
	Pix    []byte
}

// FrameSet is an ordered list of sampled video frames plus the cheap
// metadata the sampler could recover.
type FrameSet struct {
	Frames          []ImageTensor
	DurationSec     float64
	FrameCountTotal int
	SourceFPS       float64
}

// PipelineOutput is the one public result shape every modality handler
// in internal/pipeline produces: (modality, descriptive_text,
// embedding, embeddings_chunks?, extra).
type PipelineOutput struct {
	Modality         Modality
	DescriptiveText  string
	Embedding        []float32
	EmbeddingsChunks []ChunkEmbedding
	Extra            map[string]any
	CLIPGenerated    bool
}

// ChunkEmbedding is one entry of PipelineOutput.EmbeddingsChunks.
type ChunkEmbedding struct {
	Text       string
	Embedding  []float32
	ChunkIndex int
}

// ClassificationReport is the two-stage classifier's full decision
// trail: media-vs-text, then (for non-media) SQL-vs-NoSQL scoring.
type ClassificationReport struct {
	IsMedia        bool
	Modality       Modality
	SQLScore       int
	NoSQLScore     int
	Classification string // "SQL" or "NoSQL"; meaningless when IsMedia
	Confidence     float64
	Reasons        []string
}

// FileResult is the per-file outcome of internal/ingest.ProcessBatch.
type FileResult struct {
	FileID          string   `json:"file_id"`
	OriginalName    string   `json:"original_name"`
	Modality        Modality `json:"modality"`
	Collection      string   `json:"collection"`
	DescriptiveText string   `json:"descriptive_text"`
	StorageURI      string   `json:"storage_uri"`
	EmbeddingCount  int      `json:"embedding_count"`
	Errors          []string `json:"errors"`
}

// BatchResult is the aggregate returned by internal/ingest.ProcessBatch.
type BatchResult struct {
	TotalFiles int          `json:"total_files"`
	MediaCount int          `json:"media_count"`
	TextCount  int          `json:"text_count"`
	Results    []FileResult `json:"results"`
	Errors     []string     `json:"errors"`
}

// SearchHit is one ranked row returned by internal/search.Search.
type SearchHit struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Path        string         `json:"path"`
	Modality    Modality       `json:"modality"`
	Similarity  float64        `json:"similarity"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	IsChunk     bool           `json:"isChunk"`
}

// SearchResult is the top-level shape returned by internal/search.Search.
type SearchResult struct {
	Results []SearchHit `json:"results"`
	Source  string      `json:"source"` // "semantic" | "metadata"
}
