// Package ingest coordinates one file at a time through classify,
// extract, encode, copy-to-storage, persist-metadata, and
// persist-embeddings, then rolls the per-file results into a batch
// summary. The driver shape carries over this project's earlier
// ExtractAndPersist pipeline, generalized from GCS/gorm-Postgres
// persistence to the local storage/docstore/vectorstore trio.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brinkfield/multicore/internal/classifier"
	"github.com/brinkfield/multicore/internal/docstore"
	"github.com/brinkfield/multicore/internal/domain"
	"github.com/brinkfield/multicore/internal/pipeline"
	"github.com/brinkfield/multicore/internal/platform/apierr"
	"github.com/brinkfield/multicore/internal/platform/logger"
	"github.com/brinkfield/multicore/internal/storage"
	"github.com/brinkfield/multicore/internal/vectorstore"
)

const mediaCollection = "media_assets"

// InputFile is one file handed to ProcessBatch; Path must be a readable
// local temp path (the HTTP surface is responsible for staging uploads
// there before calling in).
type InputFile struct {
	Path         string
	OriginalName string
	DeclaredMime string
	SizeBytes    int64
}

// Coordinator wires every downstream component; one instance should be
// reused across a batch. Encoders are non-reentrant, so a batch is
// processed sequentially by a single coordinator instance.
type Coordinator struct {
	Pipeline    *pipeline.Pipeline
	Storage     *storage.Store
	DocStore    docstore.Store
	VectorStore *vectorstore.Store
	Log         *logger.Logger

	locks *fileLocks
}

// New constructs a Coordinator.
func New(p *pipeline.Pipeline, st *storage.Store, ds docstore.Store, vs *vectorstore.Store, log *logger.Logger) *Coordinator {
	return &Coordinator{
		Pipeline:    p,
		Storage:     st,
		DocStore:    ds,
		VectorStore: vs,
		Log:         log.With("component", "IngestCoordinator"),
		locks:       newFileLocks(),
	}
}

// ProcessBatch runs every file in files sequentially, in input order.
// cancel, if non-nil, is polled between files (not mid-file) to
// support cooperative batch cancellation.
func (c *Coordinator) ProcessBatch(ctx context.Context, files []InputFile, cancel func() bool) domain.BatchResult {
	result := domain.BatchResult{}

	for _, f := range files {
		if cancel != nil && cancel() {
			result.Errors = append(result.Errors, "batch cancelled before file "+f.OriginalName)
			break
		}

		fr := c.processOne(ctx, f)
		result.Results = append(result.Results, fr)
		result.TotalFiles++
		if fr.Modality == domain.ModalityImage || fr.Modality == domain.ModalityVideo || fr.Modality == domain.ModalityAudio {
			result.MediaCount++
		} else {
			result.TextCount++
		}
	}

	return result
}

func (c *Coordinator) processOne(ctx context.Context, f InputFile) domain.FileResult {
	res := domain.FileResult{OriginalName: f.OriginalName}

	isMedia, modality := classifier.DetectModality(f.OriginalName)

	var report domain.ClassificationReport
	if !isMedia {
		content, _ := os.ReadFile(f.Path)
		report = classifier.Classify(f.OriginalName, content)
	} else {
		report = domain.ClassificationReport{IsMedia: true, Modality: modality}
	}
	res.Modality = report.Modality

	out, extractRes := c.Pipeline.EncodePath(f.Path, f.OriginalName)
	if extractRes.Err != "" {
		res.Errors = append(res.Errors, apierr.Msg(apierr.CodeExtractFailed, extractRes.Err).Error())
		out = fallbackOutput(report.Modality, f.OriginalName)
	}

	collection := mediaCollection
	if !isMedia {
		collection = deriveCollection(out.DescriptiveText)
	}

	fileID, err := docstore.ComputeFileID(f.Path, f.OriginalName, f.SizeBytes)
	if err != nil {
		res.Errors = append(res.Errors, apierr.Wrap(apierr.CodeMetadataWriteFailed, err).Error())
		return res
	}
	res.FileID = fileID
	res.Collection = collection
	res.DescriptiveText = out.DescriptiveText

	unlock := c.locks.Lock(fileID)
	defer unlock()

	storageURI, err := storage.CopyIntoStorage(c.Storage, f.Path, report.Modality, collection, f.OriginalName)
	if err != nil {
		res.Errors = append(res.Errors, apierr.Wrap(apierr.CodeStorageWriteFailed, err).Error())
	} else {
		res.StorageURI = storageURI
	}

	extra := map[string]any{}
	for k, v := range out.Extra {
		extra[k] = v
	}
	if out.CLIPGenerated {
		extra["clip_generated"] = true
	}
	if len(out.EmbeddingsChunks) > 0 {
		extra["chunk_count"] = len(out.EmbeddingsChunks)
	}
	if len(extractRes.Diagnostics) > 0 {
		extra["diagnostics"] = extractRes.Diagnostics
	}
	extra["classification"] = map[string]any{
		"is_media":    report.IsMedia,
		"sql_score":   report.SQLScore,
		"nosql_score": report.NoSQLScore,
		"decision":    report.Classification,
		"confidence":  report.Confidence,
		"reasons":     report.Reasons,
	}

	_, err = c.DocStore.Upsert(ctx, docstore.FileRecordInput{
		FileID:          fileID,
		OriginalName:    f.OriginalName,
		StorageURI:      res.StorageURI,
		Modality:        string(report.Modality),
		Collection:      collection,
		DescriptiveText: out.DescriptiveText,
		SummaryPreview:  docstore.SummaryPreview(out.DescriptiveText),
		SizeBytes:       f.SizeBytes,
		Extra:           extra,
	})
	if err != nil {
		res.Errors = append(res.Errors, apierr.Wrap(apierr.CodeMetadataWriteFailed, err).Error())
	}

	entries := buildEmbeddingEntries(out, f.OriginalName, res.StorageURI)
	if err := c.VectorStore.UpsertEmbeddings(ctx, fileID, entries); err != nil {
		res.Errors = append(res.Errors, apierr.Wrap(apierr.CodeVectorWriteFailed, err).Error())
	} else if !c.VectorStore.Available() {
		res.Errors = append(res.Errors, apierr.Msg(apierr.CodeVectorWriteFailed, "vector store unavailable; embeddings not written").Error())
	} else {
		res.EmbeddingCount = len(entries)
	}

	return res
}

func buildEmbeddingEntries(out domain.PipelineOutput, originalName, storageURI string) []vectorstore.Entry {
	if len(out.Embedding) == 0 {
		return nil
	}
	entries := []vectorstore.Entry{{
		Text:      out.DescriptiveText,
		Embedding: out.Embedding,
		Metadata: map[string]string{
			"original_name": originalName,
			"storage_uri":   storageURI,
			"type":          "file",
			"modality":      string(out.Modality),
		},
	}}
	for _, ch := range out.EmbeddingsChunks {
		idx := ch.ChunkIndex
		entries = append(entries, vectorstore.Entry{
			Text:       ch.Text,
			Embedding:  ch.Embedding,
			ChunkIndex: &idx,
			Metadata: map[string]string{
				"original_name": originalName,
				"storage_uri":   storageURI,
				"type":          "chunk",
				"modality":      string(out.Modality),
			},
		})
	}
	return entries
}

// fallbackOutput implements this layer's partial-failure policy: after
// an extractor failure, a media file falls back to the descriptive text
// "<modality> (unavailable)" (no dimensions are included, since nothing
// was decoded); a non-media file falls back to the original name.
func fallbackOutput(modality domain.Modality, originalName string) domain.PipelineOutput {
	text := originalName
	if modality == domain.ModalityImage || modality == domain.ModalityVideo || modality == domain.ModalityAudio {
		text = string(modality) + " (unavailable)"
	}
	return domain.PipelineOutput{
		Modality:        modality,
		DescriptiveText: text,
		Extra:           map[string]any{},
	}
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "for": true, "with": true, "is": true,
	"are": true, "we": true, "this": true, "that": true, "it": true, "by": true,
}

// deriveCollection picks the first two significant words (lowercased
// alphanumeric, non-stopword, deduplicated) of descriptiveText, joined
// by "_", or "documents" if none qualify.
func deriveCollection(descriptiveText string) string {
	words := strings.Fields(strings.ToLower(descriptiveText))
	seen := map[string]bool{}
	var picked []string
	for _, w := range words {
		w = alnumOnly(w)
		if w == "" || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		picked = append(picked, w)
		if len(picked) == 2 {
			break
		}
	}
	if len(picked) == 0 {
		return "documents"
	}
	return strings.Join(picked, "_")
}

func alnumOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveUpload is a small helper the HTTP surface uses to turn a
// multipart temp file into an InputFile with SizeBytes populated.
func ResolveUpload(tmpPath, originalName string) (InputFile, error) {
	info, err := os.Stat(tmpPath)
	if err != nil {
		return InputFile{}, fmt.Errorf("ingest: stat upload: %w", err)
	}
	return InputFile{
		Path:         tmpPath,
		OriginalName: filepath.Base(originalName),
		SizeBytes:    info.Size(),
	}, nil
}
