// Package vectorstore holds a collection -> {id, embedding, text,
// metadata} mapping with delete-then-insert atomicity per file_id.
// Built on chromem-go, an embedded Chroma-like store persisted under
// a configurable path. The interface shape (query by vector, delete by
// filter, a graceful not-available mode) is carried over from this
// project's earlier Pinecone/Qdrant vector store adapters.
package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/brinkfield/multicore/internal/platform/logger"
)

// Entry is one row a caller wants upserted: the canonical file entry
// has ChunkIndex == nil; chunk entries carry their index.
type Entry struct {
	Text       string
	Embedding  []float32
	ChunkIndex *int
	Metadata   map[string]string
}

// Match is a single query hit.
type Match struct {
	ID         string
	Score      float64
	Text       string
	Metadata   map[string]string
}

// Store wraps a chromem collection. Available reports whether the
// underlying database opened successfully; when false, writers are
// no-ops and search falls back to metadata mode.
type Store struct {
	log       *logger.Logger
	db        *chromem.DB
	collName  string
	available bool
	mu        sync.Mutex // serializes delete-then-insert per file_id
}

// New opens (or creates) a persistent chromem-go database rooted at
// persistPath and ensures the configured collection exists. If
// persistPath is empty the store runs in-memory only (still
// "available", just not durable across restarts).
func New(log *logger.Logger, persistPath, collectionName string) (*Store, error) {
	var db *chromem.DB
	var err error
	if strings.TrimSpace(persistPath) != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
	} else {
		db = chromem.NewDB()
	}
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open chromem: %w", err)
	}

	if _, err := db.GetOrCreateCollection(collectionName, nil, nil); err != nil {
		return nil, fmt.Errorf("vectorstore: create collection: %w", err)
	}

	return &Store{
		log:       log.With("component", "VectorStore"),
		db:        db,
		collName:  collectionName,
		available: true,
	}, nil
}

// Unavailable constructs a Store in the "vector store down" state: every
// write is a no-op that records the failure, matching this layer's
// "available=false" no-op writer.
func Unavailable(log *logger.Logger) *Store {
	return &Store{log: log.With("component", "VectorStore"), available: false}
}

// Available reports whether this store accepts writes and queries.
func (s *Store) Available() bool { return s.available }

// EmbID computes a row's emb_id: file_id for the canonical entry,
// file_id+":c"+chunk_index for chunks.
func EmbID(fileID string, chunkIndex *int) string {
	if chunkIndex == nil {
		return fileID
	}
	return fileID + ":c" + strconv.Itoa(*chunkIndex)
}

// UpsertEmbeddings deletes all existing rows for fileID then inserts
// entries, guaranteeing chunk-set atomicity. If the store is
// unavailable this is a no-op that returns nil — the caller (internal/ingest)
// is responsible for recording the failure and proceeding.
func (s *Store) UpsertEmbeddings(ctx context.Context, fileID string, entries []Entry) error {
	if !s.available {
		s.log.Warn("vector store unavailable; skipping embedding upsert", "file_id", fileID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.db.GetCollection(s.collName, nil)
	if col == nil {
		return fmt.Errorf("vectorstore: collection %q missing", s.collName)
	}

	if err := col.Delete(ctx, map[string]string{"file_id": fileID}, nil); err != nil && !isNotFound(err) {
		return fmt.Errorf("vectorstore: delete existing: %w", err)
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		meta := map[string]string{}
		for k, v := range e.Metadata {
			meta[k] = v
		}
		meta["file_id"] = fileID
		docs = append(docs, chromem.Document{
			ID:        EmbID(fileID, e.ChunkIndex),
			Content:   e.Text,
			Metadata:  meta,
			Embedding: e.Embedding,
		})
	}

	if len(docs) == 0 {
		return nil
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("vectorstore: add documents: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}

// QueryEmbedding returns the topK nearest neighbors to q by cosine
// similarity. Returns an error if the store is unavailable; callers
// must check Available() first for the fallback path 
func (s *Store) QueryEmbedding(ctx context.Context, q []float32, topK int) ([]Match, error) {
	if !s.available {
		return nil, fmt.Errorf("vector store unavailable")
	}
	col := s.db.GetCollection(s.collName, nil)
	if col == nil {
		return nil, fmt.Errorf("vectorstore: collection %q missing", s.collName)
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := col.QueryEmbedding(ctx, q, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query: %w", err)
	}

	out := make([]Match, 0, len(results))
	for _, r := range results {
		out = append(out, Match{
			ID:       r.ID,
			Score:    float64(r.Similarity),
			Text:     r.Content,
			Metadata: r.Metadata,
		})
	}
	return out, nil
}
