// Package docstore is a mapping collection -> documents with
// upsert-by-key, find-by-key, and find-by-substring, keyed by a
// deterministic file_id. The concrete backend is any collaborator
// satisfying the Store contract; two are provided here — an in-memory
// default (used when no Mongo connection string is configured) and a
// gorm/sqlite-backed persistent store, grounded on this project's
// gorm.io/driver/sqlite dependency and its materials repo-interface
// shape.
package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// firstMiB is the cap named in this layer's file_id definition.
const firstMiB = 1 << 20

// Store is the contract every backend implements; DocumentStore is
// a generic name for "any collection → documents mapping".
type Store interface {
	// Upsert merges extra, replaces descriptive_text, bumps updated_at;
	// it never overwrites file_id, original_name, size_bytes, created_at.
	Upsert(ctx context.Context, rec FileRecordInput) (FileRecord, error)
	FindByKey(ctx context.Context, fileID string) (FileRecord, bool, error)
	FindBySubstring(ctx context.Context, terms []string, limit int) ([]ScoredRecord, error)
	All(ctx context.Context) ([]FileRecord, error)
	Collections(ctx context.Context) ([]string, error)
}

// FileRecordInput is what a caller proposes to upsert; CreatedAt and
// UpdatedAt are assigned by the store.
type FileRecordInput struct {
	FileID          string
	OriginalName    string
	StorageURI      string
	Modality        string
	Collection      string
	DescriptiveText string
	SummaryPreview  string
	SizeBytes       int64
	Extra           map[string]any
}

// FileRecord mirrors domain.FileRecord but avoids importing internal/domain
// so this package stays a leaf usable independently of the pipeline types.
type FileRecord struct {
	FileID          string
	OriginalName    string
	StorageURI      string
	Modality        string
	Collection      string
	DescriptiveText string
	SummaryPreview  string
	SizeBytes       int64
	Extra           map[string]any
	CreatedAtUnix   int64
	UpdatedAtUnix   int64
}

// ScoredRecord is a FindBySubstring hit with its term-overlap score.
type ScoredRecord struct {
	Record FileRecord
	Score  int
}

// ComputeFileID hashes (original_name || size_bytes || first 1 MiB of
// content) into the deterministic dedupe key used as every record's
// file_id.
func ComputeFileID(path, originalName string, sizeBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("docstore: open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	h.Write([]byte(originalName))
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(sizeBytes))
	h.Write(sizeBuf[:])

	if _, err := io.CopyN(h, f, firstMiB); err != nil && err != io.EOF {
		return "", fmt.Errorf("docstore: hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SummaryPreview returns the first <=500 chars of text.
func SummaryPreview(text string) string {
	r := []rune(text)
	if len(r) <= 500 {
		return string(r)
	}
	return string(r[:500])
}
