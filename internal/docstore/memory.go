package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the zero-config default used when MONGO_URI is unset.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]FileRecord
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]FileRecord{}}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Upsert(_ context.Context, in FileRecordInput) (FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	existing, ok := m.records[in.FileID]

	rec := FileRecord{
		FileID:          in.FileID,
		OriginalName:    in.OriginalName,
		StorageURI:      in.StorageURI,
		Modality:        in.Modality,
		Collection:      in.Collection,
		DescriptiveText: in.DescriptiveText,
		SummaryPreview:  in.SummaryPreview,
		SizeBytes:       in.SizeBytes,
		Extra:           in.Extra,
		CreatedAtUnix:   now,
		UpdatedAtUnix:   now,
	}

	if ok {
		rec.OriginalName = existing.OriginalName
		rec.SizeBytes = existing.SizeBytes
		rec.CreatedAtUnix = existing.CreatedAtUnix
		rec.Extra = mergeExtra(existing.Extra, in.Extra)
		if rec.StorageURI == "" {
			rec.StorageURI = existing.StorageURI
		}
		if rec.Modality == "" {
			rec.Modality = existing.Modality
		}
		if rec.Collection == "" {
			rec.Collection = existing.Collection
		}
	}

	m.records[in.FileID] = rec
	return rec, nil
}

func mergeExtra(oldExtra, newExtra map[string]any) map[string]any {
	out := make(map[string]any, len(oldExtra)+len(newExtra))
	for k, v := range oldExtra {
		out[k] = v
	}
	for k, v := range newExtra {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) FindByKey(_ context.Context, fileID string) (FileRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[fileID]
	return rec, ok, nil
}

func (m *MemoryStore) FindBySubstring(_ context.Context, terms []string, limit int) ([]ScoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []ScoredRecord
	for _, rec := range m.records {
		hay := strings.ToLower(rec.DescriptiveText + " " + rec.SummaryPreview + " " + rec.OriginalName)
		score := 0
		for _, t := range terms {
			if t == "" {
				continue
			}
			score += strings.Count(hay, t)
		}
		if score > 0 {
			hits = append(hits, ScoredRecord{Record: rec, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Record.FileID < hits[j].Record.FileID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MemoryStore) All(_ context.Context) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FileRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileID < out[j].FileID })
	return out, nil
}

func (m *MemoryStore) Collections(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	for _, rec := range m.records {
		if rec.Collection != "" {
			seen[rec.Collection] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
