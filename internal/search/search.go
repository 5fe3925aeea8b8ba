// Package search answers a query with ranked hits and the path that
// produced them. The vector path encodes the query with the shared
// encoder and queries the vector store; the fallback path
// substring-matches metadata when the vector store is unavailable.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/brinkfield/multicore/internal/docstore"
	"github.com/brinkfield/multicore/internal/domain"
	"github.com/brinkfield/multicore/internal/encoder"
	"github.com/brinkfield/multicore/internal/vectorstore"
)

// Searcher wires the encoder, vector store, and document store.
type Searcher struct {
	Encoder     *encoder.Encoder
	VectorStore *vectorstore.Store
	DocStore    docstore.Store
}

// New constructs a Searcher.
func New(enc *encoder.Encoder, vs *vectorstore.Store, ds docstore.Store) *Searcher {
	return &Searcher{Encoder: enc, VectorStore: vs, DocStore: ds}
}

// Search returns ranked hits for query. modalityFilter, if non-empty,
// restricts results to that modality in both the semantic and fallback
// paths.
func (s *Searcher) Search(ctx context.Context, query string, k int, modalityFilter string) domain.SearchResult {
	if k <= 0 {
		k = 10
	}

	if s.VectorStore.Available() {
		if hits, err := s.searchSemantic(ctx, query, k, modalityFilter); err == nil {
			return domain.SearchResult{Results: hits, Source: "semantic"}
		}
	}

	return domain.SearchResult{
		Results: s.searchFallback(ctx, query, k, modalityFilter),
		Source:  "metadata",
	}
}

func (s *Searcher) searchSemantic(ctx context.Context, query string, k int, modalityFilter string) ([]domain.SearchHit, error) {
	qvec := s.Encoder.EncodeText(query)
	matches, err := s.VectorStore.QueryEmbedding(ctx, qvec, 3*k)
	if err != nil {
		return nil, err
	}

	bestByFile := map[string]vectorstore.Match{}
	order := []string{}
	for _, m := range matches {
		fileID := m.Metadata["file_id"]
		if fileID == "" {
			fileID = m.ID
		}
		prev, ok := bestByFile[fileID]
		if !ok || m.Score > prev.Score {
			if !ok {
				order = append(order, fileID)
			}
			bestByFile[fileID] = m
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		si, sj := bestByFile[order[i]].Score, bestByFile[order[j]].Score
		if si != sj {
			return si > sj
		}
		return order[i] < order[j]
	})

	var hits []domain.SearchHit
	for _, fileID := range order {
		if len(hits) >= k {
			break
		}
		rec, ok, err := s.DocStore.FindByKey(ctx, fileID)
		if err != nil || !ok {
			continue
		}
		if modalityFilter != "" && rec.Modality != modalityFilter {
			continue
		}
		m := bestByFile[fileID]
		hits = append(hits, domain.SearchHit{
			ID:          fileID,
			Name:        rec.OriginalName,
			Path:        rec.StorageURI,
			Modality:    domain.Modality(rec.Modality),
			Similarity:  m.Score,
			Description: rec.DescriptiveText,
			Metadata:    rec.Extra,
			IsChunk:     m.Metadata["type"] == "chunk",
		})
	}
	return hits, nil
}

func (s *Searcher) searchFallback(ctx context.Context, query string, k int, modalityFilter string) []domain.SearchHit {
	terms := tokenize(query)
	scored, err := s.DocStore.FindBySubstring(ctx, terms, 0)
	if err != nil {
		return nil
	}

	var hits []domain.SearchHit
	for _, sc := range scored {
		if modalityFilter != "" && sc.Record.Modality != modalityFilter {
			continue
		}
		similarity := 0.0
		if len(terms) > 0 {
			similarity = float64(sc.Score) / float64(len(terms))
		}
		hits = append(hits, domain.SearchHit{
			ID:          sc.Record.FileID,
			Name:        sc.Record.OriginalName,
			Path:        sc.Record.StorageURI,
			Modality:    domain.Modality(sc.Record.Modality),
			Similarity:  similarity,
			Description: sc.Record.DescriptiveText,
			Metadata:    sc.Record.Extra,
		})
		if len(hits) >= k {
			break
		}
	}
	return hits
}

func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return fields
}
