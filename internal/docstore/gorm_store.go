package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fileRecordModel is the gorm row backing a persistent Store; modeled
// after this project's materials repo pattern (one struct per table,
// plain gorm.Open/AutoMigrate, no migrations framework), adapted onto
// sqlite so the document store requires no external service.
type fileRecordModel struct {
	FileID          string            `gorm:"primaryKey;column:file_id"`
	OriginalName    string            `gorm:"column:original_name"`
	StorageURI      string            `gorm:"column:storage_uri"`
	Modality        string            `gorm:"column:modality"`
	Collection      string            `gorm:"column:collection;index"`
	DescriptiveText string            `gorm:"column:descriptive_text"`
	SummaryPreview  string            `gorm:"column:summary_preview"`
	SizeBytes       int64             `gorm:"column:size_bytes"`
	Extra           datatypes.JSONMap `gorm:"column:extra"`
	CreatedAtUnix   int64             `gorm:"column:created_at_unix"`
	UpdatedAtUnix   int64             `gorm:"column:updated_at_unix"`
}

func (fileRecordModel) TableName() string { return "file_records" }

// GormStore is the persistent backend; cmd/server selects it whenever
// MONGO_URI is set (the URI value itself is not used; the database file
// lives under the storage root). gorm.io/driver/sqlite is the embedded default instead
// of an external Mongo/Postgres service, matching this layer's
// "MONGO_URI unset ⇒ in-memory" degrade path in spirit: this store is
// still file-backed with zero network dependency.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens (creating if missing) a sqlite database at path
// and migrates the file_records table.
func NewGormStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("docstore: open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&fileRecordModel{}); err != nil {
		return nil, fmt.Errorf("docstore: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

var _ Store = (*GormStore)(nil)

func (g *GormStore) Upsert(ctx context.Context, in FileRecordInput) (FileRecord, error) {
	var existing fileRecordModel
	err := g.db.WithContext(ctx).Where("file_id = ?", in.FileID).First(&existing).Error
	now := time.Now().Unix()

	row := fileRecordModel{
		FileID:          in.FileID,
		OriginalName:    in.OriginalName,
		StorageURI:      in.StorageURI,
		Modality:        in.Modality,
		Collection:      in.Collection,
		DescriptiveText: in.DescriptiveText,
		SummaryPreview:  in.SummaryPreview,
		SizeBytes:       in.SizeBytes,
		Extra:           datatypes.JSONMap(in.Extra),
		CreatedAtUnix:   now,
		UpdatedAtUnix:   now,
	}

	if err == nil {
		row.OriginalName = existing.OriginalName
		row.SizeBytes = existing.SizeBytes
		row.CreatedAtUnix = existing.CreatedAtUnix
		row.Extra = mergeExtraJSON(existing.Extra, in.Extra)
		if row.StorageURI == "" {
			row.StorageURI = existing.StorageURI
		}
		if row.Modality == "" {
			row.Modality = existing.Modality
		}
		if row.Collection == "" {
			row.Collection = existing.Collection
		}
	} else if err != gorm.ErrRecordNotFound {
		return FileRecord{}, fmt.Errorf("docstore: lookup: %w", err)
	}

	if saveErr := g.db.WithContext(ctx).Save(&row).Error; saveErr != nil {
		return FileRecord{}, fmt.Errorf("docstore: save: %w", saveErr)
	}
	return toFileRecord(row), nil
}

func mergeExtraJSON(oldExtra, newExtra datatypes.JSONMap) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range oldExtra {
		out[k] = v
	}
	for k, v := range newExtra {
		out[k] = v
	}
	return out
}

func toFileRecord(row fileRecordModel) FileRecord {
	return FileRecord{
		FileID:          row.FileID,
		OriginalName:    row.OriginalName,
		StorageURI:      row.StorageURI,
		Modality:        row.Modality,
		Collection:      row.Collection,
		DescriptiveText: row.DescriptiveText,
		SummaryPreview:  row.SummaryPreview,
		SizeBytes:       row.SizeBytes,
		Extra:           map[string]any(row.Extra),
		CreatedAtUnix:   row.CreatedAtUnix,
		UpdatedAtUnix:   row.UpdatedAtUnix,
	}
}

func (g *GormStore) FindByKey(ctx context.Context, fileID string) (FileRecord, bool, error) {
	var row fileRecordModel
	err := g.db.WithContext(ctx).Where("file_id = ?", fileID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return FileRecord{}, false, nil
	}
	if err != nil {
		return FileRecord{}, false, fmt.Errorf("docstore: find: %w", err)
	}
	return toFileRecord(row), true, nil
}

func (g *GormStore) FindBySubstring(ctx context.Context, terms []string, limit int) ([]ScoredRecord, error) {
	var rows []fileRecordModel
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("docstore: scan: %w", err)
	}

	var hits []ScoredRecord
	for _, row := range rows {
		hay := strings.ToLower(row.DescriptiveText + " " + row.SummaryPreview + " " + row.OriginalName)
		score := 0
		for _, t := range terms {
			if t == "" {
				continue
			}
			score += strings.Count(hay, t)
		}
		if score > 0 {
			hits = append(hits, ScoredRecord{Record: toFileRecord(row), Score: score})
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

func (g *GormStore) All(ctx context.Context) ([]FileRecord, error) {
	var rows []fileRecordModel
	if err := g.db.WithContext(ctx).Order("file_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("docstore: all: %w", err)
	}
	out := make([]FileRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toFileRecord(row))
	}
	return out, nil
}

func (g *GormStore) Collections(ctx context.Context) ([]string, error) {
	var cols []string
	if err := g.db.WithContext(ctx).Model(&fileRecordModel{}).
		Distinct().Pluck("collection", &cols).Error; err != nil {
		return nil, fmt.Errorf("docstore: collections: %w", err)
	}
	sort.Strings(cols)
	return cols, nil
}
