// Package classifier implements the two-stage file triage: media-vs-text
// by extension, then (for non-media files) a weighted SQL-vs-NoSQL
// structural score. This is the repo's one canonical classification
// entry point — there is no second orchestration layered on top of it.
package classifier

import (
	"path/filepath"
	"strings"

	"github.com/brinkfield/multicore/internal/domain"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".gif": true, ".webp": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".ogg": true, ".m4a": true,
}

// textLikeExts covers the extensions with a known document/tabular
// parser; anything else still routes through the text branch (unknown
// extensions are treated as text), it just skips the per-format
// scoring signals below.
var textLikeExts = map[string]bool{
	".pdf": true, ".docx": true, ".txt": true, ".md": true, ".log": true,
	".json": true, ".csv": true, ".xml": true, ".yaml": true, ".yml": true,
	".html": true, ".ini": true, ".cfg": true, ".conf": true,
}

// DetectModality performs stage one: media detection by extension.
// Unknown extensions fall through to text, never to "unknown" — that
// value is reserved for callers that skip classification entirely.
func DetectModality(name string) (isMedia bool, modality domain.Modality) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExts[ext]:
		return true, domain.ModalityImage
	case videoExts[ext]:
		return true, domain.ModalityVideo
	case audioExts[ext]:
		return true, domain.ModalityAudio
	default:
		return false, domain.ModalityText
	}
}

// Classify runs both stages and returns the full decision trail. content
// is the already-extracted text (or, for structured formats, the raw
// bytes as a string) used for the SQL/NoSQL scoring signals; it may be
// empty for a media file, in which case only stage one applies.
func Classify(name string, content []byte) domain.ClassificationReport {
	isMedia, modality := DetectModality(name)
	report := domain.ClassificationReport{IsMedia: isMedia, Modality: modality}
	if isMedia {
		return report
	}

	ext := strings.ToLower(filepath.Ext(name))
	sql, nosql, reasons := score(ext, content)

	report.SQLScore = sql
	report.NoSQLScore = nosql
	report.Reasons = reasons
	if sql >= nosql {
		report.Classification = "SQL"
	} else {
		report.Classification = "NoSQL"
	}
	denom := sql
	if nosql > denom {
		denom = nosql
	}
	if denom < 1 {
		denom = 1
	}
	diff := sql - nosql
	if diff < 0 {
		diff = -diff
	}
	report.Confidence = float64(diff) / float64(denom)
	return report
}
