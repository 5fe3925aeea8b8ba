package classifier

import "testing"

func TestDetectModalityByExtension(t *testing.T) {
	cases := []struct {
		name       string
		wantMedia  bool
		wantModals string
	}{
		{"photo.JPG", true, "image"},
		{"clip.mp4", true, "video"},
		{"song.mp3", true, "audio"},
		{"report.pdf", false, "text"},
		{"unknownformat.xyz", false, "text"},
	}
	for _, c := range cases {
		isMedia, modality := DetectModality(c.name)
		if isMedia != c.wantMedia || string(modality) != c.wantModals {
			t.Fatalf("%s: want=(%v,%s) got=(%v,%s)", c.name, c.wantMedia, c.wantModals, isMedia, modality)
		}
	}
}

func TestClassifyMediaFileSkipsScoring(t *testing.T) {
	report := Classify("video.mp4", nil)
	if !report.IsMedia {
		t.Fatalf("expected IsMedia true")
	}
	if report.SQLScore != 0 || report.NoSQLScore != 0 {
		t.Fatalf("expected no scoring on a media file, got sql=%d nosql=%d", report.SQLScore, report.NoSQLScore)
	}
}

func TestClassifyCSVScoresSQL(t *testing.T) {
	csv := []byte("id,name,age\n1,alice,30\n2,bob,31\n3,carol,29\n")
	report := Classify("table.csv", csv)
	if report.IsMedia {
		t.Fatalf("csv should not be classified as media")
	}
	if report.Classification != "SQL" {
		t.Fatalf("expected SQL classification, got %s with reasons %v", report.Classification, report.Reasons)
	}
	if report.SQLScore <= report.NoSQLScore {
		t.Fatalf("expected sql score to dominate: sql=%d nosql=%d", report.SQLScore, report.NoSQLScore)
	}
}

func TestClassifyNestedJSONScoresNoSQL(t *testing.T) {
	doc := []byte(`{"user": {"name": "alice", "address": {"city": "nyc", "zip": "10001"}}, "tags": ["a", "b"]}`)
	report := Classify("doc.json", doc)
	if report.Classification != "NoSQL" {
		t.Fatalf("expected NoSQL classification, got %s with reasons %v", report.Classification, report.Reasons)
	}
}

func TestClassifyConfidenceIsBoundedAndNonNegative(t *testing.T) {
	doc := []byte(`{"a": 1, "b": 2}`)
	report := Classify("flat.json", doc)
	if report.Confidence < 0 || report.Confidence > 1 {
		t.Fatalf("confidence out of bounds: %v", report.Confidence)
	}
}

func TestClassifyAddingNestedFieldNeverIncreasesSQLScore(t *testing.T) {
	flatArray := []byte(`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`)
	nestedArray := []byte(`[{"id": 1, "name": "a", "meta": {"k": "v"}}, {"id": 2, "name": "b"}]`)

	flat := Classify("a.json", flatArray)
	nested := Classify("b.json", nestedArray)

	if nested.SQLScore > flat.SQLScore {
		t.Fatalf("nesting should never raise the sql score: flat=%d nested=%d", flat.SQLScore, nested.SQLScore)
	}
}
