package httpapi

import (
	"encoding/json"
	"io"
)

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

type uploadResponse struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message,omitempty"`
	Error         string        `json:"error,omitempty"`
	Code          string        `json:"code,omitempty"`
	DatabaseState databaseState `json:"databaseState"`
}

type databaseState struct {
	Tables           []string `json:"tables"`
	Collections      []string `json:"collections"`
	MediaDirectories []string `json:"mediaDirectories"`
}

type searchResponse struct {
	Success bool        `json:"success"`
	Results []searchHit `json:"results"`
	Source  string      `json:"source"`
}

type searchHit struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Modality   string         `json:"modality"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata"`
}

type treeNode struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Children    []treeNode     `json:"children,omitempty"`
	Size        *int64         `json:"size,omitempty"`
	MimeType    string         `json:"mimeType,omitempty"`
	StoragePath string         `json:"storagePath,omitempty"`
}
