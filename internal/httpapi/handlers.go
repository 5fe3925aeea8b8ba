package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/brinkfield/multicore/internal/ingest"
	"github.com/brinkfield/multicore/internal/platform/apierr"
	"github.com/brinkfield/multicore/internal/platform/ctxutil"
	"github.com/brinkfield/multicore/internal/platform/logger"
	"github.com/brinkfield/multicore/internal/storage"
)

const maxUploadBytes = 1 << 30 // 1 GiB per file

// scopedLog returns s.Log scoped to the request ID requestTrace stamped
// into ctx, so every log line a handler emits can be correlated back
// to the X-Request-Id it returned to the caller.
func (s *Server) scopedLog(ctx context.Context) *logger.Logger {
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		return s.Log.With("request_id", td.RequestID)
	}
	return s.Log
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		apiErr := apierr.New(http.StatusBadRequest, apierr.CodeUnsupportedType, errors.New("invalid multipart form: "+err.Error()))
		s.scopedLog(r.Context()).Warn("upload rejected", "error", apiErr.Error())
		writeAPIErr(w, apiErr)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		apiErr := apierr.New(http.StatusBadRequest, apierr.CodeUnsupportedType, errors.New("no files provided"))
		s.scopedLog(r.Context()).Warn("upload rejected", "error", apiErr.Error())
		writeAPIErr(w, apiErr)
		return
	}

	var inputs []ingest.InputFile
	for _, fh := range headers {
		in, err := stageUpload(fh)
		if err != nil {
			s.scopedLog(r.Context()).With("original_name", fh.Filename).Warn("stage upload failed", "error", err.Error())
			continue
		}
		defer os.Remove(in.Path)
		inputs = append(inputs, in)
	}

	result := s.Coordinator.ProcessBatch(r.Context(), inputs, nil)
	writeJSON(w, http.StatusOK, uploadResponse{
		Success:       true,
		Message:       "ingested " + strconv.Itoa(result.TotalFiles) + " file(s)",
		DatabaseState: s.currentDatabaseState(r.Context()),
	})
}

func stageUpload(fh *multipart.FileHeader) (ingest.InputFile, error) {
	f, err := fh.Open()
	if err != nil {
		return ingest.InputFile{}, err
	}
	defer f.Close()

	tmp, err := os.CreateTemp("", "upload_*"+filepath.Ext(fh.Filename))
	if err != nil {
		return ingest.InputFile{}, err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, io.LimitReader(f, maxUploadBytes)); err != nil {
		os.Remove(tmp.Name())
		return ingest.InputFile{}, err
	}

	return ingest.ResolveUpload(tmp.Name(), fh.Filename)
}

func (s *Server) handleDatabaseState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentDatabaseState(r.Context()))
}

func (s *Server) currentDatabaseState(ctx context.Context) databaseState {
	collections, _ := s.DocStore.Collections(ctx)
	if collections == nil {
		collections = []string{}
	}
	return databaseState{
		Tables:           []string{},
		Collections:      collections,
		MediaDirectories: s.mediaDirectories(),
	}
}

func (s *Server) mediaDirectories() []string {
	dirs := []string{}
	for _, modality := range []string{"image", "video", "audio"} {
		root := filepath.Join(s.Storage.Root(), modality)
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.ToSlash(filepath.Join(modality, e.Name())))
			}
		}
	}
	sort.Strings(dirs)
	return dirs
}

func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	records, err := s.DocStore.All(r.Context())
	if err == nil && len(records) > 0 {
		writeJSON(w, http.StatusOK, buildTreeFromRecords(records))
		return
	}
	writeJSON(w, http.StatusOK, buildTreeFromStorage(s.Storage.Root()))
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k := 10
	if v := r.URL.Query().Get("k"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			k = parsed
		}
	}
	s.respondSearch(w, r, q, k, r.URL.Query().Get("modality"))
}

type semanticSearchRequest struct {
	Query    string `json:"query" validate:"required"`
	K        int    `json:"k" validate:"gte=0"`
	Modality string `json:"modality"`
}

func (s *Server) handleSearchSemantic(w http.ResponseWriter, r *http.Request) {
	var req semanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErr := apierr.New(http.StatusBadRequest, apierr.CodeQueryFailed, errors.New("invalid request body"))
		s.scopedLog(r.Context()).Warn("search request rejected", "error", apiErr.Error())
		writeAPIErr(w, apiErr)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		apiErr := apierr.New(http.StatusBadRequest, apierr.CodeQueryFailed, err)
		s.scopedLog(r.Context()).Warn("search request rejected", "error", apiErr.Error())
		writeAPIErr(w, apiErr)
		return
	}
	if req.K <= 0 {
		req.K = 10
	}
	s.respondSearch(w, r, req.Query, req.K, req.Modality)
}

func (s *Server) respondSearch(w http.ResponseWriter, r *http.Request, query string, k int, modality string) {
	result := s.Searcher.Search(r.Context(), query, k, modality)
	hits := make([]searchHit, 0, len(result.Results))
	for _, h := range result.Results {
		hits = append(hits, searchHit{
			ID:         h.ID,
			Text:       h.Description,
			Modality:   string(h.Modality),
			Similarity: h.Similarity,
			Metadata:   h.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Results: hits, Source: result.Source})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	abs, err := storage.ResolveDownloadPath(s.Storage.Root(), rel)
	if err != nil {
		apiErr := apierr.New(http.StatusBadRequest, apierr.CodeInvalidPath, err)
		s.scopedLog(r.Context()).Warn("download rejected", "error", apiErr.Error())
		writeAPIErr(w, apiErr)
		return
	}
	http.ServeFile(w, r, abs)
}

// writeAPIErr answers the request with apiErr's Status and renders its
// Code and its cause's message (apiErr.Err.Error(), without the code
// prefix) into the same error body shape every handler returns.
func writeAPIErr(w http.ResponseWriter, apiErr *apierr.Error) {
	writeJSON(w, apiErr.Status, map[string]any{
		"success": false,
		"error":   apiErr.Err.Error(),
		"code":    apiErr.Code,
	})
}
