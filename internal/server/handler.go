// Package server exposes the dedupe pipeline over HTTP: one upload endpoint
// that runs a file through the pipeline, and one download endpoint that
// streams the resulting artifacts back.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/fielddata/visitdedupe/internal/dedupe"
	"github.com/fielddata/visitdedupe/internal/export"
	"github.com/fielddata/visitdedupe/internal/ingest"
	"github.com/fielddata/visitdedupe/internal/schema"
	"github.com/fielddata/visitdedupe/internal/table"
)

// Handler serves upload and download requests for dedupe runs.
type Handler struct {
	schema         schema.Schema
	store          *export.Store
	maxUploadBytes int64
}

// NewHTTPHandler wires the pipeline behind its HTTP surface.
func NewHTTPHandler(s schema.Schema, store *export.Store, maxUploadBytes int64) http.Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{schema: s, store: store, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/files/"):
		h.handleDownload(w, r)
	case r.Method == http.MethodPost:
		h.handleUpload(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type fileInfo struct {
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	DownloadURL string `json:"downloadUrl"`
}

type runResponse struct {
	RunID    string       `json:"runId"`
	FileName string       `json:"fileName"`
	Stats    dedupe.Stats `json:"stats"`
	Summary  string       `json:"summary"`
	Files    []fileInfo   `json:"files"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	parsed, err := ingest.Parse(header.Filename, payload)
	if err != nil {
		http.Error(w, fmt.Sprintf("could not read file as tabular data: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.runPipeline(parsed)
	if err != nil {
		log.Printf("[dedupe] run failed for %s: %v", header.Filename, err)
		http.Error(w, "processing failed, no output produced", http.StatusInternalServerError)
		return
	}

	artifacts, err := export.Package(header.Filename, result)
	if err != nil {
		log.Printf("[export] packaging failed for %s: %v", header.Filename, err)
		http.Error(w, "processing failed, no output produced", http.StatusInternalServerError)
		return
	}

	run := h.store.Put(header.Filename, result.Stats, artifacts)
	log.Printf("[dedupe] run %s completed (before=%d after=%d removed=%d)",
		run.ID, run.Stats.RowsBefore, run.Stats.RowsAfter, run.Stats.Removed)

	files := make([]fileInfo, 0, len(run.Artifacts))
	for _, artifact := range run.Artifacts {
		files = append(files, fileInfo{
			Name:        artifact.Name,
			MimeType:    artifact.MimeType,
			DownloadURL: h.store.DownloadURL(run.ID, artifact.Name),
		})
	}

	summary := fmt.Sprintf("Total rows: %d. After dedupe: %d. Duplicates removed: %d.",
		run.Stats.RowsBefore, run.Stats.RowsAfter, run.Stats.Removed)
	writeJSON(w, http.StatusOK, runResponse{
		RunID:    run.ID.String(),
		FileName: run.FileName,
		Stats:    run.Stats,
		Summary:  summary,
		Files:    files,
	})
}

// runPipeline executes one run and converts any unanticipated panic into an
// error so a failed run produces no artifacts at all.
func (h *Handler) runPipeline(t *table.Table) (result dedupe.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during pipeline run: %v", rec)
		}
	}()
	result = dedupe.Run(t, h.schema)
	return result, nil
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	runID, artifactName, err := parseDownloadPath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if err := h.store.ValidateDownloadToken(runID, artifactName, token); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	artifact, err := h.store.Artifact(runID, artifactName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	run, err := h.store.Get(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", artifact.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	http.ServeContent(w, r, artifact.Name, run.CreatedAt, bytes.NewReader(artifact.Data))
}

// parseDownloadPath expects .../files/{runID}/{artifact}.
func parseDownloadPath(path string) (uuid.UUID, string, error) {
	idx := strings.Index(path, "/files/")
	if idx == -1 {
		return uuid.Nil, "", fmt.Errorf("missing download path")
	}
	rest := strings.Trim(path[idx+len("/files/"):], "/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return uuid.Nil, "", fmt.Errorf("expected run identifier and artifact name")
	}
	runID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid run identifier: %w", err)
	}
	artifact, err := url.PathUnescape(parts[1])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid artifact name: %w", err)
	}
	return runID, artifact, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
