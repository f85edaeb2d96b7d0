package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"github.com/buildwise/buildwise/backend-go/internal/auth"
	"github.com/buildwise/buildwise/backend-go/internal/canvas"
	"github.com/buildwise/buildwise/backend-go/internal/document"
)

// Handler serves the canvas export endpoint and the download directory.
type Handler struct {
	canvases  *canvas.Service
	documents *document.Service
	renderer  *Renderer
	dir       string
}

func NewHandler(canvases *canvas.Service, documents *document.Service, renderer *Renderer, dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create export dir", "error", err, "dir", dir)
	}
	return &Handler{canvases: canvases, documents: documents, renderer: renderer, dir: dir}
}

type exportRequest struct {
	Format     string `json:"format"`      // png (default) or pdf
	Area       string `json:"area"`        // full (default) or selected
	AreaID     string `json:"area_id"`     // required for selected
	ExportType string `json:"export_type"` // download (default) or document
}

// exportResponse mirrors the shape clients already consume: a rendering
// problem is reported as success=false rather than an HTTP error, and no
// stored state is touched either way.
type exportResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FileURL    string `json:"file_url,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	canvasID := mux.Vars(r)["canvasId"]

	req := exportRequest{Format: "png", Area: "full", ExportType: "download"}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}
	if req.Format != "png" && req.Format != "pdf" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be png or pdf"})
		return
	}
	if req.Area != "full" && req.Area != "selected" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "area must be full or selected"})
		return
	}

	c, err := h.canvases.Get(r.Context(), canvasID, userID)
	if err != nil {
		handleCanvasError(w, err)
		return
	}

	state, err := h.canvases.LoadState(r.Context(), canvasID, userID)
	if err != nil {
		handleCanvasError(w, err)
		return
	}

	data, err := h.renderer.Render(state, Options{
		Format: req.Format,
		Scope:  req.Area,
		AreaID: req.AreaID,
	})
	if err != nil {
		writeJSON(w, http.StatusOK, exportResponse{
			Success: false,
			Message: fmt.Sprintf("export failed: %v", err),
		})
		return
	}

	if req.ExportType == "document" {
		doc, err := h.documents.SaveExport(r.Context(), c.ProjectID, userID, c.Name, req.Format, data)
		if err != nil {
			slog.Error("save export document", "error", err)
			writeJSON(w, http.StatusOK, exportResponse{
				Success: false,
				Message: fmt.Sprintf("export failed: %v", err),
			})
			return
		}
		writeJSON(w, http.StatusOK, exportResponse{
			Success:    true,
			Message:    "canvas saved as document",
			DocumentID: doc.ID,
		})
		return
	}

	fileName := fmt.Sprintf("canvas_%s_%s.%s", canvasID, time.Now().Format("20060102_150405"), req.Format)
	if err := os.WriteFile(filepath.Join(h.dir, fileName), data, 0644); err != nil {
		slog.Error("write export file", "error", err)
		writeJSON(w, http.StatusOK, exportResponse{
			Success: false,
			Message: fmt.Sprintf("export failed: %v", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, exportResponse{
		Success: true,
		Message: "export complete",
		FileURL: "/exports/" + fileName,
	})
}

// Serve returns a handler for the export download directory. File names
// embed a timestamp, so exported files never change once written.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/exports/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

func handleCanvasError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, canvas.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, canvas.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		slog.Error("canvas error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
