// handlers_import.go - File upload and import job handlers
package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/plc-assistant/backend/internal/importer"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/storage"
)

// ImportHandlerImpl implements the ImportHandler interface
type ImportHandlerImpl struct {
	files       storage.Store
	imports     *importer.Manager
	allowedExts map[string]struct{}
}

// NewImportHandler creates a new import handler. An empty allowedExts
// accepts any file extension.
func NewImportHandler(files storage.Store, imports *importer.Manager, allowedExts []string) ImportHandler {
	h := &ImportHandlerImpl{
		files:   files,
		imports: imports,
	}
	if len(allowedExts) > 0 {
		h.allowedExts = make(map[string]struct{}, len(allowedExts))
		for _, ext := range allowedExts {
			h.allowedExts[strings.ToLower(ext)] = struct{}{}
		}
	}
	return h
}

// startImportRequest is the multipart form of POST /api/import
type startImportRequest struct {
	Kind  models.ImportKind
	Files []*multipart.FileHeader
}

func (r *startImportRequest) validate(allowed map[string]struct{}) error {
	if r.Kind == "" {
		return NewValidationError("kind")
	}
	if !r.Kind.Valid() {
		return NewBadRequestError(fmt.Sprintf("unknown import kind %q", r.Kind), nil)
	}
	if len(r.Files) == 0 {
		return NewValidationError("file")
	}
	if allowed == nil {
		return nil
	}
	for _, fh := range r.Files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if _, ok := allowed[ext]; !ok {
			return NewBadRequestError(fmt.Sprintf("file type not allowed: %s", fh.Filename), nil)
		}
	}
	return nil
}

// HandleStartImport stores the uploaded files and starts an import job
func (h *ImportHandlerImpl) HandleStartImport(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form", err)
	}

	req := startImportRequest{
		Kind:  models.ImportKind(strings.TrimSpace(c.FormValue("kind"))),
		Files: form.File["file"],
	}
	if err := req.validate(h.allowedExts); err != nil {
		return err
	}

	ids := make([]string, 0, len(req.Files))
	for _, fh := range req.Files {
		info, err := h.saveUpload(fh)
		if err != nil {
			h.discard(ids)
			return NewInternalError("failed to save file", err)
		}
		ids = append(ids, info.ID)
	}

	job, err := h.imports.StartJob(req.Kind, ids)
	if err != nil {
		h.discard(ids)
		return NewInternalError("failed to start import", err)
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"jobId":  job.ID,
		"status": job.Status,
		"files":  job.Files,
	})
}

func (h *ImportHandlerImpl) saveUpload(fh *multipart.FileHeader) (*models.FileInfo, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return h.files.Save(fh.Filename, src)
}

func (h *ImportHandlerImpl) discard(ids []string) {
	for _, id := range ids {
		_ = h.files.Delete(id)
	}
}

// HandleListImports returns every known job, newest first
func (h *ImportHandlerImpl) HandleListImports(c echo.Context) error {
	return c.JSON(http.StatusOK, h.imports.ListJobs())
}

// HandleGetImport returns one job
func (h *ImportHandlerImpl) HandleGetImport(c echo.Context) error {
	id := c.Param("jobId")
	job, ok := h.imports.GetJob(id)
	if !ok {
		return NewNotFoundError("import job", id)
	}
	return c.JSON(http.StatusOK, job)
}

// HandleCancelImport cancels a running job
func (h *ImportHandlerImpl) HandleCancelImport(c echo.Context) error {
	id := c.Param("jobId")
	switch err := h.imports.CancelJob(id); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, importer.ErrJobNotFound):
		return NewNotFoundError("import job", id)
	case errors.Is(err, importer.ErrJobFinished):
		return NewConflictError("import job already finished")
	default:
		return NewInternalError("failed to cancel import", err)
	}
}

// HandleListFiles returns the uploaded files, newest first. ?limit= caps the list.
func (h *ImportHandlerImpl) HandleListFiles(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.files.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.FileInfo{}
	}
	return c.JSON(http.StatusOK, files)
}
