package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plc-assistant/backend/internal/importer"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/storage"
)

type uploadPart struct {
	name    string
	content string
}

func multipartBody(t *testing.T, kind string, parts ...uploadPart) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if kind != "" {
		require.NoError(t, writer.WriteField("kind", kind))
	}
	for _, p := range parts {
		part, err := writer.CreateFormFile("file", p.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, kind string, parts ...uploadPart) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, kind, parts...)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func waitJob(t *testing.T, ts *testServer, id string) importer.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := ts.imports.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestImportHandler_ReplacesCollection(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "comments",
		uploadPart{"plant_comments.csv", "X5,start button\nY6,alarm lamp\n"},
	)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	started := decode[map[string]interface{}](t, rec)
	jobID, _ := started["jobId"].(string)
	require.NotEmpty(t, jobID)

	job := waitJob(t, ts, jobID)
	assert.Equal(t, importer.StatusComplete, job.Status)
	require.NotNil(t, job.Report)
	assert.Equal(t, 2, job.Report.Imported)

	_, ok := ts.store.TryGetComment("M10")
	assert.False(t, ok, "previous comments are replaced")
	comment, ok := ts.store.TryGetComment("X5")
	require.True(t, ok)
	assert.Equal(t, "start button", comment)
	assert.Equal(t, 1, ts.store.Stats().Programs, "other collections are untouched")

	rec = ts.do(t, http.MethodGet, "/api/import/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"complete"`)

	rec = ts.do(t, http.MethodGet, "/api/files", "")
	require.Equal(t, http.StatusOK, rec.Code)
	files := decode[[]models.FileInfo](t, rec)
	require.Len(t, files, 1)
	assert.Equal(t, "plant_comments.csv", files[0].Name)
	assert.Equal(t, storage.StatusImported, files[0].Status)
}

func TestImportHandler_Programs(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "programs",
		uploadPart{"SUB.csv", "0,,LD,X9\n1,,OUT,Y9\n"},
		uploadPart{"ALARM.csv", "0,,OUT,L1\n"},
	)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	jobID, _ := decode[map[string]interface{}](t, rec)["jobId"].(string)

	job := waitJob(t, ts, jobID)
	require.Equal(t, importer.StatusComplete, job.Status, job.Error)

	_, ok := ts.store.Program("MAIN")
	assert.False(t, ok)
	sub, ok := ts.store.Program("SUB")
	require.True(t, ok)
	assert.Len(t, sub.Lines, 2)

	rec = ts.do(t, http.MethodGet, "/api/import", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]importer.Job](t, rec), 1)
}

func TestImportHandler_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		kind     string
		parts    []uploadPart
		wantCode string
	}{
		{"missing kind", "", []uploadPart{{"a.csv", "M1,x\n"}}, "VALIDATION_ERROR"},
		{"unknown kind", "ladders", []uploadPart{{"a.csv", "M1,x\n"}}, "BAD_REQUEST"},
		{"no file", "comments", nil, "VALIDATION_ERROR"},
		{"disallowed extension", "comments", []uploadPart{{"a.exe", "MZ"}}, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.upload(t, tt.kind, tt.parts...)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decode[APIError](t, rec).Code)
		})
	}
	assert.Zero(t, ts.files.GetFileCount(), "rejected uploads are not stored")
}

func TestImportHandler_SaveFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.files.SaveErr = errors.New("disk full")

	rec := ts.upload(t, "comments", uploadPart{"a.csv", "M1,x\n"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Equal(t, "disk full", apiErr.Details)
}

func TestImportHandler_JobLookup(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/import/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/import/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.upload(t, "comments", uploadPart{"a.csv", "M1,x\n"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID, _ := decode[map[string]interface{}](t, rec)["jobId"].(string)
	waitJob(t, ts, jobID)

	rec = ts.do(t, http.MethodDelete, "/api/import/"+jobID, "")
	assert.Equal(t, http.StatusConflict, rec.Code, "finished jobs cannot be cancelled")
}

func TestImportHandler_ListFilesLimit(t *testing.T) {
	ts := newTestServer(t)
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := ts.files.AddFile(name, []byte("M1,x\n"))
		require.NoError(t, err)
	}

	rec := ts.do(t, http.MethodGet, "/api/files?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.FileInfo](t, rec), 2)

	rec = ts.do(t, http.MethodGet, "/api/files?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
