package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/ops"
	"github.com/ponpaku/creators-file-manager/internal/settings"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := settings.NewStoreAt(filepath.Join(t.TempDir(), "settings.json"))
	server := NewServer(ops.New(ops.WithWorkers(1)), store)
	server.SetVersion("test")
	return server
}

func postJSON(t *testing.T, server *Server, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleVersion(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "test", resp["version"])
}

func TestHandleCancel(t *testing.T) {
	server := newTestServer(t)
	executor.ClearCancel()
	t.Cleanup(executor.ClearCancel)

	rec := postJSON(t, server, "/api/cancel", map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, executor.CancelRequested())
}

func TestRenamePreview_InvalidRequestReturns400(t *testing.T) {
	server := newTestServer(t)

	rec := postJSON(t, server, "/api/rename/preview", types.RenameRequest{
		InputPaths: []string{t.TempDir()},
		Template:   "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	require.Equal(t, string(ops.KindInvalidRequest), apiErr.Kind)
	require.NotEmpty(t, apiErr.Message)
}

func TestRenamePreview_Succeeds(t *testing.T) {
	server := newTestServer(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.jpg"), []byte("x"), 0644))

	rec := postJSON(t, server, "/api/rename/preview", types.RenameRequest{
		InputPaths: []string{tmpDir},
		Template:   "{orig}_new",
		Source:     types.SourceModifiedOnly,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.RenamePreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Ready)
	require.FileExists(t, filepath.Join(tmpDir, "a.jpg"), "preview must not mutate")
}

func TestSettingsRoundTrip(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded types.AppSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	require.Equal(t, types.ThemeSystem, loaded.Theme)

	loaded.Theme = types.ThemeDark
	rec = postJSON(t, server, "/api/settings", loaded)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTemplateTagsEndpoint(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/rename/tags", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var tags []types.TemplateTag
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))
	require.NotEmpty(t, tags)
}
