package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/ops"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type apiError struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *ops.AppError
	if errors.As(err, &appErr) {
		status := http.StatusBadRequest
		if appErr.Kind == ops.KindInternal {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, apiError{Message: appErr.Message, Kind: string(appErr.Kind)})
		return
	}
	writeJSON(w, http.StatusInternalServerError, apiError{Message: err.Error()})
}

func decode[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	req := new(T)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Message: err.Error()})
		return nil, false
	}
	return req, true
}

// executeMutex serializes execute calls: one mutating run at a time.
var executeMutex sync.Mutex

func runExclusive[T any](w http.ResponseWriter, fn func() (T, error)) {
	if !executeMutex.TryLock() {
		writeJSON(w, http.StatusConflict, apiError{Message: "an operation is already running"})
		return
	}
	defer executeMutex.Unlock()
	resp, err := fn()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	executor.RequestCancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTemplateTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ops.TemplateTags())
}

// ===== Operations =====

func (s *Server) handleRenamePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.RenameRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.PreviewRename(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRenameExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.RenameRequest](w, r)
	if !ok {
		return
	}
	runExclusive(w, func() (*types.RenameExecuteResponse, error) {
		return s.engine.ExecuteRename(req)
	})
}

func (s *Server) handleDeletePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.DeleteRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.PreviewDelete(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.DeleteRequest](w, r)
	if !ok {
		return
	}
	runExclusive(w, func() (*types.DeleteExecuteResponse, error) {
		return s.engine.ExecuteDelete(req)
	})
}

func (s *Server) handleCompressPreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.CompressRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.PreviewCompress(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompressExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.CompressRequest](w, r)
	if !ok {
		return
	}
	runExclusive(w, func() (*types.CompressExecuteResponse, error) {
		return s.engine.ExecuteCompress(req)
	})
}

type compressInfoRequest struct {
	InputPaths        []string `json:"inputPaths"`
	IncludeSubfolders bool     `json:"includeSubfolders"`
	ResizePercent     float64  `json:"resizePercent"`
	Quality           int      `json:"quality"`
}

func (s *Server) handleCompressInfo(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[compressInfoRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.CollectInfoCompress(req.InputPaths, req.IncludeSubfolders)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompressEstimate(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[compressInfoRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.EstimateCompress(req.InputPaths, req.IncludeSubfolders, req.ResizePercent, req.Quality)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlattenPreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.FlattenRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.PreviewFlatten(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlattenExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.FlattenRequest](w, r)
	if !ok {
		return
	}
	runExclusive(w, func() (*types.FlattenExecuteResponse, error) {
		return s.engine.ExecuteFlatten(req)
	})
}

func (s *Server) handleExifOffsetPreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.ExifOffsetRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.PreviewExifOffset(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExifOffsetExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.ExifOffsetRequest](w, r)
	if !ok {
		return
	}
	runExclusive(w, func() (*types.ExifOffsetExecuteResponse, error) {
		return s.engine.ExecuteExifOffset(req)
	})
}

func (s *Server) handleStripPreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.MetadataStripRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.engine.PreviewMetadataStrip(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStripExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.MetadataStripRequest](w, r)
	if !ok {
		return
	}
	runExclusive(w, func() (*types.MetadataStripExecuteResponse, error) {
		return s.engine.ExecuteMetadataStrip(req)
	})
}

// ===== Settings =====

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.store.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loaded)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[types.AppSettings](w, r)
	if !ok {
		return
	}
	if err := s.store.Save(req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type settingsTransferRequest struct {
	Path   string            `json:"path"`
	Mode   string            `json:"mode,omitempty"`
	Policy types.MergePolicy `json:"policy,omitempty"`
}

func (s *Server) handleExportSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[settingsTransferRequest](w, r)
	if !ok {
		return
	}
	if err := s.store.Export(req.Path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImportSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[settingsTransferRequest](w, r)
	if !ok {
		return
	}
	next, err := s.store.Import(req.Path, req.Mode, req.Policy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[settingsTransferRequest](w, r)
	if !ok {
		return
	}
	preview, err := s.store.PreviewImport(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
