// Package web exposes the engine over HTTP: preview/execute endpoints per
// operation, settings CRUD, a cancel endpoint, and a websocket streaming
// progress events to the UI shell.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ponpaku/creators-file-manager/internal/ops"
	"github.com/ponpaku/creators-file-manager/internal/settings"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type Server struct {
	router  *mux.Router
	hub     *Hub
	engine  *ops.Engine
	store   *settings.Store
	version string
}

func NewServer(engine *ops.Engine, store *settings.Store) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		hub:     NewHub(),
		engine:  engine,
		store:   store,
		version: "unknown",
	}

	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) SetVersion(v string) {
	s.version = v
}

// BroadcastProgress forwards a progress event to websocket subscribers.
// Wire it as the engine's progress sink.
func (s *Server) BroadcastProgress(event types.OperationProgressEvent) {
	s.broadcastJSON(map[string]any{"type": "operation-progress", "event": event})
}

// BroadcastEstimateProgress forwards compress estimate progress.
func (s *Server) BroadcastEstimateProgress(event types.EstimateProgressEvent) {
	s.broadcastJSON(map[string]any{"type": "compress-estimate-progress", "event": event})
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods("GET")
	api.HandleFunc("/cancel", s.handleCancel).Methods("POST")
	api.HandleFunc("/ws", s.handleWebSocket)

	api.HandleFunc("/rename/preview", s.handleRenamePreview).Methods("POST")
	api.HandleFunc("/rename/execute", s.handleRenameExecute).Methods("POST")
	api.HandleFunc("/rename/tags", s.handleTemplateTags).Methods("GET")
	api.HandleFunc("/delete/preview", s.handleDeletePreview).Methods("POST")
	api.HandleFunc("/delete/execute", s.handleDeleteExecute).Methods("POST")
	api.HandleFunc("/compress/preview", s.handleCompressPreview).Methods("POST")
	api.HandleFunc("/compress/execute", s.handleCompressExecute).Methods("POST")
	api.HandleFunc("/compress/info", s.handleCompressInfo).Methods("POST")
	api.HandleFunc("/compress/estimate", s.handleCompressEstimate).Methods("POST")
	api.HandleFunc("/flatten/preview", s.handleFlattenPreview).Methods("POST")
	api.HandleFunc("/flatten/execute", s.handleFlattenExecute).Methods("POST")
	api.HandleFunc("/exif-offset/preview", s.handleExifOffsetPreview).Methods("POST")
	api.HandleFunc("/exif-offset/execute", s.handleExifOffsetExecute).Methods("POST")
	api.HandleFunc("/metadata-strip/preview", s.handleStripPreview).Methods("POST")
	api.HandleFunc("/metadata-strip/execute", s.handleStripExecute).Methods("POST")

	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleSaveSettings).Methods("POST")
	api.HandleFunc("/settings/export", s.handleExportSettings).Methods("POST")
	api.HandleFunc("/settings/import", s.handleImportSettings).Methods("POST")
	api.HandleFunc("/settings/import-preview", s.handleImportPreview).Methods("POST")
}

func (s *Server) Start(addr string) error {
	fmt.Printf("creators-file-manager engine listening on http://%s\n", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) broadcastJSON(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case s.hub.broadcast <- data:
	default:
	}
}
