// Package server implements the macrodoc preview server: documents are
// rendered on request against the current macro table, and connected
// browsers reload over websocket when a macro file or source changes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/macrodoc/macrodoc/internal/config"
	"github.com/macrodoc/macrodoc/internal/errors"
	"github.com/macrodoc/macrodoc/internal/logging"
	"github.com/macrodoc/macrodoc/internal/macro"
	"github.com/macrodoc/macrodoc/internal/renderer"
	"github.com/macrodoc/macrodoc/internal/scanner"
	"github.com/macrodoc/macrodoc/internal/watcher"
)

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves rendered documents with live reload capability
type PreviewServer struct {
	config       *config.Config
	logger       logging.Logger
	httpServer   *http.Server
	serverMutex  sync.RWMutex
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	scanner      *scanner.DocumentScanner
	watcher      *watcher.FileWatcher
	table        *macro.Table
	tableMutex   sync.RWMutex
	shutdownOnce sync.Once
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a new preview server
func New(cfg *config.Config, logger logging.Logger) (*PreviewServer, error) {
	fileWatcher, err := watcher.NewFileWatcher(300 * time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	s := &PreviewServer{
		config:     cfg,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		scanner:    scanner.NewDocumentScanner(cfg.Sources.Extensions, cfg.Sources.ExcludePatterns),
		watcher:    fileWatcher,
	}

	s.reloadMacros()
	return s, nil
}

// reloadMacros rebuilds the macro table from the configured paths and
// swaps it in atomically, so in-flight renders keep their table.
func (s *PreviewServer) reloadMacros() {
	table, warnings := macro.LoadAll(s.config.Macros.Paths, s.config.Macros.Builtin)
	for _, w := range warnings {
		s.logger.Warn(context.Background(), nil, w.String())
	}

	s.tableMutex.Lock()
	s.table = table
	s.tableMutex.Unlock()
}

func (s *PreviewServer) currentTable() *macro.Table {
	s.tableMutex.RLock()
	defer s.tableMutex.RUnlock()
	return s.table
}

// Start starts the preview server
func (s *PreviewServer) Start(ctx context.Context) error {
	s.setupFileWatcher(ctx)

	go s.runWebSocketHub(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/macros", s.handleMacros)
	mux.HandleFunc("/doc/", s.handleDocument)
	mux.HandleFunc("/", s.handleIndex)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Preview server listening", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the preview server gracefully
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if stopErr := s.watcher.Stop(); stopErr != nil {
			log.Printf("File watcher stop error: %v", stopErr)
		}

		s.serverMutex.RLock()
		srv := s.httpServer
		s.serverMutex.RUnlock()

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err = srv.Shutdown(shutdownCtx)
		}
	})
	return err
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.SourceFilter(s.config.Sources.Extensions))
	s.watcher.AddFilter(watcher.NoBackupFilter)
	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddHandler(s.handleFileChanges)

	for _, path := range s.config.Macros.Paths {
		if err := s.watcher.AddRecursive(path); err != nil {
			if pathErr := s.watcher.AddPath(path); pathErr != nil {
				s.logger.Warn(ctx, pathErr, "Cannot watch macro path", "path", path)
			}
		}
	}
	for _, path := range s.config.Sources.ScanPaths {
		if err := s.watcher.AddRecursive(path); err != nil {
			s.logger.Warn(ctx, err, "Cannot watch scan path", "path", path)
		}
	}

	if err := s.watcher.Start(ctx); err != nil {
		s.logger.Error(ctx, err, "Cannot start file watcher")
	}
}

func (s *PreviewServer) handleFileChanges(events []watcher.ChangeEvent) error {
	macroChanged := false
	for _, event := range events {
		s.logger.Debug(context.Background(), "File changed",
			"path", event.Path, "type", event.Type.String())
		if watcher.MacroFilter(event.Path) {
			macroChanged = true
		}
	}

	if macroChanged {
		s.reloadMacros()
	}

	if s.config.Development.HotReload {
		s.broadcastReload()
	}
	return nil
}

func (s *PreviewServer) broadcastReload() {
	message, err := json.Marshal(UpdateMessage{
		Type:      "full_reload",
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}

	select {
	case s.broadcast <- message:
	default:
		// No hub running or channel busy, drop the reload
	}
}

func (s *PreviewServer) newRenderer() *renderer.DocumentRenderer {
	return renderer.NewDocumentRenderer(s.currentTable(),
		renderer.WithMaxDepth(s.config.Expand.MaxDepth),
		renderer.WithLogger(s.logger),
	)
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"macros": s.currentTable().Count(),
	})
}

func (s *PreviewServer) handleMacros(w http.ResponseWriter, r *http.Request) {
	table := s.currentTable()

	type macroEntry struct {
		Name    string `json:"name"`
		Value   string `json:"value"`
		Builtin bool   `json:"builtin"`
	}

	entries := make([]macroEntry, 0, table.Count())
	for _, name := range table.Names() {
		value, _ := table.Lookup(name)
		entries = append(entries, macroEntry{
			Name:    name,
			Value:   value,
			Builtin: macro.IsBuiltin(name),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	docs, errs := s.scanner.ScanAll(s.config.Sources.ScanPaths)
	for _, err := range errs {
		s.logger.Warn(r.Context(), err, "Scan failed")
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>macrodoc</title></head>\n<body>\n")
	b.WriteString("<h1>Documents</h1>\n<ul>\n")
	for _, doc := range docs {
		name := html.EscapeString(doc.Name)
		fmt.Fprintf(&b, "<li><a href=\"/doc/%s\">%s</a></li>\n", name, name)
	}
	b.WriteString("</ul>\n")
	b.WriteString(s.reloadScript())
	b.WriteString("</body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, b.String())
}

func (s *PreviewServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/doc/")
	if name == "" || strings.Contains(name, "..") {
		http.Error(w, "invalid document name", http.StatusBadRequest)
		return
	}

	docs, _ := s.scanner.ScanAll(s.config.Sources.ScanPaths)
	var target *scanner.Document
	for _, doc := range docs {
		if doc.Name == name {
			target = doc
			break
		}
	}
	if target == nil {
		http.Error(w, errors.ErrDocumentNotFound(name).Error(), http.StatusNotFound)
		return
	}

	rendered, err := s.newRenderer().RenderDocument(target)
	if err != nil {
		s.logger.Error(r.Context(), err, "Render failed", "document", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	if script := s.reloadScript(); script != "" {
		if idx := strings.LastIndex(rendered, "</body>"); idx >= 0 {
			rendered = rendered[:idx] + script + rendered[idx:]
		} else {
			rendered += script
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, rendered)
}

// reloadScript returns the live-reload snippet injected into served
// pages, or empty when hot reload is off.
func (s *PreviewServer) reloadScript() string {
	if !s.config.Development.HotReload {
		return ""
	}
	return `<script>
(function() {
    var ws = new WebSocket('ws://' + window.location.host + '/ws');
    ws.onmessage = function(event) {
        var message = JSON.parse(event.data);
        if (message.type === 'full_reload') {
            window.location.reload();
        }
    };
})();
</script>
`
}
