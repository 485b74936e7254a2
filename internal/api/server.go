// Package api implements the optional dev-server companion: an HTTP API
// plus a websocket broadcast of watch events, so an editor or browser
// tab can show live rebuild status next to the emitted HTML. It follows
// a gin + gin-contrib/cors + gorilla/websocket route-group layout, with
// the compiler and file watcher backed by the native pipeline and its
// Watcher rather than an external binary.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tweers-project/tweers/internal/buildmodel"
	"github.com/tweers-project/tweers/internal/pipeline"
	"github.com/tweers-project/tweers/internal/watch"
)

// Server exposes build and watch status over HTTP and pushes watch
// events to connected websocket clients.
type Server struct {
	router     *gin.Engine
	logger     *slog.Logger
	port       int
	watcherMu  sync.Mutex
	watcher    *watch.Watcher
	wsClients  map[*websocket.Conn]bool
	wsMu       sync.Mutex
	wsUpgrader websocket.Upgrader
}

// Config configures a new Server.
type Config struct {
	Port       int
	EnableCORS bool
	Debug      bool
	Logger     *slog.Logger
}

// New builds a Server with routes registered; call Run to serve.
func New(cfg Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	router := gin.Default()
	if cfg.EnableCORS {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	s := &Server{
		router:    router,
		logger:    cfg.Logger,
		port:      cfg.Port,
		wsClients: map[*websocket.Conn]bool{},
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	group := s.router.Group("/api")
	{
		group.GET("/health", s.healthCheck)
		group.POST("/build", s.buildStory)
		group.GET("/passages", s.listPassages)
		group.GET("/formats", s.getFormats)
		group.GET("/watch/status", s.getWatcherStatus)
	}
	s.router.GET("/ws", s.handleWebSocket)
}

// Run starts the HTTP listener; it blocks until the server is shut down
// or it errors.
func (s *Server) Run() error {
	addr := ":" + strconv.Itoa(s.port)
	s.logger.Info("dev server listening", "addr", addr)
	return s.router.Run(addr)
}

// AttachWatcher wires a running Watcher so its events fan out to every
// connected websocket client.
func (s *Server) AttachWatcher(w *watch.Watcher) {
	s.watcherMu.Lock()
	s.watcher = w
	s.watcherMu.Unlock()
	go s.broadcastWatchEvents(w)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// BuildRequest asks the server to run one build over an already-resolved
// source root (the server does not accept raw file uploads).
type BuildRequest struct {
	SourceDir   string `json:"source_dir" binding:"required"`
	Base64      bool   `json:"base64"`
	StartPassage string `json:"start_passage"`
}

func (s *Server) buildStory(c *gin.Context) {
	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sources, err := pipeline.CollectSources(req.SourceDir, req.Base64, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cfg := buildmodel.BuildConfig{
		Sources:              sources,
		Base64Embed:          req.Base64,
		StartPassageOverride: req.StartPassage,
		FormatSearchRoot:     req.SourceDir,
	}

	result, err := pipeline.Build(c.Request.Context(), cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "html": result.HTML, "warnings": errStrings(result.Warnings)})
}

func (s *Server) listPassages(c *gin.Context) {
	dir := c.Query("source_dir")
	if dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_dir is required"})
		return
	}

	sources, err := pipeline.CollectSources(dir, false, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	passages, err := pipeline.Passages(sources)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "passages": passages, "count": len(passages)})
}

func (s *Server) getFormats(c *gin.Context) {
	dir := c.Query("source_dir")
	if dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_dir is required"})
		return
	}

	formats, err := pipeline.ListFormats(dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "formats": formats})
}

func (s *Server) getWatcherStatus(c *gin.Context) {
	s.watcherMu.Lock()
	running := s.watcher != nil
	s.watcherMu.Unlock()
	c.JSON(http.StatusOK, gin.H{"running": running})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.wsMu.Lock()
	s.wsClients[conn] = true
	s.wsMu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.wsMu.Lock()
			delete(s.wsClients, conn)
			s.wsMu.Unlock()
			return
		}
	}
}

func (s *Server) broadcastWatchEvents(w *watch.Watcher) {
	for ev := range w.Events() {
		msg := gin.H{"type": ev.Type, "path": ev.Path, "timestamp": ev.Timestamp}
		if ev.Err != nil {
			msg["error"] = ev.Err.Error()
		}

		s.wsMu.Lock()
		for client := range s.wsClients {
			if err := client.WriteJSON(msg); err != nil {
				s.logger.Warn("websocket send failed, dropping client", "error", err)
				client.Close()
				delete(s.wsClients, client)
			}
		}
		s.wsMu.Unlock()
	}
}

func errStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

