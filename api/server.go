// Package api exposes the question answering pipeline over HTTP: one
// endpoint to ask, one to upload documents, one for health.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sweetpotato0/docqa/agent"
	"github.com/sweetpotato0/docqa/cache"
	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/llm"
	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/rag/document"
	"github.com/sweetpotato0/docqa/rag/loader"
)

const sourcePreviewRunes = 200

// QueryRunner runs the retrieval loop for one question.
type QueryRunner interface {
	Run(ctx context.Context, question string) (*agent.State, error)
}

// Ingester indexes documents and reports the index size.
type Ingester interface {
	IndexDocuments(ctx context.Context, docs ...document.Document) (int, error)
	Count(ctx context.Context) (int, error)
}

// AnswerCache stores and invalidates full query responses.
type AnswerCache interface {
	Get(ctx context.Context, question string) (*cache.Entry, error)
	Put(ctx context.Context, question string, entry *cache.Entry) error
	Invalidate(ctx context.Context) error
}

// Server wires the pipeline behind a gin engine.
type Server struct {
	engine    *gin.Engine
	runner    QueryRunner
	ingester  Ingester
	llmClient llm.Client
	cache     AnswerCache
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithCache enables the Redis answer cache.
func WithCache(c AnswerCache) Option {
	return func(s *Server) { s.cache = c }
}

// WithTimeout sets the per-request deadline for query runs.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewServer builds the HTTP server around a runner and an ingester. The LLM
// client is only consulted for health checks.
func NewServer(runner QueryRunner, ingester Ingester, llmClient llm.Client, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("query runner is required")
	}
	if ingester == nil {
		return nil, fmt.Errorf("ingester is required")
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:    gin.New(),
		runner:    runner,
		ingester:  ingester,
		llmClient: llmClient,
		timeout:   5 * time.Minute,
		logger:    logging.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(gin.Recovery(), corsMiddleware())
	s.engine.POST("/api/query", s.handleQuery)
	s.engine.POST("/api/upload", s.handleUpload)
	s.engine.GET("/api/health", s.handleHealth)
	return s, nil
}

// Handler returns the http.Handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the server on addr and blocks until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be JSON with a question field"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "question cannot be empty"})
		return
	}
	if req.TopK != 0 && (req.TopK < 1 || req.TopK > 20) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "top_k must be between 1 and 20"})
		return
	}

	if s.cache != nil {
		if entry, err := s.cache.Get(c.Request.Context(), question); err == nil {
			c.JSON(http.StatusOK, QueryResponse{
				Answer:       entry.Answer,
				Sources:      sourcesFromCache(entry.Sources),
				IsSufficient: entry.IsSufficient,
				Iterations:   entry.Iterations,
				Cached:       true,
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	st, err := s.runner.Run(ctx, question)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, docqaerrors.ErrInvalidInput) || errors.Is(err, docqaerrors.ErrUnsupportedInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: "question answering failed"})
		return
	}

	resp := QueryResponse{
		Answer:       st.Answer,
		Sources:      collectSources(st.Chunks),
		IsSufficient: st.IsSufficient,
		Iterations:   st.Iteration,
	}
	if s.cache != nil {
		cached := make([]cache.Source, len(resp.Sources))
		for i, src := range resp.Sources {
			cached[i] = cache.Source{Content: src.Content, Source: src.Source, Page: src.Page}
		}
		if err := s.cache.Put(c.Request.Context(), question, &cache.Entry{
			Answer:       resp.Answer,
			Sources:      cached,
			IsSufficient: resp.IsSufficient,
			Iterations:   resp.Iterations,
		}); err != nil {
			s.logger.Warn("cache put failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipart field 'file' is required"})
		return
	}

	filename := filepath.Base(file.Filename)
	if !loader.SupportedExtension(filepath.Ext(filename)) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("unsupported file type %q: only .pdf, .md and .txt are accepted", filepath.Ext(filename)),
		})
		return
	}

	tmpDir, err := os.MkdirTemp("", "docqa-upload-*")
	if err != nil {
		s.logger.Error("create temp dir failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upload failed"})
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filename)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		s.logger.Error("save upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upload failed"})
		return
	}

	docs, err := loader.LoadFile(tmpPath, filename)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, docqaerrors.ErrUnsupportedInput) || errors.Is(err, docqaerrors.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: fmt.Sprintf("could not read %s", filename)})
		return
	}

	added, err := s.ingester.IndexDocuments(c.Request.Context(), docs...)
	if err != nil {
		s.logger.Error("indexing failed", "file", filename, "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "indexing failed"})
		return
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(c.Request.Context()); err != nil {
			s.logger.Warn("cache invalidation failed", "error", err)
		}
	}

	s.logger.Info("document indexed", "file", filename, "chunks", added)
	c.JSON(http.StatusOK, UploadResponse{Filename: filename, ChunksAdded: added})
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok", LLM: "ok", Store: "ok"}

	if pinger, ok := s.llmClient.(llm.Pinger); ok {
		if err := pinger.Ping(c.Request.Context()); err != nil {
			resp.LLM = "unreachable"
			resp.Status = "degraded"
		}
	}

	count, err := s.ingester.Count(c.Request.Context())
	if err != nil {
		resp.Store = "unreachable"
		resp.Status = "degraded"
	} else {
		resp.ChunkCount = count
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// collectSources deduplicates chunks by source identifier, keeping first-seen
// order. The preview and page come from the first chunk of each source.
func collectSources(chunks []document.Chunk) []Source {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]Source, 0, len(chunks))
	for _, chunk := range chunks {
		if _, ok := seen[chunk.Source]; ok {
			continue
		}
		seen[chunk.Source] = struct{}{}
		sources = append(sources, Source{
			Content: previewText(chunk.Text),
			Source:  chunk.Source,
			Page:    chunk.Page,
		})
	}
	return sources
}

func sourcesFromCache(cached []cache.Source) []Source {
	sources := make([]Source, 0, len(cached))
	for _, src := range cached {
		sources = append(sources, Source{Content: src.Content, Source: src.Source, Page: src.Page})
	}
	return sources
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= sourcePreviewRunes {
		return text
	}
	return string(runes[:sourcePreviewRunes]) + "..."
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
