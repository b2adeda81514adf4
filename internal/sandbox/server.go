// Package sandbox runs a local in-memory stand-in for the InvoiceIQ API.
// It exists for SDK integration tests and offline development: submitted
// jobs progress to COMPLETED as their status is polled, without touching any
// real document pipeline.
package sandbox

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

// sandboxOutput is the canned document served for completed jobs.
const sandboxOutput = "%PDF-1.4\n% invoiceiq sandbox output\n"

// Config holds sandbox server configuration
type Config struct {
	Address string
	// APIKey, when set, is required in the X-API-KEY header of every request.
	APIKey string
	// CompleteAfter is the number of status fetches before a job completes.
	CompleteAfter int
	Logger        *slog.Logger
	Debug         bool
}

// Server is the sandbox HTTP server.
type Server struct {
	config *Config
	router *gin.Engine
	store  *store
	logger *slog.Logger
}

// NewServer creates a sandbox server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config: config,
		router: router,
		store:  newStore(config.CompleteAfter),
		logger: logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	authed := s.router.Group("/", s.requireAPIKey)
	{
		authed.POST("/v1/validations", s.handleCreateValidation)
		authed.GET("/v1/validations", s.handleListValidations)
		authed.GET("/v1/validations/:id", s.handleGetValidation)
		authed.GET("/v1/validations/:id/report", s.handleGetValidationReport)

		authed.POST("/api/v1/transformations", s.handleCreateTransformation)
		authed.GET("/api/v1/transformations/:id", s.handleGetTransformation)

		authed.POST("/api/v1/generations", s.handleCreateGeneration)
		authed.GET("/api/v1/generations/:id", s.handleGetGeneration)

		authed.GET("/files/:id", s.handleDownload)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.logger.Info("sandbox listening",
		slog.String("address", s.config.Address),
		slog.Int("complete_after", s.store.completeAfter),
	)
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with httptest servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requireAPIKey(c *gin.Context) {
	if s.config.APIKey == "" {
		return
	}
	if c.GetHeader("X-API-KEY") != s.config.APIKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func jobJSON(rec *jobRecord) gin.H {
	h := gin.H{
		"id":     rec.ID,
		"status": rec.Status,
	}
	if rec.Status == invoiceiq.StatusCompleted {
		h["downloadUrl"] = "/files/" + rec.ID
		if rec.Kind == kindValidation {
			h["reportDownloadUrl"] = "/v1/validations/" + rec.ID + "/report"
		}
	}
	return h
}

func (s *Server) handleCreateValidation(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	rec, existed := s.store.create(kindValidation, c.GetHeader("Idempotency-Key"), func(r *jobRecord) {
		r.Filename = header.Filename
		r.ReferenceID = c.PostForm("referenceId")
		r.CallbackURL = c.PostForm("callbackUrl")
	})

	s.logger.Info("validation submitted",
		slog.String("id", rec.ID),
		slog.String("filename", rec.Filename),
		slog.Bool("deduplicated", existed),
	)

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	c.JSON(status, jobJSON(rec))
}

func (s *Server) handleListValidations(c *gin.Context) {
	records := s.store.list(kindValidation, c.Query("status"))
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	items := make([]gin.H, 0, len(records))
	for i := range records {
		items = append(items, jobJSON(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (s *Server) handleGetValidation(c *gin.Context) {
	rec, ok := s.store.poll(kindValidation, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "validation not found"})
		return
	}
	c.JSON(http.StatusOK, jobJSON(rec))
}

func (s *Server) handleGetValidationReport(c *gin.Context) {
	rec, ok := s.store.get(kindValidation, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "validation not found"})
		return
	}
	if rec.Status != invoiceiq.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "validation not completed yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"finalScore": 0.97,
		"profile":    "EN16931",
		"issues": []gin.H{
			{"code": "BR-CO-25", "severity": "warning", "message": "payment due date missing"},
		},
	})
}

func (s *Server) handleCreateTransformation(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	metaStr := c.PostForm("metadata")
	if metaStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metadata is required"})
		return
	}
	var meta invoiceiq.TransformationMetadata
	if err := json.Unmarshal([]byte(metaStr), &meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metadata is not valid JSON"})
		return
	}

	rec, existed := s.store.create(kindTransformation, c.GetHeader("Idempotency-Key"), func(r *jobRecord) {
		r.Filename = header.Filename
		r.Metadata = []byte(metaStr)
	})

	s.logger.Info("transformation submitted",
		slog.String("id", rec.ID),
		slog.String("invoice_number", meta.InvoiceNumber),
		slog.Bool("deduplicated", existed),
	)

	status := http.StatusAccepted
	if existed {
		status = http.StatusOK
	}
	c.JSON(status, jobJSON(rec))
}

func (s *Server) handleGetTransformation(c *gin.Context) {
	rec, ok := s.store.poll(kindTransformation, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "transformation not found"})
		return
	}
	c.JSON(http.StatusOK, jobJSON(rec))
}

func (s *Server) handleCreateGeneration(c *gin.Context) {
	var payload invoiceiq.GenerationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is not valid JSON"})
		return
	}
	if payload.InvoiceNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoiceNumber is required"})
		return
	}

	raw, _ := json.Marshal(payload)
	rec, existed := s.store.create(kindGeneration, c.GetHeader("Idempotency-Key"), func(r *jobRecord) {
		r.Metadata = raw
	})

	s.logger.Info("generation submitted",
		slog.String("id", rec.ID),
		slog.String("invoice_number", payload.InvoiceNumber),
		slog.Bool("deduplicated", existed),
	)

	status := http.StatusAccepted
	if existed {
		status = http.StatusOK
	}
	c.JSON(status, jobJSON(rec))
}

func (s *Server) handleGetGeneration(c *gin.Context) {
	rec, ok := s.store.poll(kindGeneration, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "generation not found"})
		return
	}
	c.JSON(http.StatusOK, jobJSON(rec))
}

func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("id")
	var found *jobRecord
	for _, kind := range []string{kindValidation, kindTransformation, kindGeneration} {
		if rec, ok := s.store.get(kind, id); ok {
			found = rec
			break
		}
	}
	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if found.Status != invoiceiq.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "job not completed yet"})
		return
	}
	c.Data(http.StatusOK, "application/pdf", []byte(sandboxOutput))
}
