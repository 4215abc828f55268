package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/truthscan/internal/model"
)

// Handlers holds the HTTP handlers for the analysis endpoints
type Handlers struct {
	analyzer      Analyzer
	maxImageBytes int64
	version       string
}

// NewHandlers creates the handler set
func NewHandlers(analyzer Analyzer, maxImageBytes int64, version string) *Handlers {
	return &Handlers{analyzer: analyzer, maxImageBytes: maxImageBytes, version: version}
}

// RegisterRoutes mounts the handlers on g (normally /api)
func RegisterRoutes(g *gin.RouterGroup, h *Handlers) {
	g.GET("/health", h.HandleHealth)
	g.POST("/analyze/text", h.HandleAnalyzeText)
	g.POST("/analyze/url", h.HandleAnalyzeURL)
	g.POST("/analyze/image", h.HandleAnalyzeImage)
}

// TextRequest is the body of POST /analyze/text (form or JSON)
type TextRequest struct {
	Text string `json:"text" form:"text" binding:"required"`
}

// URLRequest is the body of POST /analyze/url (form or JSON)
type URLRequest struct {
	URL string `json:"url" form:"url" binding:"required,url"`
}

// ImageRequest carries the optional fields of POST /analyze/image
type ImageRequest struct {
	Caption string `form:"caption" binding:"max=2000"`
}

// Metadata identifies the service in every response
type Metadata struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// AnalysisResponse is the success envelope
type AnalysisResponse struct {
	Success      bool          `json:"success"`
	Timestamp    time.Time     `json:"timestamp"`
	AnalysisType model.Mode    `json:"analysis_type"`
	Result       *model.Report `json:"result"`
	Metadata     Metadata      `json:"metadata"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleHealth reports liveness
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Version:   h.version,
		Timestamp: time.Now().UTC(),
	})
}

// HandleAnalyzeText analyzes submitted text
func (h *Handlers) HandleAnalyzeText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.analyzer.AnalyzeText(c.Request.Context(), req.Text)
	h.respond(c, model.ModeText, report, err)
}

// HandleAnalyzeURL fetches and analyzes a page
func (h *Handlers) HandleAnalyzeURL(c *gin.Context) {
	var req URLRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.analyzer.AnalyzeURL(c.Request.Context(), req.URL)
	h.respond(c, model.ModeURL, report, err)
}

// HandleAnalyzeImage analyzes an uploaded image (multipart field "file")
func (h *Handlers) HandleAnalyzeImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file: %w", err))
		return
	}
	if h.maxImageBytes > 0 && header.Size > h.maxImageBytes {
		badRequest(c, fmt.Errorf("file larger than %d bytes", h.maxImageBytes))
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("open upload: %v", err)})
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("read upload: %v", err)})
		return
	}

	report, err := h.analyzer.AnalyzeImage(c.Request.Context(), data, req.Caption)
	if report != nil && header.Filename != "" && req.Caption == "" {
		report.Subject = header.Filename
	}
	h.respond(c, model.ModeImage, report, err)
}

func (h *Handlers) respond(c *gin.Context, mode model.Mode, report *model.Report, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		badRequest(c, err)
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if raw, _ := strconv.ParseBool(c.Query("raw")); !raw {
		report.Raw = nil
	}
	c.JSON(http.StatusOK, AnalysisResponse{
		Success:      true,
		Timestamp:    time.Now().UTC(),
		AnalysisType: mode,
		Result:       report,
		Metadata:     Metadata{Service: ServiceName, Version: h.version},
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
