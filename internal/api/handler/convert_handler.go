package handler

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plumetext/convertd/internal/api/dto"
	"github.com/plumetext/convertd/internal/extract"
	"github.com/plumetext/convertd/internal/job"
	"github.com/plumetext/convertd/shared/logger"
)

// ConvertHandler handles conversion intake requests
type ConvertHandler struct {
	logger    *logger.Logger
	starter   JobStarter
	uploadDir string
}

// NewConvertHandler creates a new ConvertHandler instance
func NewConvertHandler(deps *Dependencies) *ConvertHandler {
	return &ConvertHandler{
		logger:    deps.Logger,
		starter:   deps.Starter,
		uploadDir: deps.UploadDir,
	}
}

// Convert handles POST /convert
// Validates the request synchronously, then hands the job to a goroutine
// and answers 202 before any extraction work starts.
func (h *ConvertHandler) Convert(c *gin.Context) {
	var req dto.ConvertRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Error("Invalid form data", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
		return
	}

	file, fileErr := c.FormFile("file")
	hasFile := fileErr == nil && file != nil

	if !hasFile && req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file or URL provided"})
		return
	}

	if req.WebhookURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No webhookURL provided"})
		return
	}

	if req.UniqueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No uniqueID provided"})
		return
	}

	if hasFile {
		h.convertFile(c, file, req)
		return
	}

	h.starter.Start(job.Job{
		UniqueID:   req.UniqueID,
		WebhookURL: req.WebhookURL,
		Source:     extract.Source{URL: req.URL},
	})

	h.logger.Info("Accepted URL job",
		slog.String("unique_id", req.UniqueID),
	)

	c.JSON(http.StatusAccepted, gin.H{"status": "Received URL. Processing..."})
}

func (h *ConvertHandler) convertFile(c *gin.Context, file *multipart.FileHeader, req dto.ConvertRequest) {
	ext := normalizeExt(file.Filename)

	// URL-sourced media never needs the credential; audio uploads do.
	credential := c.GetHeader("OpenAIAPIKey")
	if extract.IsAudioExt(ext) && credential == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "OpenAIAPIKey is required for audio files"})
		return
	}

	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}

	uploadPath := filepath.Join(h.uploadDir, uuid.New().String()+"-"+filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, uploadPath); err != nil {
		h.logger.Error("Failed to save upload",
			slog.String("unique_id", req.UniqueID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save uploaded file"})
		return
	}

	h.starter.Start(job.Job{
		UniqueID:   req.UniqueID,
		WebhookURL: req.WebhookURL,
		Source: extract.Source{
			FilePath:   uploadPath,
			Ext:        ext,
			Credential: credential,
		},
	})

	h.logger.Info("Accepted file job",
		slog.String("unique_id", req.UniqueID),
		slog.String("filetype", ext),
	)

	c.JSON(http.StatusAccepted, gin.H{"status": "Received file. Processing..."})
}

// normalizeExt returns the lowercased extension without the leading dot.
func normalizeExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
