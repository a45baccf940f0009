package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	squarecropper "github.com/unusual9guy/square-cropper"
	"github.com/unusual9guy/square-cropper/internal/cache"
	"github.com/unusual9guy/square-cropper/internal/utils"
	"github.com/unusual9guy/square-cropper/pkg/storage"
	"github.com/unusual9guy/square-cropper/pkg/types"
)

const (
	imageParamKey  = "image"
	imagesParamKey = "images"
)

var errTooLarge = errors.New("upload exceeds the size limit")

// Cropper crops uploaded images
type Cropper interface {
	CropReader(ctx context.Context, r io.Reader, name string) types.CropResult
	Config() squarecropper.Config
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus is the payload of the health endpoint
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Handler serves the crop API
type Handler struct {
	cropper       Cropper
	cache         cache.Cache
	checks        map[string]HealthCheck
	maxUploadSize int64
	logger        *zap.Logger
}

// NewHandler creates a crop API handler. cache may be nil.
func NewHandler(cropper Cropper, resultCache cache.Cache, maxUploadSize int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cropper:       cropper,
		cache:         resultCache,
		checks:        map[string]HealthCheck{},
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// AddHealthCheck registers a dependency for the health endpoint
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// Crop handles a single multipart upload
func (h *Handler) Crop(c *gin.Context) {
	file, header, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	result, err := h.cropUpload(c.Request.Context(), file, header)
	if err != nil {
		h.respondError(c, statusFor(err), err.Error())
		return
	}

	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Data:    result,
			Error:   result.Error,
		})
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: result})
}

// CropBatch handles several uploads. Per-file failures are reported in the batch report.
func (h *Handler) CropBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := form.File[imagesParamKey]
	if len(files) == 0 {
		h.respondError(c, http.StatusBadRequest, "No image files provided")
		return
	}

	report := types.BatchReport{
		OutputDir: h.cropper.Config().OutputDir,
		Results:   make([]types.BatchItem, 0, len(files)),
	}

	for _, header := range files {
		result := h.cropFileHeader(c.Request.Context(), header)
		report.Add(types.BatchItem{InputPath: header.Filename, Result: result})
	}

	c.JSON(http.StatusOK, APIResponse{Success: report.Success, Data: report})
}

// Health reports the status of registered dependencies
func (h *Handler) Health(c *gin.Context) {
	services := make(map[string]string, len(h.checks))
	overall := "healthy"

	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			services[name] = "unhealthy: " + err.Error()
			overall = "unhealthy"
		} else {
			services[name] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, APIResponse{
		Success: overall == "healthy",
		Data: HealthStatus{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func (h *Handler) cropFileHeader(ctx context.Context, header *multipart.FileHeader) types.CropResult {
	file, err := header.Open()
	if err != nil {
		return types.CropResult{Error: fmt.Sprintf("failed to open upload: %v", err)}
	}
	defer file.Close()

	result, err := h.cropUpload(ctx, file, header)
	if err != nil {
		return types.CropResult{Error: err.Error()}
	}
	return result
}

func (h *Handler) cropUpload(ctx context.Context, file io.Reader, header *multipart.FileHeader) (types.CropResult, error) {
	data, err := h.readLimited(file)
	if err != nil {
		return types.CropResult{}, err
	}

	cfg := h.cropper.Config()
	key := cache.Key(data, cache.Settings{
		Threshold:    cfg.Threshold,
		PaddingRatio: cfg.PaddingRatio,
		Format:       cfg.Format,
		Quality:      cfg.Quality,
		Suffix:       cfg.Suffix,
		OutputDir:    cfg.OutputDir,
		MinSize:      cfg.MinSize,
	})

	if result, ok := h.fromCache(ctx, key); ok {
		return result, nil
	}

	name := utils.SanitizeFilename(header.Filename)
	if name == "" {
		name = "upload"
	}
	result := h.cropper.CropReader(ctx, bytes.NewReader(data), storage.GenerateKey("", name))

	if result.Success {
		h.toCache(ctx, key, result)
	}
	return result, nil
}

func (h *Handler) readLimited(r io.Reader) ([]byte, error) {
	if h.maxUploadSize <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, h.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadSize {
		return nil, errTooLarge
	}
	return data, nil
}

func (h *Handler) fromCache(ctx context.Context, key string) (types.CropResult, bool) {
	if h.cache == nil {
		return types.CropResult{}, false
	}

	data, found, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("Cache lookup failed", zap.Error(err))
		return types.CropResult{}, false
	}
	if !found {
		return types.CropResult{}, false
	}

	var result types.CropResult
	if err := json.Unmarshal(data, &result); err != nil {
		h.logger.Warn("Failed to unmarshal cached result", zap.Error(err))
		return types.CropResult{}, false
	}
	return result, true
}

func (h *Handler) toCache(ctx context.Context, key string, result types.CropResult) {
	if h.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, data); err != nil {
		h.logger.Warn("Failed to cache result", zap.Error(err))
	}
}

func (h *Handler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

func statusFor(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
