package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unusual9guy/square-cropper/pkg/types"
)

// ErrMalformedJob marks a message that can never be processed
var ErrMalformedJob = errors.New("malformed crop job")

// Cropper runs a single file crop
type Cropper interface {
	CropToSquareContext(ctx context.Context, inputPath, outputPath string) types.CropResult
}

// Handler turns job messages into job results
type Handler struct {
	cropper Cropper
	logger  *zap.Logger
}

// NewHandler creates a job handler
func NewHandler(cropper Cropper, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cropper: cropper, logger: logger}
}

// Handle decodes a job message and runs it. Crop failures are reported in
// the result; only undecodable messages return an error.
func (h *Handler) Handle(ctx context.Context, body []byte) (JobResult, error) {
	var job CropJob
	if err := json.Unmarshal(body, &job); err != nil {
		return JobResult{}, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if job.InputPath == "" {
		return JobResult{}, fmt.Errorf("%w: input_path is required", ErrMalformedJob)
	}

	h.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.String("input", job.InputPath))

	result := h.cropper.CropToSquareContext(ctx, job.InputPath, job.OutputPath)

	status := StatusCompleted
	if !result.Success {
		status = StatusFailed
		h.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.String("error", result.Error))
	} else {
		h.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID),
			zap.String("output", result.OutputPath))
	}

	return JobResult{
		JobID:       job.ID,
		Status:      status,
		Result:      result,
		CompletedAt: time.Now(),
	}, nil
}
