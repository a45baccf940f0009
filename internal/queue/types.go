package queue

import (
	"time"

	"github.com/unusual9guy/square-cropper/pkg/types"
)

const (
	// DefaultQueue carries crop jobs
	DefaultQueue = "square_crop"
	// DefaultResultsQueue carries job results
	DefaultResultsQueue = "square_crop_results"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CropJob asks a worker to crop one file. An empty OutputPath lets the
// worker derive <OutputDir>/<base><Suffix><ext>.
type CropJob struct {
	ID         string    `json:"id"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// JobResult is published once a job has been processed
type JobResult struct {
	JobID       string           `json:"job_id"`
	Status      string           `json:"status"`
	Result      types.CropResult `json:"result"`
	CompletedAt time.Time        `json:"completed_at"`
}
