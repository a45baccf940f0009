package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/unusual9guy/square-cropper/pkg/types"
)

type fakeCropper struct {
	calls  [][2]string
	result types.CropResult
}

func (f *fakeCropper) CropToSquareContext(ctx context.Context, inputPath, outputPath string) types.CropResult {
	f.calls = append(f.calls, [2]string{inputPath, outputPath})
	return f.result
}

func TestHandleCompleted(t *testing.T) {
	cropper := &fakeCropper{result: types.CropResult{Success: true, OutputPath: "out/a_cropped.png"}}
	handler := NewHandler(cropper, zaptest.NewLogger(t))

	body, err := json.Marshal(CropJob{ID: "job-1", InputPath: "in/a.png"})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "out/a_cropped.png", result.Result.OutputPath)
	assert.False(t, result.CompletedAt.IsZero())
	assert.Equal(t, [][2]string{{"in/a.png", ""}}, cropper.calls)
}

func TestHandleFailedCrop(t *testing.T) {
	cropper := &fakeCropper{result: types.CropResult{Error: "failed to load"}}
	handler := NewHandler(cropper, nil)

	result, err := handler.Handle(context.Background(), []byte(`{"id":"job-2","input_path":"x.png","output_path":"y.png"}`))
	require.NoError(t, err, "crop failures are results, not errors")

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "failed to load", result.Result.Error)
	assert.Equal(t, [][2]string{{"x.png", "y.png"}}, cropper.calls)
}

func TestHandleMalformed(t *testing.T) {
	cropper := &fakeCropper{}
	handler := NewHandler(cropper, nil)

	for _, body := range []string{"{", `{"id":"job-3"}`, `[]`} {
		_, err := handler.Handle(context.Background(), []byte(body))
		assert.ErrorIs(t, err, ErrMalformedJob, body)
	}
	assert.Empty(t, cropper.calls)
}
