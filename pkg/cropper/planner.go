package cropper

import (
	"math"

	"github.com/unusual9guy/square-cropper/pkg/types"
)

// DefaultPaddingRatio is the share of the product's larger side added as margin on each side
const DefaultPaddingRatio = 0.2

// PlanCrop computes a square region centered on the bounding box, padded by paddingRatio
// of the box's larger side and clamped to a width x height frame. When the frame is
// smaller than the padded square in either axis the region is clamped and may come back
// non-square; ExecuteCrop squares it.
func PlanCrop(bounds types.BoundingBox, width, height int, paddingRatio float64) types.CropRegion {
	maxDimension := max(bounds.Width(), bounds.Height())
	padding := int(math.Round(float64(maxDimension) * paddingRatio))
	cropSize := maxDimension + 2*padding

	centerX := (bounds.Left + bounds.Right) / 2
	centerY := (bounds.Top + bounds.Bottom) / 2

	left, right := clampSpan(centerX, cropSize, width)
	top, bottom := clampSpan(centerY, cropSize, height)

	return types.CropRegion{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
	}
}

// clampSpan places a span of length size centered on center inside [0, limit], sliding
// it back from the far edge when possible so the full length is kept.
func clampSpan(center, size, limit int) (int, int) {
	lo := max(0, center-size/2)
	hi := min(limit, lo+size)
	if hi-lo < size {
		lo = max(0, hi-size)
	}
	return lo, hi
}
