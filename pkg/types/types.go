package types

import "image"

// BoundingBox is the tight pixel extent of the foreground. Right and Bottom are exclusive.
type BoundingBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the horizontal extent of the box
func (b BoundingBox) Width() int { return b.Right - b.Left }

// Height returns the vertical extent of the box
func (b BoundingBox) Height() int { return b.Bottom - b.Top }

// Rect converts the box to an image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// CropRegion is a rectangle inside the source image that will be cut out.
type CropRegion struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the horizontal extent of the region
func (r CropRegion) Width() int { return r.Right - r.Left }

// Height returns the vertical extent of the region
func (r CropRegion) Height() int { return r.Bottom - r.Top }

// Empty reports whether the region has no area
func (r CropRegion) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// IsSquare reports whether the region has equal, non-zero sides
func (r CropRegion) IsSquare() bool { return !r.Empty() && r.Width() == r.Height() }

// Rect converts the region to an image.Rectangle
func (r CropRegion) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Center returns the integer center point of the region
func (r CropRegion) Center() (int, int) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// Contains reports whether the bounding box lies fully inside the region
func (r CropRegion) Contains(b BoundingBox) bool {
	return b.Left >= r.Left && b.Top >= r.Top && b.Right <= r.Right && b.Bottom <= r.Bottom
}

// Within reports whether the region lies inside a width x height frame
func (r CropRegion) Within(width, height int) bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right <= width && r.Bottom <= height
}

// Dimensions is a width/height pair in pixels
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CropMethod names the path that produced a crop
type CropMethod string

const (
	// MethodIntelligent means the crop was planned around detected foreground
	MethodIntelligent CropMethod = "intelligent"
	// MethodBasic means the fallback center crop was used
	MethodBasic CropMethod = "basic"
)

// CropResult is the outcome of one crop invocation. Bounds and CropArea are only set
// on the intelligent path; CropCoordinates only on the basic path when a crop happened.
type CropResult struct {
	Success            bool         `json:"success"`
	Message            string       `json:"message,omitempty"`
	OutputPath         string       `json:"output_path,omitempty"`
	OriginalDimensions Dimensions   `json:"original_dimensions"`
	CroppedDimensions  Dimensions   `json:"cropped_dimensions"`
	Method             CropMethod   `json:"method,omitempty"`
	CropApplied        bool         `json:"crop_applied"`
	Bounds             *BoundingBox `json:"product_bounds,omitempty"`
	CropArea           *CropRegion  `json:"crop_area,omitempty"`
	CropCoordinates    *CropRegion  `json:"crop_coordinates,omitempty"`
	Error              string       `json:"error,omitempty"`
}

// BatchItem pairs an input path with its crop result
type BatchItem struct {
	InputPath string     `json:"image_path"`
	Result    CropResult `json:"result"`
}

// BatchReport aggregates the results of a batch run in input order
type BatchReport struct {
	Success    bool        `json:"success"`
	Total      int         `json:"total_images"`
	Successful int         `json:"successful_crops"`
	Failed     int         `json:"failed_crops"`
	Results    []BatchItem `json:"results"`
	OutputDir  string      `json:"output_directory"`
}

// Add appends an item and updates the counters
func (r *BatchReport) Add(item BatchItem) {
	r.Results = append(r.Results, item)
	r.Total++
	if item.Result.Success {
		r.Successful++
		r.Success = true
	} else {
		r.Failed++
	}
}
