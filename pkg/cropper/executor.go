package cropper

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/unusual9guy/square-cropper/pkg/types"
)

// ExecuteCrop cuts region out of img and center-crops the result to an exact square.
// The region is relative to the image origin.
func ExecuteCrop(img image.Image, region types.CropRegion) image.Image {
	rect := region.Rect().Add(img.Bounds().Min)
	return squareUp(imaging.Crop(img, rect))
}

// squareUp trims the longer side equally from both ends
func squareUp(img *image.NRGBA) image.Image {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if width == height {
		return img
	}

	size := min(width, height)
	left := (width - size) / 2
	top := (height - size) / 2

	return imaging.Crop(img, image.Rect(left, top, left+size, top+size))
}

// BasicCenterCrop crops the largest centered square from img. Square inputs are returned
// untouched with applied=false. The returned region is relative to the image origin.
func BasicCenterCrop(img image.Image) (image.Image, types.CropRegion, bool) {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	var region types.CropRegion
	switch {
	case width > height:
		left := (width - height) / 2
		region = types.CropRegion{Left: left, Top: 0, Right: left + height, Bottom: height}
	case height > width:
		top := (height - width) / 2
		region = types.CropRegion{Left: 0, Top: top, Right: width, Bottom: top + width}
	default:
		return img, types.CropRegion{Right: width, Bottom: height}, false
	}

	return imaging.Crop(img, region.Rect().Add(img.Bounds().Min)), region, true
}
