package disk

import (
	"math"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
)

// Geometry returns the size of a srcW x srcH image after transform t with the
// requested width and height. Unknown source sizes keep the requested ones.
func Geometry(t models.Transform, srcW, srcH, width, height int) (int, int) {
	switch t {
	case models.TransformWidth:
		if srcW == 0 {
			return width, 0
		}

		return width, scale(srcH, width, srcW)
	case models.TransformHeight:
		if srcH == 0 {
			return 0, height
		}

		return scale(srcW, height, srcH), height
	case models.TransformFit:
		if srcW == 0 || srcH == 0 {
			return width, height
		}

		if srcW*height > srcH*width {
			return width, scale(srcH, width, srcW)
		}

		return scale(srcW, height, srcH), height
	case models.TransformCrop:
		return width, height
	}

	return srcW, srcH
}

// scale returns round(v * num / den).
func scale(v, num, den int) int {
	return int(math.Round(float64(v) * float64(num) / float64(den)))
}
