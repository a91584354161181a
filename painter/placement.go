package painter

// Adjust selects how an image is fitted into its target extent.
type Adjust string

const (
	// AdjustNone stretches the image to the extent.
	AdjustNone Adjust = "none"

	// AdjustFit scales uniformly so the whole image is visible.
	AdjustFit Adjust = "fit"

	// AdjustCover scales uniformly so the image covers the extent.
	AdjustCover Adjust = "cover"
)

// sizeBuckets are the asset sizes requested from the media server.
var sizeBuckets = [...]int{4, 8, 16, 32, 64, 128, 256, 512, 1024}

// SizeBucket returns the smallest bucket not smaller than size. Sizes
// above the largest bucket get the largest bucket.
func SizeBucket(size float64) int {
	for _, b := range sizeBuckets {
		if float64(b) >= size {
			return b
		}
	}
	return sizeBuckets[len(sizeBuckets)-1]
}

// Rect is a placed image rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Place computes where an asset of assetW x assetH lands inside target.
//
// With an unrecognised adjust policy the asset keeps its natural size at
// the extent's bottom-left corner.
func Place(adjust Adjust, target Extent, assetW, assetH float64) Rect {
	corner := target.BottomLeft()
	r := Rect{X: corner[0], Y: corner[1], W: assetW, H: assetH}
	width, height := target.Width(), target.Height()

	switch adjust {
	case AdjustNone:
		r.W, r.H = width, height

	case AdjustFit:
		if assetW <= 0 || assetH <= 0 {
			return r
		}
		scale := min(width/assetW, height/assetH)
		r.W, r.H = assetW*scale, assetH*scale
		if width-r.W < height-r.H {
			r.Y += (height - r.H) / 2
		} else {
			r.X += (width - r.W) / 2
		}

	case AdjustCover:
		if assetW <= 0 || assetH <= 0 {
			return r
		}
		scale := max(width/assetW, height/assetH)
		r.W, r.H = assetW*scale, assetH*scale
		if width-r.W > height-r.H {
			r.Y += (height - r.H) / 2
		} else {
			r.X += (width - r.W) / 2
		}
	}
	return r
}
