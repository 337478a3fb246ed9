package engine

import (
	"image"

	"gocv.io/x/gocv"
)

// Preprocessing transforms for the enhancement ladder. Each returns a new Mat
// owned by the caller.

func grayscale(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	if src.Channels() == 1 {
		src.CopyTo(&dst)
		return dst
	}
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// contrastStretch expands the used intensity range to the full 0..255 band.
func contrastStretch(gray gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Normalize(gray, &dst, 0, 255, gocv.NormMinMax)
	return dst
}

func binarizeOtsu(gray gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Threshold(gray, &dst, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)
	return dst
}

func upscale(src gocv.Mat, factor float64) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(0, 0), factor, factor, gocv.InterpolationCubic)
	return dst
}

func rotate90(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Rotate(src, &dst, gocv.Rotate90Clockwise)
	return dst
}
