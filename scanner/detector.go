// Package scanner finds the document sheet in a frame and warps it to an
// axis-aligned rectangle. Built for the high camera rig: sheet roughly
// centered, dark mat background, stability over cleverness.
package scanner

import (
	"image"

	"ReceiptCapture/config"
	"ReceiptCapture/logger"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

type DocumentDetector struct {
	cfg config.ScannerConfig
}

func NewDocumentDetector(cfg config.ScannerConfig) *DocumentDetector {
	return &DocumentDetector{cfg: cfg}
}

// DetectAndRectify locates the best document quadrilateral in src and returns
// the perspective-corrected image. The second return is false when no
// candidate passes scoring; callers fall back to the raw frame and must not
// treat this as an error. The returned Mat is owned by the caller.
func (d *DocumentDetector) DetectAndRectify(src gocv.Mat) (gocv.Mat, bool) {
	if src.Empty() {
		return gocv.Mat{}, false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	blur := gocv.NewMat()
	defer blur.Close()
	edge := gocv.NewMat()
	defer edge.Close()

	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	k := d.cfg.BlurKernel
	gocv.GaussianBlur(gray, &blur, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	gocv.Canny(blur, &edge, d.cfg.CannyLow, d.cfg.CannyHigh)

	contours := gocv.FindContours(edge, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	quad, ok := d.bestQuad(contours)
	if !ok {
		return gocv.Mat{}, false
	}
	return warp(src, quad), true
}

// bestQuad scores every 4-vertex polygon approximation and keeps the highest
// scorer, larger area winning ties.
func (d *DocumentDetector) bestQuad(contours gocv.PointsVector) (Quad, bool) {
	var best Quad
	bestScore := -1.0
	bestArea := 0.0
	found := false

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < d.cfg.MinArea {
			continue
		}

		peri := gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, 0.02*peri, true)
		if approx.Size() != 4 {
			approx.Close()
			continue
		}
		pts := approx.ToPoints()
		approx.Close()

		quad, ok := orderQuad(pts)
		if !ok {
			continue
		}

		rs := quad.ratioScore(d.cfg.TargetRatio, d.cfg.RatioTolerance)
		as := quad.angleScore(d.cfg.AngleToleranceDeg, d.cfg.MaxAngleDevDeg)
		score := 0.6*rs + 0.4*as
		if score < d.cfg.AcceptThreshold {
			continue
		}

		if score > bestScore || (score == bestScore && area > bestArea) {
			best = quad
			bestScore = score
			bestArea = area
			found = true
		}
	}

	if found {
		logger.Log().Debug("document candidate accepted",
			zap.Float64("score", bestScore), zap.Float64("area", bestArea))
	}
	return best, found
}

// warp maps the ordered quad onto a rectangle sized by the longest opposing
// edges of the source.
func warp(src gocv.Mat, q Quad) gocv.Mat {
	w, h := q.rectifiedSize()

	srcPts := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: float32(q[0].X), Y: float32(q[0].Y)},
		{X: float32(q[1].X), Y: float32(q[1].Y)},
		{X: float32(q[2].X), Y: float32(q[2].Y)},
		{X: float32(q[3].X), Y: float32(q[3].Y)},
	})
	defer srcPts.Close()
	dstPts := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(w - 1), Y: 0},
		{X: float32(w - 1), Y: float32(h - 1)},
		{X: 0, Y: float32(h - 1)},
	})
	defer dstPts.Close()

	m := gocv.GetPerspectiveTransform2f(srcPts, dstPts)
	defer m.Close()

	warped := gocv.NewMat()
	gocv.WarpPerspective(src, &warped, m, image.Pt(w, h))
	return warped
}
