package scanner

import (
	"image"
	"math"
)

// Quad holds the four corners of a document candidate in canonical order:
// top-left, top-right, bottom-right, bottom-left.
type Quad [4]image.Point

// orderQuad classifies four points into TL/TR/BR/BL by their position
// relative to the centroid. Detector output order is never trusted. The
// second return is false when the quadrant test is ambiguous (two points in
// the same quadrant), which happens for heavily skewed or degenerate shapes.
func orderQuad(pts []image.Point) (Quad, bool) {
	if len(pts) != 4 {
		return Quad{}, false
	}

	var cx, cy float64
	for _, p := range pts {
		cx += float64(p.X)
		cy += float64(p.Y)
	}
	cx /= 4
	cy /= 4

	var q Quad
	var seen [4]bool
	for _, p := range pts {
		var i int
		switch {
		case float64(p.X) < cx && float64(p.Y) < cy:
			i = 0 // TL
		case float64(p.X) >= cx && float64(p.Y) < cy:
			i = 1 // TR
		case float64(p.X) >= cx && float64(p.Y) >= cy:
			i = 2 // BR
		default:
			i = 3 // BL
		}
		if seen[i] {
			return Quad{}, false
		}
		seen[i] = true
		q[i] = p
	}
	return q, true
}

func dist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// rectifiedSize returns the destination rectangle dimensions: the maximum of
// the two opposing edge lengths on each axis.
func (q Quad) rectifiedSize() (int, int) {
	top := dist(q[0], q[1])
	bottom := dist(q[3], q[2])
	left := dist(q[0], q[3])
	right := dist(q[1], q[2])
	w := int(math.Max(top, bottom))
	h := int(math.Max(left, right))
	return w, h
}

func (q Quad) area() float64 {
	// shoelace over the ordered corners
	var s float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		s += float64(q[i].X)*float64(q[j].Y) - float64(q[j].X)*float64(q[i].Y)
	}
	return math.Abs(s) / 2
}

// ratioScore compares the candidate's aspect ratio against the target
// (sqrt 2 for A4). 1.0 at a perfect match, falling linearly to 0 at the edge
// of the tolerance band, 0 outside it. Orientation does not matter.
func (q Quad) ratioScore(target, tolerance float64) float64 {
	w, h := q.rectifiedSize()
	if w == 0 || h == 0 {
		return 0
	}
	long := math.Max(float64(w), float64(h))
	short := math.Min(float64(w), float64(h))
	observed := long / short
	band := target * tolerance
	dev := math.Abs(observed - target)
	if dev > band {
		return 0
	}
	return 1 - dev/band
}

// angleScore averages how close each interior angle is to 90 degrees. Any
// corner more than maxDevDeg off kills the candidate outright.
func (q Quad) angleScore(tolDeg, maxDevDeg float64) float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		prev := q[(i+3)%4]
		next := q[(i+1)%4]
		dev := math.Abs(interiorAngle(q[i], prev, next) - 90)
		if dev > maxDevDeg {
			return 0
		}
		closeness := 1 - dev/tolDeg
		if closeness < 0 {
			closeness = 0
		}
		sum += closeness
	}
	return sum / 4
}

// interiorAngle returns the angle at vertex v formed by the edges to a and b,
// in degrees.
func interiorAngle(v, a, b image.Point) float64 {
	ax := float64(a.X - v.X)
	ay := float64(a.Y - v.Y)
	bx := float64(b.X - v.X)
	by := float64(b.Y - v.Y)
	la := math.Hypot(ax, ay)
	lb := math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return 0
	}
	cos := (ax*bx + ay*by) / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}
