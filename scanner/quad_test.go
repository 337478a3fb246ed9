package scanner

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

var a4ish = []image.Point{
	{X: 100, Y: 100},  // TL
	{X: 666, Y: 100},  // TR
	{X: 666, Y: 500},  // BR
	{X: 100, Y: 500},  // BL
}

func TestOrderQuad(t *testing.T) {
	want := Quad{a4ish[0], a4ish[1], a4ish[2], a4ish[3]}

	perms := [][]image.Point{
		{a4ish[0], a4ish[1], a4ish[2], a4ish[3]},
		{a4ish[2], a4ish[0], a4ish[3], a4ish[1]},
		{a4ish[3], a4ish[2], a4ish[1], a4ish[0]},
		{a4ish[1], a4ish[3], a4ish[0], a4ish[2]},
	}
	for _, pts := range perms {
		q, ok := orderQuad(pts)
		assert.True(t, ok)
		assert.Equal(t, want, q, "canonical order must not depend on input order")
	}
}

func TestOrderQuad_Degenerate(t *testing.T) {
	// two points in the same quadrant: ambiguous, rejected
	_, ok := orderQuad([]image.Point{{0, 0}, {1, 1}, {100, 100}, {0, 100}})
	assert.False(t, ok)

	_, ok = orderQuad([]image.Point{{0, 0}, {10, 0}, {20, 0}})
	assert.False(t, ok)
}

func TestRectifiedSize(t *testing.T) {
	// trapezoid: top edge 400, bottom edge 440, left 300, right 310
	q, ok := orderQuad([]image.Point{
		{X: 120, Y: 100},
		{X: 520, Y: 100},
		{X: 540, Y: 410},
		{X: 100, Y: 400},
	})
	assert.True(t, ok)
	w, h := q.rectifiedSize()
	assert.Equal(t, 440, w, "width is the longer of the two horizontal edges")
	assert.GreaterOrEqual(t, h, 310)
	assert.LessOrEqual(t, h, 312)
}

func TestRatioScore(t *testing.T) {
	q, _ := orderQuad(a4ish)

	t.Run("near target scores high", func(t *testing.T) {
		// 566 x 400 is ratio 1.415, nearly sqrt 2
		s := q.ratioScore(1.4142, 0.15)
		assert.Greater(t, s, 0.95)
	})

	t.Run("square is outside tolerance", func(t *testing.T) {
		sq, _ := orderQuad([]image.Point{{0, 0}, {400, 0}, {400, 400}, {0, 400}})
		assert.Equal(t, 0.0, sq.ratioScore(1.4142, 0.15))
	})

	t.Run("orientation does not matter", func(t *testing.T) {
		portrait, _ := orderQuad([]image.Point{{0, 0}, {400, 0}, {400, 566}, {0, 566}})
		landscape, _ := orderQuad([]image.Point{{0, 0}, {566, 0}, {566, 400}, {0, 400}})
		assert.InDelta(t, portrait.ratioScore(1.4142, 0.15), landscape.ratioScore(1.4142, 0.15), 1e-9)
	})
}

func TestAngleScore(t *testing.T) {
	t.Run("right angles score 1", func(t *testing.T) {
		q, _ := orderQuad(a4ish)
		assert.InDelta(t, 1.0, q.angleScore(15, 45), 1e-9)
	})

	t.Run("mild skew degrades", func(t *testing.T) {
		q, ok := orderQuad([]image.Point{
			{X: 110, Y: 100},
			{X: 670, Y: 140},
			{X: 656, Y: 540},
			{X: 100, Y: 500},
		})
		assert.True(t, ok)
		s := q.angleScore(15, 45)
		assert.Greater(t, s, 0.0)
		assert.Less(t, s, 1.0)
	})

	t.Run("extreme corner kills the candidate", func(t *testing.T) {
		// a sliver with corners far from 90 degrees
		q, ok := orderQuad([]image.Point{
			{X: 0, Y: 0},
			{X: 600, Y: 180},
			{X: 620, Y: 220},
			{X: 20, Y: 40},
		})
		if ok {
			assert.Equal(t, 0.0, q.angleScore(15, 45))
		}
	})
}

func TestQuadArea(t *testing.T) {
	q, _ := orderQuad(a4ish)
	assert.InDelta(t, 566*400, q.area(), 0.5)
}
