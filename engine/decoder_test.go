package engine

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"ReceiptCapture/config"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type engineCall struct {
	engine string
	w, h   int
}

// scriptedEngine records every call into a shared log and answers from a
// per-call script, missing once the script runs out.
type scriptedEngine struct {
	name   string
	log    *[]engineCall
	script []string
	n      int
}

func (e *scriptedEngine) Name() string { return e.name }

func (e *scriptedEngine) Decode(img image.Image) (string, error) {
	b := img.Bounds()
	*e.log = append(*e.log, engineCall{engine: e.name, w: b.Dx(), h: b.Dy()})
	i := e.n
	e.n++
	if i < len(e.script) && e.script[i] != "" {
		return e.script[i], nil
	}
	return "", ErrNotFound
}

func decoderCfg() config.DecoderConfig {
	return config.Default().Decoder
}

func blankMat(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), h, w, gocv.MatTypeCV8UC3)
}

func TestDecode_StrategyOrder(t *testing.T) {
	var log []engineCall
	primary := &scriptedEngine{name: "p", log: &log}
	secondary := &scriptedEngine{name: "s", log: &log}

	cfg := decoderCfg()
	cfg.MaxRotations = 0
	d := NewDecoder(primary, secondary, cfg)

	m := blankMat(800, 600)
	defer m.Close()

	_, ok := d.Decode(m)
	assert.False(t, ok)

	// corner crop first, then full-image passes, then the secondary-only
	// enhancement ladder (gray, contrast, otsu, two upscales)
	expected := []engineCall{
		{"p", 320, 150},
		{"p", 800, 600},
		{"s", 800, 600},
		{"s", 800, 600},
		{"s", 800, 600},
		{"s", 800, 600},
		{"s", 1200, 900},
		{"s", 1600, 1200},
	}
	assert.Equal(t, expected, log)
}

func TestDecode_FirstHitShortCircuits(t *testing.T) {
	var log []engineCall
	primary := &scriptedEngine{name: "p", log: &log, script: []string{"X202601200000093601"}}
	secondary := &scriptedEngine{name: "s", log: &log}

	d := NewDecoder(primary, secondary, decoderCfg())
	m := blankMat(800, 600)
	defer m.Close()

	code, ok := d.Decode(m)
	assert.True(t, ok)
	assert.Equal(t, "X202601200000093601", code)
	assert.Len(t, log, 1)
}

func TestDecode_InvalidTextKeepsSearching(t *testing.T) {
	var log []engineCall
	// primary always answers, but with text the validity predicate rejects
	primary := &scriptedEngine{name: "p", log: &log, script: []string{"ab", "ab"}}
	secondary := &scriptedEngine{name: "s", log: &log, script: []string{"GOODCODE42"}}

	cfg := decoderCfg()
	cfg.MaxRotations = 0
	d := NewDecoder(primary, secondary, cfg)
	m := blankMat(800, 600)
	defer m.Close()

	code, ok := d.Decode(m)
	assert.True(t, ok)
	assert.Equal(t, "GOODCODE42", code)
}

func TestDecode_EmptyMat(t *testing.T) {
	d := NewDecoder(NewFastEngine(), NewDeepEngine(), decoderCfg())
	_, ok := d.Decode(gocv.Mat{})
	assert.False(t, ok)
}

func TestRoiRect(t *testing.T) {
	d := NewDecoder(nil, nil, decoderCfg())

	t.Run("proportional crop with pixel floor", func(t *testing.T) {
		r, ok := d.roiRect(800, 600)
		require.True(t, ok)
		// width 0.40*800=320; height 0.20*600=120 raised to the 150 floor
		assert.Equal(t, image.Rect(480, 36, 800, 186), r)
	})

	t.Run("image too small to crop", func(t *testing.T) {
		_, ok := d.roiRect(200, 100)
		assert.False(t, ok)
	})

	t.Run("offset clamped to image bottom", func(t *testing.T) {
		r, ok := d.roiRect(900, 155)
		require.True(t, ok)
		assert.Equal(t, 155, r.Max.Y)
	})
}

// barcodeMat renders value as Code128 on a white sheet with quiet margins.
func barcodeMat(t *testing.T, value string, w, h int) gocv.Mat {
	t.Helper()
	bc, err := code128.Encode(value)
	require.NoError(t, err)
	scaled, err := barcode.Scale(bc, w, h)
	require.NoError(t, err)

	sheet := image.NewRGBA(image.Rect(0, 0, w+120, h+80))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(sheet, scaled.Bounds().Add(image.Pt(60, 40)), scaled, image.Point{}, draw.Over)

	m, err := gocv.ImageToMatRGB(sheet)
	require.NoError(t, err)
	return m
}

func TestDecode_RealCode128Roundtrip(t *testing.T) {
	m := barcodeMat(t, "X202601200000093601", 600, 200)
	defer m.Close()

	d := NewDecoder(NewFastEngine(), NewDeepEngine(), decoderCfg())
	code, ok := d.Decode(m)
	assert.True(t, ok)
	assert.Equal(t, "X202601200000093601", code)
}

func TestDecode_RotatedCode128(t *testing.T) {
	flat := barcodeMat(t, "J202601200000093601", 600, 200)
	defer flat.Close()

	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.Rotate(flat, &rotated, gocv.Rotate90Clockwise)

	d := NewDecoder(NewFastEngine(), NewDeepEngine(), decoderCfg())
	code, ok := d.Decode(rotated)
	assert.True(t, ok)
	assert.Equal(t, "J202601200000093601", code)
}

func TestDecode_BlankImageMisses(t *testing.T) {
	m := blankMat(640, 480)
	defer m.Close()

	d := NewDecoder(NewFastEngine(), NewDeepEngine(), decoderCfg())
	_, ok := d.Decode(m)
	assert.False(t, ok)
}
