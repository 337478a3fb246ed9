package engine

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/common"
	"github.com/makiuchi-d/gozxing/oned"
)

// FastEngine is the first-line decoder: one pass with the adaptive binarizer
// over the 1D symbologies the delivery notes actually carry, Code128 first.
// Not safe for concurrent use; the capture worker is the only caller.
type FastEngine struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewFastEngine() *FastEngine {
	return &FastEngine{
		readers: []gozxing.Reader{
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewEAN13Reader(),
			oned.NewUPCAReader(),
			oned.NewCode93Reader(),
			oned.NewITFReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (e *FastEngine) Name() string { return "zxing-fast" }

func (e *FastEngine) Decode(img image.Image) (string, error) {
	src := gozxing.NewLuminanceSourceFromImage(img)
	bmp, err := gozxing.NewBinaryBitmap(common.NewHybridBinarizer(src))
	if err != nil {
		return "", ErrNotFound
	}
	for _, r := range e.readers {
		result, err := r.Decode(bmp, e.hints)
		if err == nil && result.GetText() != "" {
			return result.GetText(), nil
		}
	}
	return "", ErrNotFound
}

// DeepEngine is the fallback decoder: Code128 only, tried with both the
// adaptive local binarizer and the global histogram one. Slower, but it
// recovers low-contrast and glare-damaged prints the fast pass gives up on.
type DeepEngine struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewDeepEngine() *DeepEngine {
	return &DeepEngine{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
				gozxing.BarcodeFormat_CODE_128,
			},
		},
	}
}

func (e *DeepEngine) Name() string { return "zxing-deep" }

func (e *DeepEngine) Decode(img image.Image) (string, error) {
	src := gozxing.NewLuminanceSourceFromImage(img)
	binarizers := []gozxing.Binarizer{
		common.NewHybridBinarizer(src),
		common.NewGlobalHistgramBinarizer(src),
	}
	for _, b := range binarizers {
		bmp, err := gozxing.NewBinaryBitmap(b)
		if err != nil {
			continue
		}
		result, err := oned.NewCode128Reader().Decode(bmp, e.hints)
		if err == nil && result.GetText() != "" {
			return result.GetText(), nil
		}
	}
	return "", ErrNotFound
}
