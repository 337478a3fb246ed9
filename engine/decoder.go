package engine

import (
	"image"

	"ReceiptCapture/config"
	iface "ReceiptCapture/interface"
	"ReceiptCapture/logger"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Decoder runs the full multi-strategy decode against one image. Strategy
// order, first valid result wins:
//
//  1. primary engine on the top-right corner crop (cheap, hits most frames)
//  2. primary engine on the full image
//  3. secondary engine on the full image
//  4. secondary engine over the enhancement ladder
//     (grayscale, contrast stretch, Otsu, upscales)
//  5. all of the above against 90-degree rotated variants, bounded
type Decoder struct {
	primary   iface.DecodeEngine
	secondary iface.DecodeEngine
	cfg       config.DecoderConfig
}

func NewDecoder(primary, secondary iface.DecodeEngine, cfg config.DecoderConfig) *Decoder {
	return &Decoder{primary: primary, secondary: secondary, cfg: cfg}
}

// Decode returns the barcode text, or false when every strategy missed.
// The caller keeps ownership of m.
func (d *Decoder) Decode(m gocv.Mat) (string, bool) {
	if m.Empty() {
		return "", false
	}

	cur := m
	for rot := 0; ; rot++ {
		if code, ok := d.decodeOriented(cur); ok {
			if rot > 0 {
				cur.Close()
				logger.Log().Debug("decoded after rotation", zap.Int("quarterTurns", rot))
			}
			return code, true
		}
		if rot >= d.cfg.MaxRotations {
			if rot > 0 {
				cur.Close()
			}
			return "", false
		}
		next := rotate90(cur)
		if rot > 0 {
			cur.Close()
		}
		cur = next
	}
}

func (d *Decoder) decodeOriented(m gocv.Mat) (string, bool) {
	// 1. corner crop, primary
	if r, ok := d.roiRect(m.Cols(), m.Rows()); ok {
		region := m.Region(r)
		code, hit := d.try(d.primary, region)
		region.Close()
		if hit {
			return code, true
		}
	}

	// 2. full image, primary
	if code, ok := d.try(d.primary, m); ok {
		return code, true
	}

	// 3. full image, secondary (two binarizers inside)
	if code, ok := d.try(d.secondary, m); ok {
		return code, true
	}

	// 4. enhancement ladder, secondary
	gray := grayscale(m)
	defer gray.Close()

	variants := []gocv.Mat{gray.Clone(), contrastStretch(gray), binarizeOtsu(gray)}
	for _, s := range d.cfg.Scales {
		variants = append(variants, upscale(gray, s))
	}
	for i, v := range variants {
		code, ok := d.try(d.secondary, v)
		v.Close()
		if ok {
			for _, rest := range variants[i+1:] {
				rest.Close()
			}
			return code, true
		}
	}
	return "", false
}

func (d *Decoder) try(eng iface.DecodeEngine, m gocv.Mat) (string, bool) {
	img, err := m.ToImage()
	if err != nil {
		return "", false
	}
	text, err := eng.Decode(img)
	if err != nil {
		return "", false
	}
	if !validText(text, d.cfg.MinLength, d.cfg.MaxLength) {
		logger.Log().Debug("decoded text rejected by validity predicate",
			zap.String("engine", eng.Name()), zap.Int("len", len(text)))
		return "", false
	}
	return text, true
}

// roiRect is the barcode corner of an A4 delivery note: a proportional crop
// of the top-right, offset down past the printed header, with a pixel floor
// so tiny frames do not produce useless slivers. Returns false when the
// image is too small to crop meaningfully.
func (d *Decoder) roiRect(w, h int) (image.Rectangle, bool) {
	cropW := int(float64(w) * d.cfg.ROIWidthFrac)
	cropH := int(float64(h) * d.cfg.ROIHeightFrac)
	if cropW < d.cfg.ROIMinWidth {
		cropW = d.cfg.ROIMinWidth
	}
	if cropH < d.cfg.ROIMinHeight {
		cropH = d.cfg.ROIMinHeight
	}
	if cropW >= w || cropH >= h {
		return image.Rectangle{}, false
	}

	x := w - cropW
	y := int(float64(h) * d.cfg.ROITopFrac)
	if y+cropH > h {
		y = h - cropH
	}
	return image.Rect(x, y, x+cropW, y+cropH), true
}
