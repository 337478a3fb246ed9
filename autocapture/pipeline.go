package autocapture

import (
	"fmt"
	"os"
	"path/filepath"

	iface "ReceiptCapture/interface"
	"ReceiptCapture/logger"
	"ReceiptCapture/monitor"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Boundary finds the document in a snapshot and rectifies it.
type Boundary interface {
	DetectAndRectify(src gocv.Mat) (gocv.Mat, bool)
}

// TextDecoder is the full multi-strategy barcode decode.
type TextDecoder interface {
	Decode(m gocv.Mat) (string, bool)
}

// Uploader ships an accepted capture to the backend. Fire-and-forget: its
// outcome never changes the CaptureResult.
type Uploader interface {
	Upload(barcode, imagePath string) (string, error)
}

// UploadCallback is the side channel reporting a finished upload.
type UploadCallback func(barcode, imagePath, url string)

// Pipeline is the per-snapshot unit of work: rectify, decode, dedup,
// persist, upload. Process runs on the capture worker and must outlive any
// single bad frame, so every fault ends up as a Failure result.
type Pipeline struct {
	boundary        Boundary
	decoder         TextDecoder
	dedup           *Deduplicator
	outputDir       string
	decodeRectified bool

	uploader Uploader
	onUpload UploadCallback
}

func NewPipeline(boundary Boundary, decoder TextDecoder, dedup *Deduplicator, outputDir string, decodeRectified bool) *Pipeline {
	return &Pipeline{
		boundary:        boundary,
		decoder:         decoder,
		dedup:           dedup,
		outputDir:       outputDir,
		decodeRectified: decodeRectified,
	}
}

// SetUploader attaches the optional upload collaborator and its completion
// side channel.
func (p *Pipeline) SetUploader(u Uploader, cb UploadCallback) {
	p.uploader = u
	p.onUpload = cb
}

func (p *Pipeline) Dedup() *Deduplicator { return p.dedup }

// Process turns one owned snapshot into exactly one CaptureResult.
func (p *Pipeline) Process(f *iface.Frame) (res iface.CaptureResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log().Error("pipeline panic recovered", zap.Any("panic", r))
			res = iface.Failure(fmt.Sprintf("pipeline panic: %v", r))
			monitor.FailuresTotal.Inc()
		}
	}()

	raw, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pixels)
	if err != nil || raw.Empty() {
		monitor.FailuresTotal.Inc()
		return iface.Failure("snapshot is not a valid image")
	}
	defer raw.Close()

	rectified, haveRect := p.boundary.DetectAndRectify(raw)
	if haveRect {
		defer rectified.Close()
	} else {
		logger.Log().Debug("no document boundary found, using raw snapshot")
	}

	target := raw
	if haveRect && p.decodeRectified {
		target = rectified
	}

	barcode, ok := p.decoder.Decode(target)
	if !ok {
		monitor.FailuresTotal.Inc()
		return iface.Failure("decode failed")
	}

	if p.dedup.IsDuplicate(barcode) {
		monitor.DuplicatesTotal.Inc()
		return iface.Duplicate(barcode)
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		logger.Log().Error("cannot create output directory", zap.String("dir", p.outputDir), zap.Error(err))
		monitor.FailuresTotal.Inc()
		return iface.Failure(fmt.Sprintf("create output dir: %v", err))
	}

	save := raw
	if haveRect {
		save = rectified
	}
	path := filepath.Join(p.outputDir, barcode+".png")
	if !gocv.IMWrite(path, save) {
		logger.Log().Error("cannot write capture image", zap.String("path", path))
		monitor.FailuresTotal.Inc()
		return iface.Failure("write capture image failed")
	}

	monitor.CapturesTotal.Inc()
	logger.Log().Info("capture accepted",
		zap.String("barcode", barcode), zap.String("path", path))

	if p.uploader != nil {
		go p.uploadAsync(barcode, path)
	}

	return iface.Success(barcode, path)
}

func (p *Pipeline) uploadAsync(barcode, path string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log().Error("upload panic recovered", zap.Any("panic", r))
		}
	}()
	url, err := p.uploader.Upload(barcode, path)
	if err != nil {
		logger.Log().Warn("upload failed",
			zap.String("barcode", barcode), zap.Error(err))
		return
	}
	monitor.UploadsTotal.Inc()
	if p.onUpload != nil {
		p.onUpload(barcode, path, url)
	}
}
