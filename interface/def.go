package iface

import (
	"image"
	"time"
)

// Frame is one camera snapshot. Pixels are packed BGR, 3 bytes per pixel,
// row-major, matching an 8UC3 Mat. A Frame handed to the capture worker must
// be a Clone; the producer never touches it again.
type Frame struct {
	Width     int
	Height    int
	Pixels    []byte
	Timestamp time.Time
}

func NewFrame(width, height int, pixels []byte, ts time.Time) *Frame {
	return &Frame{Width: width, Height: height, Pixels: pixels, Timestamp: ts}
}

func (f *Frame) Clone() *Frame {
	pixels := make([]byte, len(f.Pixels))
	copy(pixels, f.Pixels)
	return &Frame{Width: f.Width, Height: f.Height, Pixels: pixels, Timestamp: f.Timestamp}
}

// BGRAt returns the blue, green and red channel values at (x, y).
func (f *Frame) BGRAt(x, y int) (byte, byte, byte) {
	i := (y*f.Width + x) * 3
	return f.Pixels[i], f.Pixels[i+1], f.Pixels[i+2]
}

// DecodeEngine is the capability every barcode engine exposes. A miss is
// engine.ErrNotFound, not a fault.
type DecodeEngine interface {
	Name() string
	Decode(img image.Image) (string, error)
}

type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultDuplicate
	ResultFailure
)

// CaptureResult is the single outcome of one pipeline run.
type CaptureResult struct {
	Kind      ResultKind
	Barcode   string
	ImagePath string
	Err       string
}

func Success(barcode, imagePath string) CaptureResult {
	return CaptureResult{Kind: ResultSuccess, Barcode: barcode, ImagePath: imagePath}
}

func Duplicate(barcode string) CaptureResult {
	return CaptureResult{Kind: ResultDuplicate, Barcode: barcode}
}

func Failure(reason string) CaptureResult {
	return CaptureResult{Kind: ResultFailure, Err: reason}
}
