package autocapture

import (
	"sync"

	iface "ReceiptCapture/interface"

	"ReceiptCapture/config"
)

// FrameChangeDetector answers one question about the raw stream: is the
// scene moving right now. It samples a sparse pixel grid against the last
// retained frame; no CV library involved, this runs on every tick.
//
// Baseline (re)establishment is distinct from comparison: the first frame
// after construction, Reset or a dimension change only installs the baseline
// and reports "not changing". Without that, re-enabling the service with a
// sheet already lying on the mat would fire a spurious motion event.
//
// The camera goroutine drives IsChanging while the operator surface calls
// Reset, so the baseline is mutex-guarded.
type FrameChangeDetector struct {
	cfg config.MotionConfig

	mu   sync.Mutex
	last *iface.Frame
}

func NewFrameChangeDetector(cfg config.MotionConfig) *FrameChangeDetector {
	return &FrameChangeDetector{cfg: cfg}
}

// Initialize installs f as the baseline without signalling change.
func (d *FrameChangeDetector) Initialize(f *iface.Frame) {
	if f == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = f.Clone()
}

// Reset drops the baseline; the next frame re-establishes it.
func (d *FrameChangeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = nil
}

// IsChanging compares f against the retained baseline and then retains f,
// whatever the outcome.
func (d *FrameChangeDetector) IsChanging(f *iface.Frame) bool {
	if f == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.last == nil || f.Width != d.last.Width || f.Height != d.last.Height {
		d.last = f.Clone()
		return false
	}

	stride := d.cfg.SampleStride
	diffCount := 0
	changed := false

sample:
	for y := 0; y < f.Height; y += stride {
		for x := 0; x < f.Width; x += stride {
			b, g, r := f.BGRAt(x, y)
			lb, lg, lr := d.last.BGRAt(x, y)
			diff := absInt(int(b)-int(lb)) +
				absInt(int(g)-int(lg)) +
				absInt(int(r)-int(lr))
			if diff > d.cfg.DiffThreshold {
				diffCount++
				if diffCount > d.cfg.ChangeCountThreshold {
					changed = true
					break sample
				}
			}
		}
	}

	d.last = f.Clone()
	return changed
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
