package autocapture

import "sync"

// Deduplicator remembers every barcode accepted during this session. The
// worker calls IsDuplicate while the operator surface reads Count, so access
// is locked. Nothing survives a restart; Clear is an explicit operator
// action, never automatic.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// IsDuplicate is an atomic test-and-insert. Empty barcodes are never
// duplicates.
func (d *Deduplicator) IsDuplicate(barcode string) bool {
	if barcode == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[barcode]; ok {
		return true
	}
	d.seen[barcode] = struct{}{}
	return false
}

func (d *Deduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduplicator) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
}
