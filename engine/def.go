// Package engine decodes document barcodes. Two engine variants sit behind
// iface.DecodeEngine and the Decoder runs them in a fixed fallback order:
// fast engine on the barcode corner crop, fast engine on the full image,
// thorough engine, then a preprocessing ladder and rotated retries.
package engine

import (
	"errors"
	"regexp"
)

// ErrNotFound is the decode miss. Every other error from an engine is also a
// miss as far as the pipeline is concerned; this one just says so explicitly.
var ErrNotFound = errors.New("no barcode found")

var alnum = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// validText is the shared validity predicate. It does not care which engine
// produced the text: delivery note numbers are plain alphanumerics inside
// fixed length bounds, anything else is treated as no detection.
func validText(text string, minLen, maxLen int) bool {
	if len(text) < minLen || len(text) > maxLen {
		return false
	}
	return alnum.MatchString(text)
}
