package capture

import (
	"hash/crc32"
	"sync"
	"sync/atomic"
)

// FrameDiffer detects unchanged captures via a CRC32 of the encoded
// bytes, so watch-mode consumers can skip storing identical frames.
type FrameDiffer struct {
	mu          sync.Mutex
	lastHash    uint32
	hasLastHash bool
	skipped     atomic.Uint64
	total       atomic.Uint64
}

func NewFrameDiffer() *FrameDiffer {
	return &FrameDiffer{}
}

// Changed hashes data and reports whether it differs from the previous
// call. The first call always reports true.
func (d *FrameDiffer) Changed(data []byte) bool {
	d.total.Add(1)
	h := crc32.ChecksumIEEE(data)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasLastHash && h == d.lastHash {
		d.skipped.Add(1)
		return false
	}
	d.lastHash = h
	d.hasLastHash = true
	return true
}

// Reset clears the stored hash, e.g. when the watched region changes.
func (d *FrameDiffer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasLastHash = false
}

// Stats returns (total frames checked, frames skipped as unchanged).
func (d *FrameDiffer) Stats() (total, skipped uint64) {
	return d.total.Load(), d.skipped.Load()
}
