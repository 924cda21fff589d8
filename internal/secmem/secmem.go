// Package secmem holds auth tokens with best-effort memory hygiene.
package secmem

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// SecureString holds a sensitive value with best-effort zeroing. Go's
// GC may have copied the backing array before Zero runs, so this is
// defense in depth, not a guarantee.
//
// Every fmt verb and marshaler renders [REDACTED]; only Reveal returns
// the plaintext. Call Reveal at the point of use, such as building an
// Authorization header, and Zero in shutdown paths.
type SecureString struct {
	mu     sync.Mutex
	data   []byte
	zeroed atomic.Bool
}

// NewSecureString copies s into a SecureString.
func NewSecureString(s string) *SecureString {
	b := make([]byte, len(s))
	copy(b, s)
	return &SecureString{data: b}
}

// Reveal returns the plaintext value. Returns "" on a nil receiver or
// after Zero.
func (s *SecureString) Reveal() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data)
}

// IsZeroed reports whether Zero has been called.
func (s *SecureString) IsZeroed() bool {
	if s == nil {
		return false
	}
	return s.zeroed.Load()
}

// Zero overwrites the backing bytes in place and drops them.
func (s *SecureString) Zero() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data {
		s.data[i] = 0
	}
	s.data = nil
	s.zeroed.Store(true)
}

// String returns [REDACTED] so fmt.Stringer usage cannot leak the value.
func (s *SecureString) String() string {
	return "[REDACTED]"
}

// GoString keeps %#v from dumping the struct fields.
func (s *SecureString) GoString() string {
	return "[REDACTED]"
}

// Format implements fmt.Formatter so every verb produces [REDACTED].
func (s *SecureString) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, "[REDACTED]")
}

// MarshalJSON redacts the value when a config struct gets serialized.
func (s *SecureString) MarshalJSON() ([]byte, error) {
	return json.Marshal("[REDACTED]")
}

// MarshalText redacts the value for text-based encoders.
func (s *SecureString) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// UnmarshalJSON rejects deserialization; tokens enter through
// NewSecureString only.
func (s *SecureString) UnmarshalJSON(data []byte) error {
	return fmt.Errorf("secmem: cannot deserialize into SecureString")
}
