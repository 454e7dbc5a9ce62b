package memory

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by Flat when an access leaves its backing store.
var ErrOutOfRange = errors.New("guest memory access out of range")

// Flat is a contiguous block of guest memory starting at a base address.
// It implements interfaces.GuestMemory for tests and the demo player.
type Flat struct {
	base uint64
	data []byte
}

// NewFlat allocates size zeroed bytes mapped at base.
func NewFlat(base uint64, size int) *Flat {
	return &Flat{base: base, data: make([]byte, size)}
}

func (f *Flat) offset(address uint64, n int) (uint64, error) {
	if address < f.base {
		return 0, fmt.Errorf("%w: %#x below base %#x", ErrOutOfRange, address, f.base)
	}
	off := address - f.base
	if off+uint64(n) < off || off+uint64(n) > uint64(len(f.data)) {
		return 0, fmt.Errorf("%w: %d bytes at %#x", ErrOutOfRange, n, address)
	}
	return off, nil
}

// ReadAt copies len(p) bytes starting at address into p.
func (f *Flat) ReadAt(p []byte, address uint64) error {
	off, err := f.offset(address, len(p))
	if err != nil {
		return err
	}
	copy(p, f.data[off:])
	return nil
}

// WriteAt copies p into memory starting at address.
func (f *Flat) WriteAt(p []byte, address uint64) error {
	off, err := f.offset(address, len(p))
	if err != nil {
		return err
	}
	copy(f.data[off:], p)
	return nil
}

// Base returns the first mapped address.
func (f *Flat) Base() uint64 {
	return f.base
}

// Size returns the number of mapped bytes.
func (f *Flat) Size() int {
	return len(f.data)
}
