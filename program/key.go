package program

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Key is the structural identity of a program. Two creators that produce
// interchangeable programs produce equal keys.
type Key struct {
	hash uint64
	data string
}

// Hash returns the FNV-1a hash of the key bytes.
func (k Key) Hash() uint64 { return k.hash }

// Len returns the key size in bytes.
func (k Key) Len() int { return len(k.data) }

// IsValid reports whether the key holds any data.
func (k Key) IsValid() bool { return k.data != "" }

// KeyBuilder accumulates key bytes. The zero value is ready to use.
type KeyBuilder struct {
	buf []byte
}

// Reset clears the builder, keeping its storage.
func (b *KeyBuilder) Reset() { b.buf = b.buf[:0] }

// AddUint8 appends one byte.
func (b *KeyBuilder) AddUint8(v uint8) { b.buf = append(b.buf, v) }

// AddUint32 appends v in little-endian order.
func (b *KeyBuilder) AddUint32(v uint32) { b.buf = binary.LittleEndian.AppendUint32(b.buf, v) }

// AddFloat32 appends the bits of v.
func (b *KeyBuilder) AddFloat32(v float32) { b.AddUint32(math.Float32bits(v)) }

// AddBool appends a single byte for v.
func (b *KeyBuilder) AddBool(v bool) {
	if v {
		b.AddUint8(1)
		return
	}
	b.AddUint8(0)
}

// AddString appends s with a length prefix so adjacent strings cannot alias.
func (b *KeyBuilder) AddString(s string) {
	b.AddUint32(uint32(len(s))) //nolint:gosec // G115: shader names are short
	b.buf = append(b.buf, s...)
}

// Key returns the key built so far.
func (b *KeyBuilder) Key() Key {
	h := fnv.New64a()
	_, _ = h.Write(b.buf)
	return Key{hash: h.Sum64(), data: string(b.buf)}
}
