package software

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gr/resource"
)

// Buffer is a buffer backing.
type Buffer struct {
	owner *Backend
	desc  resource.BufferDesc
	data  []byte
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Destroy implements resource.Backing.
func (b *Buffer) Destroy() {
	if b.data == nil {
		return
	}
	b.data = nil
	b.owner.destroyed()
}

// float32At reads the little-endian float at byte offset off.
func (b *Buffer) float32At(off uint64) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b.data[off:]))
}

func (b *Buffer) uint16At(off uint64) uint16 {
	return binary.LittleEndian.Uint16(b.data[off:])
}
