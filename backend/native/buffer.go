package native

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/resource"
)

// Buffer is a HAL buffer.
type Buffer struct {
	owner *Backend
	desc  resource.BufferDesc
	buf   hal.Buffer
}

// Raw returns the HAL buffer, or nil once destroyed.
func (b *Buffer) Raw() hal.Buffer { return b.buf }

// Destroy implements resource.Backing.
func (b *Buffer) Destroy() {
	if b.buf == nil {
		return
	}
	if !b.owner.abandoned.Load() {
		b.owner.device.DestroyBuffer(b.buf)
	}
	b.buf = nil
	b.owner.live.Add(-1)
}
