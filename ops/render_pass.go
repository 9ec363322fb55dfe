package ops

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/resource"
)

// Filter selects how textures are sampled.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Target describes the render target of a pass.
type Target struct {
	Texture     resource.Backing
	Width       int
	Height      int
	Format      gputypes.TextureFormat
	SampleCount uint32
}

// Bounds returns the full target rectangle.
func (t Target) Bounds() geom.IRect { return geom.IRectWH(t.Width, t.Height) }

// RenderPass records commands against one render target. The methods
// between Begin and End are only called on the goroutine that owns the
// context; state errors surface from End or Backend.Submit.
type RenderPass interface {
	Begin() error

	SetPipeline(p program.Program)
	SetUniformBuffer(buf resource.Backing, offset, size uint64)
	SetTexture(tex resource.Backing, filter Filter)
	SetVertexBuffer(buf resource.Backing, offset uint64)

	// SetIndexBuffer binds a buffer of uint16 indices.
	SetIndexBuffer(buf resource.Backing, offset uint64)

	Draw(vertexCount, firstVertex uint32)
	DrawIndexed(indexCount, firstIndex uint32, baseVertex int32)

	// Clear sets every pixel of scissor to c.
	Clear(scissor geom.IRect, c Color)

	// Resolve writes the multisampled target's pixels in rect to dst.
	Resolve(dst resource.Backing, rect geom.IRect)

	// CopyToTexture copies srcRect of src into the target at dst.
	CopyToTexture(src resource.Backing, srcRect geom.IRect, dst geom.IPoint)

	End() error
}

// Backend is everything the core needs from a graphics API.
type Backend interface {
	resource.Allocator
	program.Compiler

	// BeginRenderPass returns a pass drawing into target.
	BeginRenderPass(target Target) (RenderPass, error)

	// Submit sends a finished pass to the GPU.
	Submit(pass RenderPass) error

	// Abandon marks the device lost. Later native calls are skipped.
	Abandon()
}
