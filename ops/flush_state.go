package ops

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

// minUploadSize is the smallest scratch buffer handed out for uploads.
// Sizes are rounded up to a power of two so buffers are reused across
// flushes.
const minUploadSize = 256

// FlushState carries per-flush state: the backend, the providers, the
// render target and pass of the task being executed, and the scratch
// upload buffers allocated so far.
type FlushState struct {
	backend   Backend
	resources *resource.Provider
	programs  *program.Cache

	target   *proxy.RenderTargetProxy
	pass     RenderPass
	viewport *resource.Resource
	uploads  []*resource.Resource
}

// NewFlushState returns a flush state for one context.
func NewFlushState(backend Backend, resources *resource.Provider, programs *program.Cache) *FlushState {
	return &FlushState{backend: backend, resources: resources, programs: programs}
}

// Backend returns the backend the flush submits to.
func (fs *FlushState) Backend() Backend { return fs.backend }

// Resources returns the resource provider.
func (fs *FlushState) Resources() *resource.Provider { return fs.resources }

// Target returns the render target of the task being executed.
func (fs *FlushState) Target() *proxy.RenderTargetProxy { return fs.target }

// TargetFormat returns the format of the current render target.
func (fs *FlushState) TargetFormat() gputypes.TextureFormat { return fs.target.Format() }

// TargetSamples returns the sample count of the current render target.
func (fs *FlushState) TargetSamples() uint32 { return fs.target.SampleCount() }

// Program returns the compiled program for creator.
func (fs *FlushState) Program(c program.Creator) (program.Program, error) {
	return fs.programs.GetProgram(c)
}

// UploadVertices copies data into a scratch vertex buffer that lives until
// the end of the flush.
func (fs *FlushState) UploadVertices(data []byte) (*resource.Resource, error) {
	return fs.upload(data, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, "vertices")
}

// UploadIndices copies uint16 indices into a scratch index buffer.
func (fs *FlushState) UploadIndices(data []byte) (*resource.Resource, error) {
	return fs.upload(data, gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst, "indices")
}

// ViewportUniform returns the uniform buffer holding the target size,
// created once per task.
func (fs *FlushState) ViewportUniform() (*resource.Resource, error) {
	if fs.viewport != nil {
		return fs.viewport, nil
	}
	w, h := fs.target.Dimensions()
	data := make([]byte, program.UniformSize)
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(float32(h)))
	r, err := fs.upload(data, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, "viewport")
	if err != nil {
		return nil, err
	}
	fs.viewport = r
	return r, nil
}

func (fs *FlushState) upload(data []byte, usage gputypes.BufferUsage, label string) (*resource.Resource, error) {
	size := uint64(minUploadSize)
	if n := uint64(len(data)); n > size {
		size = 1 << bits.Len64(n-1)
	}
	r, err := fs.resources.FindOrCreateScratchBuffer(resource.BufferDesc{Size: size, Usage: usage, Label: label})
	if err != nil {
		return nil, err
	}
	fs.uploads = append(fs.uploads, r)
	if err := fs.resources.WriteBuffer(r, data); err != nil {
		return nil, err
	}
	return r, nil
}

func (fs *FlushState) beginTask(target *proxy.RenderTargetProxy) {
	fs.target = target
	fs.viewport = nil
}

func (fs *FlushState) endTask() {
	fs.target = nil
	fs.pass = nil
	fs.viewport = nil
}

// ReleaseUploads drops the flush's references to its scratch buffers so
// the cache can hand them out again.
func (fs *FlushState) ReleaseUploads() {
	for _, r := range fs.uploads {
		r.Unref()
	}
	fs.uploads = fs.uploads[:0]
}

// NumUploads returns the number of scratch buffers held by the flush.
func (fs *FlushState) NumUploads() int { return len(fs.uploads) }
