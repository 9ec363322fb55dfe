package resource

import (
	"errors"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

type fakeBacking struct {
	destroyed atomic.Int32
}

func (b *fakeBacking) Destroy() { b.destroyed.Add(1) }

type fakeAllocator struct {
	textures int
	buffers  int
	writes   int
	maxSize  int
	fail     bool
}

var errFake = errors.New("fake allocation failure")

func (a *fakeAllocator) CreateTexture(TextureDesc, []byte) (Backing, error) {
	if a.fail {
		return nil, errFake
	}
	a.textures++
	return &fakeBacking{}, nil
}

func (a *fakeAllocator) CreateBuffer(BufferDesc, []byte) (Backing, error) {
	if a.fail {
		return nil, errFake
	}
	a.buffers++
	return &fakeBacking{}, nil
}

func (a *fakeAllocator) WriteBuffer(Backing, uint64, []byte) error {
	a.writes++
	return nil
}

func (a *fakeAllocator) MaxTextureSize() int { return a.maxSize }

// texDesc returns a w x h RGBA8 descriptor (4*w*h bytes).
func texDesc(w, h int) TextureDesc {
	return TextureDesc{
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// addKeyed creates a scratch-keyed texture in c and drops the creator ref.
func addKeyed(c *Cache, w, h int) (*Resource, *fakeBacking) {
	b := &fakeBacking{}
	desc := texDesc(w, h)
	r := NewTexture(desc, b, true)
	r.scratchKey = desc.ScratchKey()
	c.Add(r)
	return r, b
}
