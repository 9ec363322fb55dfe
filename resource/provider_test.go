package resource

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestProviderCreateTextureErrors(t *testing.T) {
	tests := []struct {
		name  string
		desc  TextureDesc
		alloc *fakeAllocator
		want  error
	}{
		{"zero size", texDesc(0, 4), &fakeAllocator{}, ErrInvalidDescriptor},
		{"too large", texDesc(4097, 4), &fakeAllocator{maxSize: 4096}, ErrTooLarge},
		{"default limit", texDesc(DefaultMaxTextureSize+1, 1), &fakeAllocator{}, ErrTooLarge},
		{"allocation", texDesc(4, 4), &fakeAllocator{fail: true}, ErrAllocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(NewCache(0), tt.alloc)
			_, err := p.CreateTexture(tt.desc, true, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProviderAbandoned(t *testing.T) {
	c := NewCache(0)
	p := NewProvider(c, &fakeAllocator{})
	c.Abandon()

	if _, err := p.CreateTexture(texDesc(4, 4), true, nil); !errors.Is(err, ErrAbandoned) {
		t.Errorf("CreateTexture err = %v, want ErrAbandoned", err)
	}
	if _, err := p.FindOrCreateScratchBuffer(BufferDesc{Size: 64}); !errors.Is(err, ErrAbandoned) {
		t.Errorf("FindOrCreateScratchBuffer err = %v, want ErrAbandoned", err)
	}
}

func TestProviderScratchTextureReuse(t *testing.T) {
	alloc := &fakeAllocator{}
	c := NewCache(0)
	p := NewProvider(c, alloc)
	desc := texDesc(64, 64)

	r1, err := p.FindOrCreateScratchTexture(desc)
	if err != nil {
		t.Fatal(err)
	}
	r1.Unref()
	c.ProcessMessages()

	r2, err := p.FindOrCreateScratchTexture(desc)
	if err != nil {
		t.Fatal(err)
	}
	if r2 != r1 {
		t.Error("scratch texture not reused")
	}
	if alloc.textures != 1 {
		t.Errorf("allocations = %d, want 1", alloc.textures)
	}

	// While r2 is held, a second request allocates.
	r3, err := p.FindOrCreateScratchTexture(desc)
	if err != nil {
		t.Fatal(err)
	}
	if r3 == r2 || alloc.textures != 2 {
		t.Error("held scratch texture handed out twice")
	}
}

func TestProviderScratchBufferAndWrite(t *testing.T) {
	alloc := &fakeAllocator{}
	p := NewProvider(NewCache(0), alloc)
	desc := BufferDesc{Size: 256, Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst}

	r, err := p.FindOrCreateScratchBuffer(desc)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.WriteBuffer(r, make([]byte, 128)); err != nil {
		t.Fatal(err)
	}
	if alloc.writes != 1 {
		t.Errorf("writes = %d, want 1", alloc.writes)
	}
	if err := p.WriteBuffer(r, make([]byte, 512)); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("oversized write err = %v", err)
	}

	tex, err := p.CreateTexture(texDesc(2, 2), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.WriteBuffer(tex, []byte{1}); !errors.Is(err, ErrWrongKind) {
		t.Errorf("texture write err = %v, want ErrWrongKind", err)
	}
}

func TestProviderUniqueKey(t *testing.T) {
	p := NewProvider(NewCache(0), &fakeAllocator{})
	key := MakeUniqueKey("proxy", 42)
	if p.FindByUniqueKey(key) != nil {
		t.Fatal("empty cache resolved a key")
	}
	r, err := p.CreateTexture(texDesc(8, 8), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.AssignUniqueKey(r, key)
	got := p.FindByUniqueKey(key)
	if got != r {
		t.Fatalf("FindByUniqueKey = %v, want r", got)
	}
	if got.RefCount() != 2 {
		t.Errorf("ref count = %d, want 2", got.RefCount())
	}
}
