package program

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

type fakeProgram struct {
	desc      Desc
	destroyed int
}

func (p *fakeProgram) Desc() *Desc { return &p.desc }
func (p *fakeProgram) Destroy()    { p.destroyed++ }

type fakeCompiler struct {
	compiles int
	fail     bool
	built    []*fakeProgram
}

var errBadShader = errors.New("bad shader")

func (c *fakeCompiler) Caps() Caps { return Caps{Dialect: "fake", MaxSampleCount: 4} }

func (c *fakeCompiler) Compile(desc *Desc) (Program, error) {
	if c.fail {
		return nil, errBadShader
	}
	c.compiles++
	p := &fakeProgram{desc: *desc}
	c.built = append(c.built, p)
	return p, nil
}

type idCreator struct{ id uint32 }

func (k idCreator) ComputeKey(_ Compiler, b *KeyBuilder) {
	b.AddString("id")
	b.AddUint32(k.id)
}

func (k idCreator) Create(c Compiler) (Program, error) {
	return c.Compile(&Desc{Label: "test"})
}

func TestCacheHitReturnsSameProgram(t *testing.T) {
	comp := &fakeCompiler{}
	c := NewCache(comp, 0)

	p1, err := c.GetProgram(idCreator{1})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := c.GetProgram(idCreator{1})
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("second request returned a different program")
	}
	if comp.compiles != 1 {
		t.Errorf("compiles = %d, want 1", comp.compiles)
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("stats = %v", s)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	comp := &fakeCompiler{}
	c := NewCache(comp, DefaultCapacity)

	for i := range uint32(DefaultCapacity) {
		if _, err := c.GetProgram(idCreator{i}); err != nil {
			t.Fatal(err)
		}
	}
	// Use 0 and 1 again so 2 and 3 become the oldest.
	for i := range uint32(2) {
		if _, err := c.GetProgram(idCreator{i}); err != nil {
			t.Fatal(err)
		}
	}
	for i := uint32(DefaultCapacity); i < DefaultCapacity+2; i++ {
		if _, err := c.GetProgram(idCreator{i}); err != nil {
			t.Fatal(err)
		}
	}

	if got := c.Len(); got != DefaultCapacity {
		t.Fatalf("Len = %d, want %d", got, DefaultCapacity)
	}
	for _, id := range []uint32{2, 3} {
		if c.Contains(idCreator{id}) {
			t.Errorf("program %d should have been evicted", id)
		}
		if comp.built[id].destroyed != 1 {
			t.Errorf("evicted program %d destroyed %d times", id, comp.built[id].destroyed)
		}
	}
	for _, id := range []uint32{0, 1, 4, DefaultCapacity + 1} {
		if !c.Contains(idCreator{id}) {
			t.Errorf("program %d missing", id)
		}
	}
	if got := c.Stats().Evictions; got != 2 {
		t.Errorf("evictions = %d, want 2", got)
	}

	before := comp.compiles
	if _, err := c.GetProgram(idCreator{2}); err != nil {
		t.Fatal(err)
	}
	if comp.compiles != before+1 {
		t.Error("evicted program was not rebuilt")
	}
}

func TestCacheCompileFailureNotInserted(t *testing.T) {
	comp := &fakeCompiler{fail: true}
	c := NewCache(comp, 0)

	_, err := c.GetProgram(idCreator{7})
	if !errors.Is(err, ErrCompile) || !errors.Is(err, errBadShader) {
		t.Fatalf("err = %v, want ErrCompile wrapping the cause", err)
	}
	if c.Len() != 0 {
		t.Error("failed program inserted")
	}
	if c.Stats().CompileFailures != 1 {
		t.Error("failure not counted")
	}

	comp.fail = false
	if _, err := c.GetProgram(idCreator{7}); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestCacheReleaseAll(t *testing.T) {
	tests := []struct {
		name        string
		releaseGPU  bool
		wantDestroy int
	}{
		{"orderly", true, 1},
		{"context lost", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := &fakeCompiler{}
			c := NewCache(comp, 0)
			for i := range uint32(3) {
				if _, err := c.GetProgram(idCreator{i}); err != nil {
					t.Fatal(err)
				}
			}
			c.ReleaseAll(tt.releaseGPU)
			if c.Len() != 0 {
				t.Fatalf("Len = %d after ReleaseAll", c.Len())
			}
			for i, p := range comp.built {
				if p.destroyed != tt.wantDestroy {
					t.Errorf("program %d destroyed %d times, want %d", i, p.destroyed, tt.wantDestroy)
				}
			}
			if c.Stats().Evictions != 0 {
				t.Error("ReleaseAll counted as evictions")
			}
		})
	}
}

func TestBuiltinKeys(t *testing.T) {
	comp := &fakeCompiler{}
	key := func(cr Creator) Key {
		var b KeyBuilder
		cr.ComputeKey(comp, &b)
		return b.Key()
	}
	rgba := gputypes.TextureFormatRGBA8Unorm

	solid := SolidColor{Format: rgba}
	if key(solid) != key(SolidColor{Format: rgba, SampleCount: 1}) {
		t.Error("sample count 0 and 1 must share a key")
	}
	if key(solid) == key(TexturedQuad{Format: rgba}) {
		t.Error("shading kind must affect the key")
	}
	if key(solid) == key(SolidColor{Format: rgba, Blend: BlendSrc}) {
		t.Error("blend must affect the key")
	}
	if key(solid) == key(SolidColor{Format: gputypes.TextureFormatBGRA8Unorm}) {
		t.Error("format must affect the key")
	}
	if key(SolidColor{Format: rgba, SampleCount: 8}) != key(SolidColor{Format: rgba, SampleCount: 4}) {
		t.Error("sample count must be clamped to compiler caps")
	}
}

func TestBuiltinCreate(t *testing.T) {
	comp := &fakeCompiler{}
	c := NewCache(comp, 0)
	p, err := c.GetProgram(TexturedQuad{Format: gputypes.TextureFormatRGBA8Unorm, SampleCount: 4})
	if err != nil {
		t.Fatal(err)
	}
	d := p.Desc()
	if d.Shading != ShadingTextured || d.SampleCount != 4 {
		t.Errorf("desc = %+v", d)
	}
	if d.WGSL == "" || d.VertexLayout[0].ArrayStride != TexturedVertexStride {
		t.Error("textured program missing shader source or layout")
	}
}

func TestCacheHoldDefersEvictedDestroy(t *testing.T) {
	comp := &fakeCompiler{}
	c := NewCache(comp, 1)

	c.Hold()
	for i := range uint32(3) {
		if _, err := c.GetProgram(idCreator{i}); err != nil {
			t.Fatal(err)
		}
	}
	for i, p := range comp.built[:2] {
		if p.destroyed != 0 {
			t.Errorf("program %d destroyed while held", i)
		}
	}

	c.Unhold()
	for i, p := range comp.built[:2] {
		if p.destroyed != 1 {
			t.Errorf("program %d destroyed %d times after Unhold, want 1", i, p.destroyed)
		}
	}
	if comp.built[2].destroyed != 0 {
		t.Error("cached program destroyed by Unhold")
	}
}

func TestCacheReleaseAllWhileHeld(t *testing.T) {
	comp := &fakeCompiler{}
	c := NewCache(comp, 1)

	c.Hold()
	for i := range uint32(2) {
		if _, err := c.GetProgram(idCreator{i}); err != nil {
			t.Fatal(err)
		}
	}
	c.ReleaseAll(false)
	for i, p := range comp.built {
		if p.destroyed != 0 {
			t.Errorf("program %d destroyed after ReleaseAll(false)", i)
		}
	}
	c.Unhold()
	for i, p := range comp.built {
		if p.destroyed != 0 {
			t.Errorf("program %d destroyed by Unhold after ReleaseAll(false)", i)
		}
	}
}
