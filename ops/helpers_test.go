package ops

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

var errFake = errors.New("fake backend failure")

type fakeBacking struct{ destroyed int }

func (b *fakeBacking) Destroy() { b.destroyed++ }

type fakeProgram struct{ desc program.Desc }

func (p *fakeProgram) Desc() *program.Desc { return &p.desc }
func (p *fakeProgram) Destroy()            {}

type fakePass struct {
	target Target
	calls  []string
	clears []geom.IRect
	colors []Color
}

func (p *fakePass) record(format string, args ...any) {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *fakePass) Begin() error                                     { p.record("begin"); return nil }
func (p *fakePass) SetPipeline(program.Program)                      { p.record("pipeline") }
func (p *fakePass) SetUniformBuffer(resource.Backing, uint64, uint64) { p.record("uniform") }
func (p *fakePass) SetTexture(resource.Backing, Filter)              { p.record("texture") }
func (p *fakePass) SetVertexBuffer(resource.Backing, uint64)         { p.record("vertices") }
func (p *fakePass) SetIndexBuffer(resource.Backing, uint64)          { p.record("indices") }
func (p *fakePass) Draw(n, _ uint32)                                 { p.record("draw %d", n) }
func (p *fakePass) DrawIndexed(n, _ uint32, _ int32)                 { p.record("drawIndexed %d", n) }
func (p *fakePass) Resolve(resource.Backing, geom.IRect)             { p.record("resolve") }
func (p *fakePass) End() error                                       { p.record("end"); return nil }

func (p *fakePass) Clear(scissor geom.IRect, c Color) {
	p.record("clear")
	p.clears = append(p.clears, scissor)
	p.colors = append(p.colors, c)
}

func (p *fakePass) CopyToTexture(resource.Backing, geom.IRect, geom.IPoint) { p.record("copy") }

type fakeBackend struct {
	textures    int
	buffers     int
	failTexture bool
	failPass    bool
	failCompile bool
	passes      []*fakePass
	submitted   []*fakePass
}

func (b *fakeBackend) CreateTexture(resource.TextureDesc, []byte) (resource.Backing, error) {
	if b.failTexture {
		return nil, errFake
	}
	b.textures++
	return &fakeBacking{}, nil
}

func (b *fakeBackend) CreateBuffer(resource.BufferDesc, []byte) (resource.Backing, error) {
	b.buffers++
	return &fakeBacking{}, nil
}

func (b *fakeBackend) WriteBuffer(resource.Backing, uint64, []byte) error { return nil }
func (b *fakeBackend) MaxTextureSize() int                                { return 0 }

func (b *fakeBackend) Caps() program.Caps {
	return program.Caps{Dialect: "fake", MaxSampleCount: 4}
}

func (b *fakeBackend) Compile(desc *program.Desc) (program.Program, error) {
	if b.failCompile {
		return nil, errFake
	}
	return &fakeProgram{desc: *desc}, nil
}

func (b *fakeBackend) BeginRenderPass(target Target) (RenderPass, error) {
	if b.failPass {
		return nil, errFake
	}
	p := &fakePass{target: target}
	b.passes = append(b.passes, p)
	return p, nil
}

func (b *fakeBackend) Submit(pass RenderPass) error {
	b.submitted = append(b.submitted, pass.(*fakePass))
	return nil
}

func (b *fakeBackend) Abandon() {}

type testEnv struct {
	backend   *fakeBackend
	cache     *resource.Cache
	resources *resource.Provider
	programs  *program.Cache
	proxies   *proxy.Provider
	dm        *DrawingManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	b := &fakeBackend{}
	cache := resource.NewCache(resource.DefaultLimit)
	rp := resource.NewProvider(cache, b)
	programs := program.NewCache(b, program.DefaultCapacity)
	return &testEnv{
		backend:   b,
		cache:     cache,
		resources: rp,
		programs:  programs,
		proxies:   proxy.NewProvider(cache, rp.MaxTextureSize()),
		dm:        NewDrawingManager(b, rp, programs),
	}
}

func (e *testEnv) target(t *testing.T, w, h int, samples uint32) *proxy.RenderTargetProxy {
	t.Helper()
	rt, err := e.proxies.CreateRenderTargetProxy(resource.TextureDesc{
		Width:       w,
		Height:      h,
		Format:      gputypes.TextureFormatBGRA8Unorm,
		SampleCount: samples,
		Label:       "target",
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	return rt
}

func (e *testEnv) texture(t *testing.T, w, h int) *proxy.TextureProxy {
	t.Helper()
	tp, err := e.proxies.CreateProxyFromPixels(resource.TextureDesc{
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, make([]byte, w*h*4))
	if err != nil {
		t.Fatal(err)
	}
	return tp
}

var (
	red  = Color{R: 1, A: 1}
	blue = Color{B: 1, A: 1}
)

func irect(l, t, r, b int) geom.IRect {
	return geom.IRect{Left: l, Top: t, Right: r, Bottom: b}
}
