package proxy

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/resource"
)

// Usage flags for render target backings.
const (
	renderTargetUsage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding |
		gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	msaaUsage = gputypes.TextureUsageRenderAttachment
)

// RenderTargetProxy is a texture proxy that can be drawn into. A
// multisampled target owns a single-sample resolve proxy that receives the
// resolved pixels and is what gets sampled.
type RenderTargetProxy struct {
	TextureProxy

	resolve *TextureProxy
}

func newRenderTarget(desc resource.TextureDesc, budgeted bool, src source) *RenderTargetProxy {
	rt := &RenderTargetProxy{
		TextureProxy: TextureProxy{id: nextID(), desc: desc, budgeted: budgeted, src: src},
	}
	rt.lifetime.init()
	track(rt, &rt.lifetime)
	return rt
}

// SampleCount returns the MSAA sample count (at least 1).
func (rt *RenderTargetProxy) SampleCount() uint32 {
	if r := rt.holder.res.Load(); r != nil {
		return r.SampleCount()
	}
	return rt.desc.Samples()
}

// ResolveProxy returns the single-sample resolve target, or nil when the
// target is not multisampled.
func (rt *RenderTargetProxy) ResolveProxy() *TextureProxy { return rt.resolve }

// SampledProxy returns the proxy to sample from: the resolve proxy for MSAA
// targets, the target itself otherwise.
func (rt *RenderTargetProxy) SampledProxy() *TextureProxy {
	if rt.resolve != nil {
		return rt.resolve
	}
	return &rt.TextureProxy
}

// AsRenderTargetProxy implements Proxy.
func (rt *RenderTargetProxy) AsRenderTargetProxy() *RenderTargetProxy { return rt }

// Instantiate implements Proxy. The resolve proxy is instantiated together
// with the multisampled target.
func (rt *RenderTargetProxy) Instantiate(rp *resource.Provider) error {
	if rt.resolve != nil {
		if err := rt.resolve.Instantiate(rp); err != nil {
			return fmt.Errorf("resolve target: %w", err)
		}
	}
	return rt.TextureProxy.Instantiate(rp)
}

// Release implements Proxy. The last release also drops the resolve proxy.
func (rt *RenderTargetProxy) Release() {
	if rt.lifetime.release() && rt.resolve != nil {
		rt.resolve.Release()
	}
}
