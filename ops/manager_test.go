package ops

import (
	"errors"
	"testing"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
)

func TestManagerOrdersDependencies(t *testing.T) {
	env := newTestEnv(t)
	a := env.target(t, 32, 32, 1)
	b := env.target(t, 16, 16, 1)

	env.dm.AddOp(a, NewClearOp(irect(0, 0, 32, 32), red))
	env.dm.AddOp(b, NewFillRectOp(geom.RectXYWH(0, 0, 16, 16), blue, program.BlendSrc))
	// a samples b, so b's task has to run first.
	env.dm.AddOp(a, NewTextureOp(b.SampledProxy(), geom.RectXYWH(0, 0, 16, 16), geom.RectXYWH(0, 0, 16, 16), 1, FilterNearest))
	if env.dm.NumTasks() != 2 {
		t.Fatalf("NumTasks = %d, want 2", env.dm.NumTasks())
	}

	// Drawing into b again cannot join the closed task.
	env.dm.AddOp(b, NewClearOp(irect(0, 0, 16, 16), red))
	if env.dm.NumTasks() != 3 {
		t.Fatalf("NumTasks = %d, want 3", env.dm.NumTasks())
	}

	n, err := env.dm.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("executed = %d, want 3", n)
	}
	var widths []int
	for _, p := range env.backend.submitted {
		widths = append(widths, p.target.Width)
	}
	if len(widths) != 3 || widths[0] != 16 || widths[1] != 32 || widths[2] != 16 {
		t.Errorf("submission order by width = %v, want [16 32 16]", widths)
	}
	if env.dm.NumTasks() != 0 {
		t.Errorf("NumTasks after flush = %d", env.dm.NumTasks())
	}
}

func TestManagerSameTargetSharesTask(t *testing.T) {
	env := newTestEnv(t)
	rt := env.target(t, 32, 32, 1)
	for i := range 4 {
		env.dm.AddOp(rt, NewFillRectOp(geom.RectXYWH(float64(i), 0, 1, 1), red, program.BlendSrcOver))
	}
	if env.dm.NumTasks() != 1 {
		t.Fatalf("NumTasks = %d, want 1", env.dm.NumTasks())
	}
	if got := env.dm.GetOpsTask(rt).Len(); got != 1 {
		t.Errorf("task Len = %d, want 1", got)
	}
}

func TestManagerFlushReleasesUploads(t *testing.T) {
	env := newTestEnv(t)
	rt := env.target(t, 32, 32, 1)
	env.dm.AddOp(rt, NewFillRectOp(geom.RectXYWH(0, 0, 8, 8), red, program.BlendSrcOver))

	if _, err := env.dm.Flush(); err != nil {
		t.Fatal(err)
	}
	if n := env.dm.FlushState().NumUploads(); n != 0 {
		t.Errorf("uploads held after flush = %d", n)
	}
	buffers := env.backend.buffers
	if buffers == 0 {
		t.Fatal("no upload buffers were created")
	}

	// A second flush of the same work reuses the scratch buffers.
	env.dm.AddOp(rt, NewFillRectOp(geom.RectXYWH(0, 0, 8, 8), red, program.BlendSrcOver))
	if _, err := env.dm.Flush(); err != nil {
		t.Fatal(err)
	}
	if env.backend.buffers != buffers {
		t.Errorf("buffers = %d after second flush, want %d", env.backend.buffers, buffers)
	}
}

func TestManagerAbandonDropsTasks(t *testing.T) {
	env := newTestEnv(t)
	rt := env.target(t, 32, 32, 1)
	op := NewClearOp(irect(0, 0, 32, 32), red)
	env.dm.AddOp(rt, op)
	env.dm.Abandon()

	if env.dm.NumTasks() != 0 {
		t.Errorf("NumTasks = %d, want 0", env.dm.NumTasks())
	}
	if op.state != stateSkipped {
		t.Errorf("op state = %s, want skipped", op.state)
	}
	n, err := env.dm.Flush()
	if n != 0 || err != nil {
		t.Errorf("Flush after Abandon = %d, %v", n, err)
	}
}

func TestManagerOrdersReadBeforeLaterWrite(t *testing.T) {
	env := newTestEnv(t)
	src := env.target(t, 8, 8, 1)
	dst := env.target(t, 16, 16, 1)

	env.dm.AddOp(src, NewClearOp(irect(0, 0, 8, 8), red))
	env.dm.AddOp(dst, NewCopyOp(src.SampledProxy(), irect(0, 0, 8, 8), geom.IPoint{}))
	// Overwriting src has to wait for the copy above.
	env.dm.AddOp(src, NewClearOp(irect(0, 0, 8, 8), blue))
	if !env.dm.open[dst.ID()].IsClosed() {
		t.Fatal("reading task still open after its source was rewritten")
	}
	env.dm.AddOp(dst, NewCopyOp(src.SampledProxy(), irect(0, 0, 8, 8), geom.IPoint{X: 8}))
	if env.dm.NumTasks() != 4 {
		t.Fatalf("NumTasks = %d, want 4", env.dm.NumTasks())
	}

	if _, err := env.dm.Flush(); err != nil {
		t.Fatal(err)
	}
	var widths []int
	for _, p := range env.backend.submitted {
		widths = append(widths, p.target.Width)
	}
	want := []int{8, 16, 8, 16}
	if len(widths) != len(want) {
		t.Fatalf("submission order by width = %v, want %v", widths, want)
	}
	for i := range want {
		if widths[i] != want[i] {
			t.Fatalf("submission order by width = %v, want %v", widths, want)
		}
	}
	if len(env.backend.submitted[0].colors) != 1 || env.backend.submitted[0].colors[0] != red {
		t.Errorf("first src pass clears %v, want red", env.backend.submitted[0].colors)
	}
}

func TestManagerDropsSelfRead(t *testing.T) {
	env := newTestEnv(t)
	rt := env.target(t, 16, 16, 1)
	msaa := env.target(t, 16, 16, 4)

	tests := []struct {
		name   string
		target *proxy.RenderTargetProxy
		op     func() Op
	}{
		{"texture", rt, func() Op {
			return NewTextureOp(rt.SampledProxy(), geom.RectXYWH(0, 0, 4, 4), geom.RectXYWH(8, 8, 4, 4), 1, FilterNearest)
		}},
		{"copy", rt, func() Op {
			return NewCopyOp(rt.SampledProxy(), irect(0, 0, 4, 4), geom.IPoint{X: 8})
		}},
		{"resolve texture", msaa, func() Op {
			return NewTextureOp(msaa.SampledProxy(), geom.RectXYWH(0, 0, 4, 4), geom.RectXYWH(8, 8, 4, 4), 1, FilterNearest)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := tt.op()
			err := env.dm.AddOp(tt.target, op)
			if !errors.Is(err, ErrInvariant) {
				t.Fatalf("AddOp err = %v, want ErrInvariant", err)
			}
			if op.base().state != stateSkipped {
				t.Errorf("op state = %s, want skipped", op.base().state)
			}
		})
	}

	// Resolving into the target's own resolve texture is a write.
	if err := env.dm.AddOp(msaa, NewResolveOp(msaa.ResolveProxy(), irect(0, 0, 16, 16))); err != nil {
		t.Errorf("resolve: %v", err)
	}
	if env.dm.NumTasks() != 1 {
		t.Errorf("NumTasks = %d, want 1", env.dm.NumTasks())
	}
}
