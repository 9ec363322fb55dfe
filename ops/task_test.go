package ops

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/resource"
)

func TestTaskExecuteRecordsPass(t *testing.T) {
	env := newTestEnv(t)
	rt := env.target(t, 64, 32, 1)
	fs := env.dm.FlushState()

	task := NewOpsTask(rt)
	task.AddOp(NewClearOp(irect(0, 0, 64, 32), red))
	task.AddOp(NewFillRectOp(geom.RectXYWH(0, 0, 4, 4), blue, program.BlendSrcOver))
	task.AddOp(NewFillRectOp(geom.RectXYWH(8, 8, 4, 4), blue, program.BlendSrcOver))
	ops := slices.Clone(task.Ops())

	ok, err := task.Execute(fs)
	if !ok || err != nil {
		t.Fatalf("Execute = %v, %v", ok, err)
	}
	if len(env.backend.submitted) != 1 {
		t.Fatalf("submitted %d passes, want 1", len(env.backend.submitted))
	}
	pass := env.backend.submitted[0]
	want := []string{"begin", "clear", "pipeline", "uniform", "vertices", "indices", "drawIndexed 12", "end"}
	if !slices.Equal(pass.calls, want) {
		t.Errorf("calls = %v, want %v", pass.calls, want)
	}
	if pass.target.Width != 64 || pass.target.Height != 32 || pass.target.SampleCount != 1 {
		t.Errorf("target = %+v", pass.target)
	}
	for _, op := range ops {
		if op.base().state != stateExecuted {
			t.Errorf("%s op state = %s, want executed", op.ClassID(), op.base().state)
		}
	}
	if task.Len() != 0 {
		t.Errorf("Len after execute = %d, want 0", task.Len())
	}

	ok, err = task.Execute(fs)
	if ok || err != nil {
		t.Errorf("second Execute = %v, %v, want false, nil", ok, err)
	}
	if len(env.backend.submitted) != 1 {
		t.Error("second Execute submitted work")
	}
}

func TestTaskEmpty(t *testing.T) {
	env := newTestEnv(t)
	task := NewOpsTask(env.target(t, 8, 8, 1))
	ok, err := task.Execute(env.dm.FlushState())
	if ok || err != nil {
		t.Errorf("Execute = %v, %v, want false, nil", ok, err)
	}
	if len(env.backend.passes) != 0 {
		t.Error("empty task began a pass")
	}
}

func TestTaskFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(b *fakeBackend)
		wantErr error
	}{
		{"no render pass", func(b *fakeBackend) { b.failPass = true }, ErrNoRenderPass},
		{"target allocation", func(b *fakeBackend) { b.failTexture = true }, ErrTargetUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env.backend)
			task := NewOpsTask(env.target(t, 16, 16, 1))
			op := NewClearOp(irect(0, 0, 16, 16), red)
			task.AddOp(op)

			ok, err := task.Execute(env.dm.FlushState())
			if ok {
				t.Error("Execute reported work")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(env.backend.submitted) != 0 {
				t.Error("a failed task submitted work")
			}
			if op.state != stateSkipped {
				t.Errorf("op state = %s, want skipped", op.state)
			}
		})
	}
}

func TestTaskCompileFailureSkipsDraw(t *testing.T) {
	env := newTestEnv(t)
	env.backend.failCompile = true
	task := NewOpsTask(env.target(t, 16, 16, 1))
	task.AddOp(NewClearOp(irect(0, 0, 16, 16), red))
	fill := NewFillRectOp(geom.RectXYWH(0, 0, 4, 4), blue, program.BlendSrcOver)
	task.AddOp(fill)

	ok, err := task.Execute(env.dm.FlushState())
	if !ok {
		t.Fatal("Execute reported no work")
	}
	if !errors.Is(err, program.ErrCompile) {
		t.Errorf("err = %v, want ErrCompile", err)
	}
	if len(env.backend.submitted) != 1 {
		t.Fatalf("submitted %d passes, want 1", len(env.backend.submitted))
	}
	want := []string{"begin", "clear", "end"}
	if got := env.backend.submitted[0].calls; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if fill.state != stateSkipped {
		t.Errorf("fill state = %s, want skipped", fill.state)
	}
}

func TestTaskSkipsOpWithUnavailableProxy(t *testing.T) {
	env := newTestEnv(t)
	rt := env.target(t, 16, 16, 1)
	if err := rt.Instantiate(env.resources); err != nil {
		t.Fatal(err)
	}
	tex := env.texture(t, 4, 4)
	env.backend.failTexture = true

	task := NewOpsTask(rt)
	task.AddOp(NewCopyOp(tex, irect(0, 0, 4, 4), geom.IPoint{}))
	task.AddOp(NewClearOp(irect(0, 0, 16, 16), red))

	ok, err := task.Execute(env.dm.FlushState())
	if !ok {
		t.Fatal("Execute reported no work")
	}
	if !errors.Is(err, resource.ErrAllocation) {
		t.Errorf("err = %v, want ErrAllocation", err)
	}
	want := []string{"begin", "clear", "end"}
	if got := env.backend.submitted[0].calls; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestTextureOpExecute(t *testing.T) {
	env := newTestEnv(t)
	rt := env.target(t, 32, 32, 4)
	tex := env.texture(t, 8, 8)

	task := NewOpsTask(rt)
	task.AddOp(NewTextureOp(tex, geom.RectXYWH(0, 0, 8, 8), geom.RectXYWH(0, 0, 16, 16), 1, FilterLinear))
	task.AddOp(NewTextureOp(tex, geom.RectXYWH(0, 0, 8, 8), geom.RectXYWH(16, 16, 16, 16), 0.5, FilterLinear))
	task.AddOp(NewResolveOp(rt.ResolveProxy(), irect(0, 0, 32, 32)))

	ok, err := task.Execute(env.dm.FlushState())
	if !ok || err != nil {
		t.Fatalf("Execute = %v, %v", ok, err)
	}
	want := []string{"begin", "pipeline", "uniform", "texture", "vertices", "draw 12", "resolve", "end"}
	if got := env.backend.submitted[0].calls; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if !rt.ResolveProxy().IsInstantiated() {
		t.Error("resolve proxy not instantiated with its target")
	}
	if got := env.backend.submitted[0].target.SampleCount; got != 4 {
		t.Errorf("pass sample count = %d, want 4", got)
	}
}
