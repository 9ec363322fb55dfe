package ops

import (
	"errors"
	"fmt"

	"github.com/gogpu/gr/proxy"
)

// OpsTask is the ordered list of ops drawing into one render target.
//
// Recording appends to the task; only the tail op is a combine candidate,
// so combining never reorders draws.
type OpsTask struct {
	target *proxy.RenderTargetProxy
	ops    []Op
	closed bool
	done   bool

	// deps are tasks that must execute before this one.
	deps []*OpsTask
}

// NewOpsTask returns an empty task drawing into target. The task holds a
// reference to target until it is executed or discarded.
func NewOpsTask(target *proxy.RenderTargetProxy) *OpsTask {
	target.Ref()
	return &OpsTask{target: target}
}

// Target returns the render target.
func (t *OpsTask) Target() *proxy.RenderTargetProxy { return t.target }

// Len returns the number of recorded ops after combining.
func (t *OpsTask) Len() int { return len(t.ops) }

// Ops returns the recorded ops. The slice must not be modified.
func (t *OpsTask) Ops() []Op { return t.ops }

// IsClosed reports whether the task accepts more ops.
func (t *OpsTask) IsClosed() bool { return t.closed }

// Close stops the task from accepting ops. Later draws into the same target
// open a new task.
func (t *OpsTask) Close() { t.closed = true }

// AddOp combines op into the tail op or appends it. It returns false when
// the task is closed; the op is then left untouched.
func (t *OpsTask) AddOp(op Op) bool {
	if t.closed {
		return false
	}
	if n := len(t.ops); n > 0 && Combine(t.ops[n-1], op) {
		return true
	}
	t.ops = append(t.ops, op)
	return true
}

func (t *OpsTask) addDependency(dep *OpsTask) {
	for _, d := range t.deps {
		if d == dep {
			return
		}
	}
	t.deps = append(t.deps, dep)
}

// Execute instantiates the task's proxies, prepares every op and records
// them into one render pass, then submits it. It returns false when the
// task had nothing to do.
//
// A failure to instantiate the target or to begin the pass drops the whole
// task and nothing is submitted. Ops whose own proxies cannot be
// instantiated, or whose preparation fails, are skipped.
func (t *OpsTask) Execute(fs *FlushState) (bool, error) {
	t.closed = true
	if len(t.ops) == 0 {
		t.finish()
		return false, nil
	}
	rp := fs.Resources()

	if err := t.target.Instantiate(rp); err != nil {
		t.discard()
		return false, fmt.Errorf("%w: %w", ErrTargetUnavailable, err)
	}

	var opErrs []error
	live := t.ops[:0:0]
	for _, op := range t.ops {
		if err := instantiateProxies(op, fs); err != nil {
			skip(op, err)
			opErrs = append(opErrs, err)
			continue
		}
		live = append(live, op)
	}

	tex, err := t.target.Backing()
	if err != nil {
		t.discard()
		return false, fmt.Errorf("%w: %w", ErrTargetUnavailable, err)
	}
	w, h := t.target.Dimensions()
	pass, err := fs.Backend().BeginRenderPass(Target{
		Texture:     tex,
		Width:       w,
		Height:      h,
		Format:      t.target.Format(),
		SampleCount: t.target.SampleCount(),
	})
	if err == nil {
		err = pass.Begin()
	}
	if err != nil {
		t.discard()
		return false, fmt.Errorf("%w: %w", ErrNoRenderPass, err)
	}

	fs.beginTask(t.target)
	fs.pass = pass
	defer fs.endTask()

	prepared := live[:0]
	for _, op := range live {
		if err := op.Prepare(fs); err != nil {
			skip(op, err)
			opErrs = append(opErrs, err)
			continue
		}
		op.base().state = statePrepared
		prepared = append(prepared, op)
	}

	// The task owns nothing after this point; a second Execute is a no-op.
	ops := t.ops
	t.ops = nil

	for _, op := range prepared {
		if err := executeOp(op, fs, pass); err != nil {
			opErrs = append(opErrs, err)
		}
	}

	err = pass.End()
	if err == nil {
		err = fs.Backend().Submit(pass)
	}

	for _, op := range ops {
		releaseProxies(op)
	}
	t.finish()

	if err != nil {
		return true, fmt.Errorf("ops: submit %s: %w", t.target.Desc().Label, err)
	}
	return true, errors.Join(opErrs...)
}

func executeOp(op Op, fs *FlushState, pass RenderPass) error {
	b := op.base()
	if !assertInvariant(b.state == statePrepared, "executing op in wrong state",
		"class", op.ClassID(), "state", b.state) {
		return fmt.Errorf("%w: %s op executed in state %s", ErrInvariant, op.ClassID(), b.state)
	}
	if err := op.Execute(fs, pass); err != nil {
		b.state = stateSkipped
		slogger().Warn("ops: draw dropped", "class", op.ClassID(), "err", err)
		return err
	}
	b.state = stateExecuted
	return nil
}

func instantiateProxies(op Op, fs *FlushState) error {
	var first error
	op.VisitProxies(func(p proxy.Proxy) {
		if first != nil {
			return
		}
		first = p.Instantiate(fs.Resources())
	})
	return first
}

func skip(op Op, err error) {
	op.base().state = stateSkipped
	slogger().Warn("ops: draw dropped", "class", op.ClassID(), "err", err)
}

// Discard drops every recorded op without executing it and releases the
// target.
func (t *OpsTask) Discard() {
	t.closed = true
	t.discard()
}

func (t *OpsTask) discard() {
	for _, op := range t.ops {
		op.base().state = stateSkipped
		releaseProxies(op)
	}
	if len(t.ops) > 0 {
		slogger().Warn("ops: task dropped", "target", t.target.ID(), "ops", len(t.ops))
	}
	t.ops = nil
	t.finish()
}

// finish drops the task's reference to its target exactly once.
func (t *OpsTask) finish() {
	if t.done {
		return
	}
	t.done = true
	t.target.Release()
}
