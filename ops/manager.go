package ops

import (
	"errors"
	"fmt"

	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

// DrawingManager owns the open tasks of one context and flushes them in
// dependency order.
//
// Every render target has at most one open task. When an op reads a proxy
// that another task renders into, that task is closed and ordered before
// the reader. When a new task starts rendering into a proxy, every open
// task reading it is closed and ordered before the new task, so earlier
// reads never see later writes. DrawingManager is used only on the
// goroutine that owns the context.
type DrawingManager struct {
	fs *FlushState

	tasks   []*OpsTask
	open    map[proxy.ID]*OpsTask
	writers map[proxy.ID]*OpsTask
	readers map[proxy.ID][]*OpsTask

	flushing bool
}

// NewDrawingManager returns a manager submitting to backend.
func NewDrawingManager(backend Backend, resources *resource.Provider, programs *program.Cache) *DrawingManager {
	return &DrawingManager{
		fs:      NewFlushState(backend, resources, programs),
		open:    make(map[proxy.ID]*OpsTask),
		writers: make(map[proxy.ID]*OpsTask),
		readers: make(map[proxy.ID][]*OpsTask),
	}
}

// FlushState returns the manager's flush state.
func (m *DrawingManager) FlushState() *FlushState { return m.fs }

// NumTasks returns the number of tasks waiting for the next flush.
func (m *DrawingManager) NumTasks() int { return len(m.tasks) }

// GetOpsTask returns the open task for target, opening one if needed.
func (m *DrawingManager) GetOpsTask(target *proxy.RenderTargetProxy) *OpsTask {
	if t := m.open[target.ID()]; t != nil && !t.IsClosed() {
		return t
	}
	return m.NewOpsTask(target)
}

// NewOpsTask closes the open task for target, if any, and opens a new one.
// Tasks that read target are closed and must execute before the new task.
func (m *DrawingManager) NewOpsTask(target *proxy.RenderTargetProxy) *OpsTask {
	if t := m.open[target.ID()]; t != nil {
		t.Close()
	}
	t := NewOpsTask(target)
	m.tasks = append(m.tasks, t)
	m.open[target.ID()] = t
	m.claim(t, target.ID())
	if r := target.ResolveProxy(); r != nil {
		m.claim(t, r.ID())
	}
	return t
}

// claim makes t the writer of id, ordering t after every task that read
// the previous contents.
func (m *DrawingManager) claim(t *OpsTask, id proxy.ID) {
	for _, r := range m.readers[id] {
		r.Close()
		t.addDependency(r)
	}
	delete(m.readers, id)
	m.writers[id] = t
}

// AddOp records op into the open task for target. Tasks rendering into
// proxies the op reads are closed and ordered before it.
//
// An op sampling the target it draws into, or its resolve texture, is
// dropped and reported as an ErrInvariant error.
func (m *DrawingManager) AddOp(target *proxy.RenderTargetProxy, op Op) error {
	if readsTarget(op, target) {
		op.base().state = stateSkipped
		releaseProxies(op)
		slogger().Warn("ops: draw reads its own target", "class", op.ClassID(), "target", target.ID())
		return fmt.Errorf("%w: %s op reads its render target", ErrInvariant, op.ClassID())
	}
	task := m.GetOpsTask(target)
	_, resolve := op.(*ResolveOp)
	op.VisitProxies(func(p proxy.Proxy) {
		id := p.ID()
		if !resolve {
			m.addReader(id, task)
		}
		w := m.writers[id]
		if w == nil || w == task {
			return
		}
		w.Close()
		task.addDependency(w)
	})
	task.AddOp(op)
	return nil
}

func (m *DrawingManager) addReader(id proxy.ID, t *OpsTask) {
	rs := m.readers[id]
	if n := len(rs); n > 0 && rs[n-1] == t {
		return
	}
	m.readers[id] = append(rs, t)
}

// readsTarget reports whether op samples target or its resolve texture.
// A resolve writes the resolve texture and does not count.
func readsTarget(op Op, target *proxy.RenderTargetProxy) bool {
	if _, ok := op.(*ResolveOp); ok {
		return false
	}
	var resolveID proxy.ID
	if r := target.ResolveProxy(); r != nil {
		resolveID = r.ID()
	}
	found := false
	op.VisitProxies(func(p proxy.Proxy) {
		id := p.ID()
		if id == target.ID() || (resolveID != 0 && id == resolveID) {
			found = true
		}
	})
	return found
}

// Flush executes every recorded task in dependency order, then releases
// the flush's upload buffers and trims the resource cache to budget. It
// returns the number of tasks that submitted work.
func (m *DrawingManager) Flush() (int, error) {
	if m.flushing {
		return 0, nil
	}
	m.flushing = true
	defer func() { m.flushing = false }()
	m.fs.programs.Hold()
	defer m.fs.programs.Unhold()

	cache := m.fs.Resources().Cache()
	cache.ProcessMessages()

	order := m.sortTasks()
	m.tasks = nil
	clear(m.open)
	clear(m.writers)
	clear(m.readers)

	var (
		executed int
		errs     []error
	)
	for _, t := range order {
		ok, err := t.Execute(m.fs)
		if ok {
			executed++
		}
		if err != nil {
			slogger().Warn("ops: task failed", "target", t.Target().ID(), "err", err)
			errs = append(errs, err)
		}
	}

	m.fs.ReleaseUploads()
	cache.PurgeAsNeeded()
	slogger().Debug("ops: flush", "tasks", len(order), "executed", executed,
		"cache", cache.Stats())
	return executed, errors.Join(errs...)
}

// Abandon drops every recorded task without executing it.
func (m *DrawingManager) Abandon() {
	for _, t := range m.tasks {
		t.Discard()
	}
	m.tasks = nil
	clear(m.open)
	clear(m.writers)
	clear(m.readers)
	m.fs.ReleaseUploads()
}

// sortTasks orders tasks so every dependency precedes its dependents,
// keeping recording order otherwise.
func (m *DrawingManager) sortTasks() []*OpsTask {
	order := make([]*OpsTask, 0, len(m.tasks))
	visited := make(map[*OpsTask]bool, len(m.tasks))
	var visit func(t *OpsTask)
	visit = func(t *OpsTask) {
		if visited[t] {
			return
		}
		visited[t] = true
		for _, d := range t.deps {
			visit(d)
		}
		order = append(order, t)
	}
	for _, t := range m.tasks {
		visit(t)
	}
	return order
}
