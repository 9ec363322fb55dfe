package ops

import (
	"fmt"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/proxy"
)

type opState uint8

const (
	stateRecorded opState = iota
	stateCombined
	statePrepared
	stateExecuted
	stateSkipped
)

var opStateNames = [...]string{
	stateRecorded: "recorded",
	stateCombined: "combined",
	statePrepared: "prepared",
	stateExecuted: "executed",
	stateSkipped:  "skipped",
}

func (s opState) String() string {
	if int(s) < len(opStateNames) {
		return opStateNames[s]
	}
	return fmt.Sprintf("opState(%d)", s)
}

// Op is one unit of recorded GPU work.
//
// The set of ops is closed: every variant lives in this package and carries
// its own combine predicate.
type Op interface {
	ClassID() ClassID

	// Bounds is the device-space area the op may touch.
	Bounds() geom.Rect

	// VisitProxies calls fn for every proxy the op reads.
	VisitProxies(fn func(p proxy.Proxy))

	// Prepare uploads data and looks up programs before the pass starts
	// drawing.
	Prepare(fs *FlushState) error

	// Execute emits the op's commands into pass.
	Execute(fs *FlushState, pass RenderPass) error

	base() *opBase

	// combine merges incoming, which has the same class, into the receiver.
	// It either merges completely and returns true, or changes nothing.
	combine(incoming Op) bool
}

type opBase struct {
	class  ClassID
	bounds geom.Rect
	state  opState
}

// ClassID implements Op.
func (b *opBase) ClassID() ClassID { return b.class }

// Bounds implements Op.
func (b *opBase) Bounds() geom.Rect { return b.bounds }

func (b *opBase) base() *opBase { return b }

// Combine merges incoming into tail when both have the same class and the
// class predicate allows it. On success the tail's bounds grow to cover
// incoming, and incoming is dead.
func Combine(tail, incoming Op) bool {
	if tail.ClassID() != incoming.ClassID() {
		return false
	}
	tb, ib := tail.base(), incoming.base()
	if tb.state != stateRecorded || ib.state != stateRecorded {
		return false
	}
	if !tail.combine(incoming) {
		return false
	}
	tb.bounds = tb.bounds.Union(ib.bounds)
	ib.state = stateCombined
	// The tail references the same proxies; drop the incoming op's refs.
	releaseProxies(incoming)
	return true
}

func refProxies(op Op) {
	op.VisitProxies(func(p proxy.Proxy) { p.Ref() })
}

func releaseProxies(op Op) {
	op.VisitProxies(func(p proxy.Proxy) { p.Release() })
}
