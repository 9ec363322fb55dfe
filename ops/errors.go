package ops

import "errors"

var (
	// ErrInvariant reports a broken invariant, such as executing an op twice
	// or sampling the render target being drawn. Internal ones panic when
	// built with the grdebug tag.
	ErrInvariant = errors.New("ops: invariant violation")

	// ErrNoRenderPass is returned when the backend cannot start a pass for
	// a task's target. The task is dropped without partial submission.
	ErrNoRenderPass = errors.New("ops: render pass unavailable")

	// ErrTargetUnavailable is returned when a task's render target cannot be
	// instantiated.
	ErrTargetUnavailable = errors.New("ops: render target unavailable")
)
