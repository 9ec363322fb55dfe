package gr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassOther},
		{"unrelated", errors.New("boom"), ClassOther},
		{"invalid descriptor", resource.ErrInvalidDescriptor, ClassOther},
		{"proxy not ready", proxy.ErrNotReady, ClassUnavailable},
		{"decode", fmt.Errorf("texture: %w", proxy.ErrDecodeUnavailable), ClassUnavailable},
		{"compile", fmt.Errorf("%w: bad wgsl", program.ErrCompile), ClassUnavailable},
		{"no render pass", ops.ErrNoRenderPass, ClassUnavailable},
		{"no backend", backend.ErrBackendNotAvailable, ClassUnavailable},
		{"abandoned", resource.ErrAbandoned, ClassLostContext},
		{"device lost", fmt.Errorf("submit: %w", backend.ErrDeviceLost), ClassLostContext},
		{"released", ErrReleased, ClassLostContext},
		{"allocation", resource.ErrAllocation, ClassExhaustion},
		{"too large", resource.ErrTooLarge, ClassExhaustion},
		{"invariant", ops.ErrInvariant, ClassInvariantViolation},
		{"pass state", backend.ErrPassState, ClassInvariantViolation},
		{"lost context wins", errors.Join(program.ErrCompile, resource.ErrAbandoned), ClassLostContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorClassString(t *testing.T) {
	for c, want := range map[ErrorClass]string{
		ClassOther:              "Other",
		ClassUnavailable:        "Unavailable",
		ClassLostContext:        "LostContext",
		ClassExhaustion:         "Exhaustion",
		ClassInvariantViolation: "InvariantViolation",
		ErrorClass(42):          "Other",
	} {
		if got := c.String(); got != want {
			t.Errorf("ErrorClass(%d).String() = %q, want %q", c, got, want)
		}
	}
}
