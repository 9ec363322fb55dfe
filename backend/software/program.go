package software

import (
	"github.com/gogpu/gr/program"
)

// Program is a validated program. Fragments are shaded by the Go
// equivalent of its Shading.
type Program struct {
	owner *Backend
	desc  program.Desc
	live  bool
}

// Desc implements program.Program.
func (p *Program) Desc() *program.Desc { return &p.desc }

// Destroy implements program.Program.
func (p *Program) Destroy() {
	if !p.live {
		return
	}
	p.live = false
	p.owner.destroyed()
}

func (p *Program) stride() uint64 {
	if p.desc.Shading == program.ShadingTextured {
		return program.TexturedVertexStride
	}
	return program.SolidVertexStride
}
