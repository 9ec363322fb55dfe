// Package backend is the registry of graphics backends the execution core
// can submit to.
//
// Backends register themselves via init() functions and are selected at
// runtime:
//
//	import _ "github.com/gogpu/gr/backend/software"
//
//	b, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	ctx := gr.NewContext(b)
//
// # Available Backends
//
//   - "software": CPU reference backend, always available
//   - "native": Pure Go GPU backend on the gogpu/wgpu HAL
package backend
