package program

import "errors"

// ErrCompile is returned when a program fails to compile. Nothing is
// inserted into the cache; the caller skips the draw.
var ErrCompile = errors.New("program: compile failed")
