//go:build grdebug

package ops

import "fmt"

// assertInvariant panics on a broken invariant in debug builds.
func assertInvariant(ok bool, msg string, args ...any) bool {
	if !ok {
		panic(fmt.Sprint(append([]any{"ops: " + msg + " "}, args...)...))
	}
	return ok
}
