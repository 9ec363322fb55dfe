//go:build !grdebug

package ops

// assertInvariant logs a broken invariant and reports it as an error.
func assertInvariant(ok bool, msg string, args ...any) bool {
	if !ok {
		slogger().Error("ops: "+msg, args...)
	}
	return ok
}
