//go:build crashdebug

package crashy

// Expect is Ensure for checks that only run in debug builds
// (-tags crashdebug).
func Expect(cond bool, condition string) {
	if cond {
		return
	}
	function, file, line := callerLocation(1)
	crashAssertAt(function, file, line, condition, "")
}

// ExpectText is EnsureText for debug builds.
func ExpectText(cond bool, condition, explanation string) {
	if cond {
		return
	}
	function, file, line := callerLocation(1)
	crashAssertAt(function, file, line, condition, explanation)
}
