//go:build !crashdebug

package crashy

// Expect only checks in debug builds (-tags crashdebug); in release builds
// the condition is discarded.
func Expect(bool, string) {}

// ExpectText only checks in debug builds (-tags crashdebug).
func ExpectText(bool, string, string) {}
