package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemanglePassthrough(t *testing.T) {
	assert.Equal(t, "", Demangle(""))
	assert.Equal(t, "main.main", Demangle("main.main"))
	assert.Equal(t, "runtime.goexit", Demangle("runtime.goexit"))
}

func TestDemangleItanium(t *testing.T) {
	// int mangles to i; a free function bar(int) to _Z3bari
	assert.Equal(t, "bar(int)", Demangle("_Z3bari"))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "tester.go", BaseName("/src/demo/tester.go"))
	assert.Equal(t, "tester.go", BaseName("tester.go"))
	assert.Equal(t, "/src/demo/", DirName("/src/demo/tester.go"))
	assert.Equal(t, "", DirName("tester.go"))
	assert.Equal(t, "demo/tester.go", AfterFirstPath("src/demo/tester.go"))
	assert.Equal(t, "tester.go", AfterFirstPath("tester.go"))
}

func TestDisplayPath(t *testing.T) {
	exe := "/usr/local/bin/tester"
	assert.Equal(t, exe, displayPath("", exe))
	assert.Equal(t, exe, displayPath("tester", exe), "basename resolves to the canonical path")
	assert.Equal(t, "/lib/libc.so.7", displayPath("/lib/libc.so.7", exe))
}

func TestResolveMissYieldsEmptyFields(t *testing.T) {
	frame := Resolve("sym", "/nonexistent/image", 0x10, 0x401010, "/nonexistent/image")
	assert.Equal(t, "sym", frame.Function, "raw symbol survives a lookup miss")
	assert.Empty(t, frame.Source)
	assert.Zero(t, frame.Line)
}

func TestResolvePCMissIsEmpty(t *testing.T) {
	frame := ResolvePC(0x1, "/nonexistent/image")
	assert.Equal(t, Frame{}, frame)
}

func TestCurrentExecutable(t *testing.T) {
	path := CurrentExecutable("fallback")
	assert.NotEmpty(t, path)
	assert.NotEqual(t, "fallback", path)
}
