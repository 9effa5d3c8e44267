package main

import (
	"fmt"
	"os"
	"strconv"
	"unsafe"

	"github.com/bvgastel/crashy"
)

var x = 0

//go:noinline
func crash() {
	switch x {
	case 1:
		// fault at a recognizable address
		*(*byte)(unsafe.Pointer(uintptr(0x42))) = 0x42
	case 2:
		panic(42)
	case 3:
		crashy.Ensure(false, "false")
	}
	panic(fmt.Errorf("foobar"))
}

//go:noinline
func bar() {
	crashy.PrintCurrentCallStack(30)
	crash()
}

//go:noinline
func foo() {
	bar()
}

func breadcrumbs() func() (crashy.Breadcrumb, bool) {
	i := 0
	return func() (crashy.Breadcrumb, bool) {
		defer func() { i++ }()
		switch i {
		case 0:
			return crashy.Breadcrumb{Level: "error", Time: 42, Message: []byte("breadcrumb 0")}, true
		case 1:
			return crashy.Breadcrumb{Level: "info", Time: 37, Message: []byte("breadcrumb 1")}, true
		}
		return crashy.Breadcrumb{}, false
	}
}

func main() {
	options := crashy.Options{SendFormat: crashy.SendJSONSentry}
	options.SetCommandLine(os.Args)
	options.GetContext = func() string { return "my-context" }
	options.GetBreadcrumbs = breadcrumbs()
	options.ConvertPanic = func(recovered interface{}) string {
		if n, ok := recovered.(int); ok {
			return fmt.Sprintf("number: %d", n)
		}
		return ""
	}
	crashy.GenerateDumpOnCrash(options)
	defer crashy.DumpOnPanic()

	if len(os.Args) > 1 {
		x, _ = strconv.Atoi(os.Args[1])
	}
	if x != 0 {
		foo()
	}
}
