// Package debug provides assertions that are compiled in for all builds.
package debug

import "fmt"

func Assert(cond bool) {
	if !cond {
		panic("assertion failed")
	}
}

func Assertf(cond bool, format string, a ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}
