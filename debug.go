package swisstable

import "fmt"

// debugAssertionsEnabled gates internal invariant checks (mirror-byte
// invariant, replica invariant, probe-length invariant) that document
// assumptions but are not part of the user-visible error surface (spec
// §7). Mirrors the debug-tracing pattern in thepudds/swisstable-wip
// (map.go's `const debug = false` guarding
// `if debug { panic(...) }`), generalized into a single assert helper.
const debugAssertionsEnabled = false

// assert panics with msg if debugAssertionsEnabled and cond is false. It is
// a no-op in production builds; callers must not rely on it for
// user-visible error handling — the bounded-probe and version checks that
// surface ConcurrentModification to callers are separate, always-on logic.
func assert(cond bool, msg string, args ...any) {
	if !debugAssertionsEnabled {
		return
	}
	if !cond {
		panic(fmt.Sprintf(msg, args...))
	}
}
