// Process priority lowering on Unix via setpriority(2).
//
// The daemon is a background companion to a running game; it should never
// compete with the game for CPU. A nice value of 10 keeps it responsive
// enough for its multi-second tick loop.

//go:build linux || darwin

package main

import "golang.org/x/sys/unix"

// ///////////////////////////////////////////////
// Process Priority
// ///////////////////////////////////////////////

// lowerPriority renices the current process to background priority.
func lowerPriority() error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, 10)
}
