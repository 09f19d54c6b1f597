// Process priority lowering on Windows via SetPriorityClass.

//go:build windows

package main

import "golang.org/x/sys/windows"

// ///////////////////////////////////////////////
// Process Priority
// ///////////////////////////////////////////////

// lowerPriority moves the current process to the below-normal priority
// class so the daemon never competes with the game for CPU.
func lowerPriority() error {
	return windows.SetPriorityClass(windows.CurrentProcess(), windows.BELOW_NORMAL_PRIORITY_CLASS)
}
