//go:build !linux && !darwin && !windows

package main

// lowerPriority is a no-op on platforms without a priority API binding.
func lowerPriority() error {
	return nil
}
