// conn_wsl_stub.go disables WSL probing on platforms where it cannot apply.

//go:build !linux && !windows

package discord

func isWSL() bool              { return false }
func wslSocketPaths() []string { return nil }
