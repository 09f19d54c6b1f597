// conn_wsl.go adds socket paths for WSL, where Discord runs on the Windows
// host and its named pipe is only reachable through a user-provided relay:
//
//	socat UNIX-LISTEN:/tmp/discord-ipc-0,fork EXEC:"npiperelay.exe -ep -s //./pipe/discord-ipc-0"
//
// When no relay is running these paths simply do not exist and discovery
// falls through to ErrIPCNotAvailable.

//go:build linux

package discord

import (
	"fmt"
	"os"
	"strings"
)

// isWSL reports whether the process runs inside WSL.
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}

// wslSocketPaths returns the socket locations a relay bridge would create.
func wslSocketPaths() []string {
	if !isWSL() {
		return nil
	}

	var paths []string
	for i := 0; i < maxIPCSlots; i++ {
		paths = append(paths, fmt.Sprintf("/tmp/discord-ipc-%d", i))
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("%s/discord-ipc-%d", dir, i))
		}
	}
	return paths
}
