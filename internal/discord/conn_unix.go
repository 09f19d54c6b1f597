// conn_unix.go discovers Discord's IPC socket on Unix-like systems by
// probing XDG_RUNTIME_DIR, /tmp, and the Snap/Flatpak app directories.

//go:build !windows

package discord

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// connectToDiscord dials each candidate socket path in preference order and
// returns the first connection that succeeds.
func connectToDiscord() (net.Conn, error) {
	var paths []string

	// Discord stable, Canary, and PTB use distinct socket name prefixes.
	variants := []string{"discord-ipc", "discordcanary-ipc", "discordptb-ipc"}

	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		for _, v := range variants {
			for i := 0; i < maxIPCSlots; i++ {
				paths = append(paths, fmt.Sprintf("%s/%s-%d", dir, v, i))
			}
		}
	}

	// /tmp fallback for systems without XDG_RUNTIME_DIR.
	for _, v := range variants {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("/tmp/%s-%d", v, i))
		}
	}

	// Snap confines Discord's sockets under per-snap runtime directories.
	uid := strconv.Itoa(os.Getuid())
	for _, sd := range []string{"snap.discord", "snap.discord-canary", "snap.discord-ptb"} {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("/run/user/%s/%s/discord-ipc-%d", uid, sd, i))
		}
	}

	// Flatpak scopes them under the app ID instead.
	flatpakApps := []string{
		"com.discordapp.Discord",
		"com.discordapp.DiscordCanary",
		"com.discordapp.DiscordPTB",
	}
	for _, app := range flatpakApps {
		for i := 0; i < maxIPCSlots; i++ {
			paths = append(paths, fmt.Sprintf("/run/user/%s/app/%s/discord-ipc-%d", uid, app, i))
		}
	}

	// Under WSL a socat/npiperelay bridge may expose the Windows pipe as a
	// Unix socket; those paths overlap the ones above but probing a missing
	// path is cheap, so no deduplication.
	paths = append(paths, wslSocketPaths()...)

	for _, path := range paths {
		conn, err := net.Dial("unix", path)
		if err == nil {
			return conn, nil
		}
	}

	if isWSL() {
		return nil, fmt.Errorf("%w: running under WSL — a socat + npiperelay.exe bridge is required (see project docs)", ErrIPCNotAvailable)
	}
	return nil, ErrIPCNotAvailable
}
