//go:build windows

package procwatch

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// targetNames maps each watched process to the executable names it runs
// under on Windows, compared lowercase against the Toolhelp entry name.
var targetNames = map[Kind][]string{
	Game:    {"tf_win64.exe", "tf.exe", "hl2.exe"},
	Discord: {"discord.exe", "discordptb.exe", "discordcanary.exe"},
	Steam:   {"steam.exe"},
}

type platformScanner struct{}

// Scan takes a Toolhelp32 process snapshot and fills a ScanResult from it.
// Image path and creation time need a process handle; when OpenProcess is
// denied the snapshot still reports Running and PID.
func (platformScanner) Scan() (ScanResult, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ScanResult{}, fmt.Errorf("process snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var result ScanResult
	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snap, &entry); err != nil {
		return ScanResult{}, fmt.Errorf("walk process snapshot: %w", err)
	}
	for {
		name := windows.UTF16ToString(entry.ExeFile[:])
		if kind, ok := classify(name); ok {
			result.record(kind, describe(entry.ProcessID))
		}
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return result, nil
}

// describe builds a Snapshot for pid, best-effort enriching it with the
// image path and creation time.
func describe(pid uint32) Snapshot {
	snap := Snapshot{Running: true, PID: int(pid)}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return snap
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err == nil {
		snap.Path = windows.UTF16ToString(buf[:size])
	}

	var creation, exit, kernel, user windows.Filetime
	if err := windows.GetProcessTimes(h, &creation, &exit, &kernel, &user); err == nil {
		snap.StartTime = time.Unix(0, creation.Nanoseconds())
	}
	return snap
}
