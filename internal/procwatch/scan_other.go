//go:build !linux && !windows

package procwatch

// targetNames is unused on unsupported platforms but keeps classify
// compiling.
var targetNames = map[Kind][]string{}

type platformScanner struct{}

// Scan reports nothing running. TF2 ships for Windows and Linux only, so
// other platforms permanently sit in the waiting state.
func (platformScanner) Scan() (ScanResult, error) {
	return ScanResult{}, nil
}
