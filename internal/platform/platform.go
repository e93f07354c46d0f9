package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Platform tags used by release artifacts.
const (
	WinX64     = "win-x64"
	WinArm64   = "win-arm64"
	OSXX64     = "osx-x64"
	OSXArm64   = "osx-arm64"
	MacX64     = "mac-x64"
	MacArm64   = "mac-arm64"
	LinuxX64   = "linux-x64"
	LinuxArm64 = "linux-arm64"
)

// ErrUnsupported is returned for OS/architecture pairs without a release asset.
var ErrUnsupported = errors.New("unsupported platform")

// Resolve maps an OS/architecture pair to a platform tag. macPrefix selects the
// "mac-" naming some download sources use instead of "osx-".
func Resolve(goos, goarch string, macPrefix bool) (string, error) {
	switch goos {
	case "windows":
		switch goarch {
		case "amd64":
			return WinX64, nil
		case "arm64":
			return WinArm64, nil
		}
	case "darwin":
		switch goarch {
		case "amd64":
			if macPrefix {
				return MacX64, nil
			}
			return OSXX64, nil
		case "arm64":
			if macPrefix {
				return MacArm64, nil
			}
			return OSXArm64, nil
		}
	case "linux":
		switch goarch {
		case "amd64":
			return LinuxX64, nil
		case "arm64":
			return LinuxArm64, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnsupported, goos, goarch)
}

// Current resolves the platform tag of the running process.
func Current(macPrefix bool) (string, error) {
	return Resolve(runtime.GOOS, runtime.GOARCH, macPrefix)
}

// ExecutableName appends the host executable suffix to base.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// IsWindows reports whether the host never needs an executable bit.
func IsWindows() bool {
	return runtime.GOOS == "windows"
}
