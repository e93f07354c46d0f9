package platform

import (
	"errors"
	"testing"
)

func TestResolveSupported(t *testing.T) {
	cases := []struct {
		goos, goarch string
		mac          bool
		want         string
	}{
		{"windows", "amd64", false, WinX64},
		{"windows", "arm64", false, WinArm64},
		{"darwin", "amd64", false, OSXX64},
		{"darwin", "arm64", false, OSXArm64},
		{"darwin", "amd64", true, MacX64},
		{"darwin", "arm64", true, MacArm64},
		{"linux", "amd64", false, LinuxX64},
		{"linux", "arm64", false, LinuxArm64},
		{"linux", "amd64", true, LinuxX64},
		{"windows", "amd64", true, WinX64},
	}
	for _, tc := range cases {
		got, err := Resolve(tc.goos, tc.goarch, tc.mac)
		if err != nil {
			t.Fatalf("Resolve(%s, %s, %v): %v", tc.goos, tc.goarch, tc.mac, err)
		}
		if got != tc.want {
			t.Fatalf("Resolve(%s, %s, %v) = %s, want %s", tc.goos, tc.goarch, tc.mac, got, tc.want)
		}
	}
}

func TestResolveUnsupported(t *testing.T) {
	pairs := [][2]string{
		{"linux", "386"},
		{"linux", "arm"},
		{"freebsd", "amd64"},
		{"darwin", "386"},
		{"windows", "386"},
		{"", ""},
	}
	for _, p := range pairs {
		got, err := Resolve(p[0], p[1], false)
		if !errors.Is(err, ErrUnsupported) {
			t.Fatalf("Resolve(%s, %s) err = %v, want ErrUnsupported", p[0], p[1], err)
		}
		if got != "" {
			t.Fatalf("Resolve(%s, %s) = %q, want empty tag", p[0], p[1], got)
		}
	}
}
