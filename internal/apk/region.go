package apk

import (
	"fmt"
	"strings"
)

// Region is a game server deployment with its own APK.
type Region string

const (
	Global Region = "global"
	Japan  Region = "japan"
)

// Regions lists every region in update order.
func Regions() []Region {
	return []Region{Japan, Global}
}

func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global", "gl":
		return Global, nil
	case "japan", "jp":
		return Japan, nil
	default:
		return "", fmt.Errorf("unknown region %q (valid: global, japan)", s)
	}
}

// PackageName is the Android application id of the region's client.
func (r Region) PackageName() string {
	switch r {
	case Japan:
		return "com.YostarJP.BlueArchive"
	default:
		return "com.nexon.bluearchive"
	}
}

// DefaultSource is the XAPK download URL used when none is configured.
func (r Region) DefaultSource() string {
	return "https://d.apkpure.com/b/XAPK/" + r.PackageName() + "?version=latest"
}
