// internal/ua/ua.go
//
// User‑Agent parsing helpers.
//
// This wrapper isolates the third‑party `github.com/avct/uasurfer` API so
// the rest of the codebase never sees its enums or structs.  Names are
// stripped of the library's type prefixes ("BrowserChrome" → "Chrome").
package ua

import (
	"fmt"
	"strconv"
	"strings"

	surfer "github.com/avct/uasurfer"
)

// Info carries the UA attributes logged per request and stored with each
// archived registration.
//
// Example (Chrome on Android):
//
//	Browser   "Chrome"
//	Version   "125"
//	OS        "Android"
//	OSVersion "14"
//	Device    "Mobile"
//	Platform  "Linux"
//	IsBot     false
//
// Device will be one of: "Desktop", "Mobile", "Tablet", "Bot", or "Other".
type Info struct {
	Browser   string
	Version   string
	OS        string
	OSVersion string
	Device    string
	Platform  string
	IsBot     bool
}

// Parse converts a raw header into an Info struct.
func Parse(raw string) Info {
	u := surfer.Parse(raw)

	info := Info{
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   versionToString(u.Browser.Version),
		OS:        strings.TrimPrefix(u.OS.Name.String(), "OS"),
		OSVersion: versionToString(u.OS.Version),
		Platform:  strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:     u.IsBot(),
	}

	switch {
	case info.IsBot:
		info.Device = "Bot"
	case u.DeviceType == surfer.DeviceComputer:
		info.Device = "Desktop"
	case u.DeviceType == surfer.DeviceTablet:
		info.Device = "Tablet"
	case u.DeviceType == surfer.DevicePhone, u.DeviceType == surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}

	return info
}

// Summary renders a short "Chrome 125 / Android / Mobile" label.
func (i Info) Summary() string {
	b := i.Browser
	if i.Version != "" {
		b += " " + i.Version
	}
	return b + " / " + i.OS + " / " + i.Device
}

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(v.Major)
}
