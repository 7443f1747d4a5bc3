// Package useragent classifies raw User-Agent strings into the coarse
// device/OS/bot categories used by the analytics pipeline. It deliberately
// avoids a full device database: the dashboard only distinguishes
// Desktop/Tablet/Mobile and a handful of operating systems.
package useragent

import (
	"strings"
	"sync"

	"go.elara.ws/pcre"
)

// Device type labels
const (
	DeviceDesktop = "Desktop"
	DeviceTablet  = "Tablet"
	DeviceMobile  = "Mobile"
)

// Operating system labels
const (
	OSWindows = "Windows"
	OSMacOS   = "macOS"
	OSIOS     = "iOS"
	OSAndroid = "Android"
	OSLinux   = "Linux"
	OSOther   = "Other"
)

// botPattern matches the fixed set of crawler tokens anywhere in the
// user agent, case-insensitively. The tokens are substrings, not words:
// "GoogleBot" and "crawler" must both match.
const botPattern = `(?i)(bot|spider|crawl|slurp|phantom|headless|pingdom)`

var (
	botRegex     *pcre.Regexp
	botRegexOnce sync.Once
)

func getBotRegex() *pcre.Regexp {
	botRegexOnce.Do(func() {
		botRegex = pcre.MustCompile(botPattern)
	})
	return botRegex
}

// IsProbablyBot reports whether the user agent looks like automated traffic.
// An empty user agent is not treated as a bot; dropping it would also drop
// privacy-focused browsers that blank the header.
func IsProbablyBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	return getBotRegex().MatchString(userAgent)
}

// DetectDevice derives the device type and operating system from a user
// agent string. The check order matters: tablet markers are tested before
// mobile markers because tablet UAs often contain "mobile", and "iphone"
// resolves iOS before the generic mobile fallback would.
func DetectDevice(userAgent string) (deviceType, deviceOS string) {
	ua := strings.ToLower(userAgent)

	deviceType = DeviceDesktop
	if strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") {
		deviceType = DeviceTablet
	} else if strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android") {
		deviceType = DeviceMobile
	}

	deviceOS = OSOther
	switch {
	case strings.Contains(ua, "windows"):
		deviceOS = OSWindows
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		deviceOS = OSMacOS
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		deviceOS = OSIOS
	case strings.Contains(ua, "android"):
		deviceOS = OSAndroid
	case strings.Contains(ua, "linux"):
		deviceOS = OSLinux
	}

	return deviceType, deviceOS
}
