package util

import (
	"regexp"
	"strings"

	"github.com/mssola/useragent"
)

// DeviceInfo is the structured result of parsing a raw user-agent string.
// Derived deterministically; every unmatched signal degrades to a labeled
// "Unknown" value, never to a failure.
type DeviceInfo struct {
	Brand        string `json:"brand"`
	OS           string `json:"os"`
	Device       string `json:"device"`
	Browser      string `json:"browser"`
	IsVirtual    bool   `json:"is_virtual"`
	RawUserAgent string `json:"raw_user_agent"`
}

const (
	unknownOS      = "Unknown OS"
	unknownDevice  = "Unknown Device"
	unknownBrowser = "Unknown Browser"
	unknownBrand   = "Generic/Unknown"
)

// The detection heuristics below are deliberately kept as ordered rule
// tables: first match wins and the precedence is part of the contract.

type osRule struct {
	name string
	match *regexp.Regexp
	// version captures an optional version substring appended to the label.
	version *regexp.Regexp
	// underscoreVersion converts 16_4_1 style captures to 16.4.1.
	underscoreVersion bool
}

var osRules = []osRule{
	{name: "Windows", match: regexp.MustCompile(`Windows`), version: regexp.MustCompile(`Windows NT (\d+\.\d+)`)},
	{name: "Android", match: regexp.MustCompile(`Android`), version: regexp.MustCompile(`Android\s([0-9.]+)`)},
	{name: "iOS", match: regexp.MustCompile(`iPhone|iPad|iPod`), version: regexp.MustCompile(`OS\s([\d_]+)`), underscoreVersion: true},
	{name: "MacOS", match: regexp.MustCompile(`Mac`), version: regexp.MustCompile(`Mac OS X\s([\d_]+)`), underscoreVersion: true},
	{name: "Linux", match: regexp.MustCompile(`Linux`)},
}

type virtualRule struct {
	match *regexp.Regexp
	label string
}

// Emulator/headless signatures. Best-effort heuristic, not a security
// control; false negatives are expected.
var virtualRules = []virtualRule{
	{match: regexp.MustCompile(`(?i)Bluestacks`), label: "Bluestacks Emulator"},
	{match: regexp.MustCompile(`HeadlessChrome|Wget|curl`), label: "Bot/Crawler"},
}

type browserRule struct {
	name    string
	match   *regexp.Regexp
	exclude *regexp.Regexp
}

var browserRules = []browserRule{
	{name: "Chrome", match: regexp.MustCompile(`Chrome`), exclude: regexp.MustCompile(`Chromium|Edge|OPR`)},
	{name: "Firefox", match: regexp.MustCompile(`Firefox`)},
	{name: "Safari", match: regexp.MustCompile(`Safari`), exclude: regexp.MustCompile(`Chrome`)},
	{name: "Edge", match: regexp.MustCompile(`Edge`)},
}

type brandRule struct {
	name    string
	applies func(os, device, ua string) bool
}

var (
	samsungRe = regexp.MustCompile(`(?i)Samsung`)
	pixelRe   = regexp.MustCompile(`(?i)Pixel`)
	huaweiRe  = regexp.MustCompile(`(?i)Huawei`)
	oppoRe    = regexp.MustCompile(`(?i)OPPO`)
	vivoRe    = regexp.MustCompile(`(?i)Vivo`)
	xiaomiRe  = regexp.MustCompile(`(?i)Xiaomi|Redmi`)
	oneplusRe = regexp.MustCompile(`(?i)OnePlus`)
	sonyRe    = regexp.MustCompile(`(?i)Sony`)
)

var brandRules = []brandRule{
	{name: "Apple", applies: func(os, device, ua string) bool {
		return strings.Contains(os, "iOS") || strings.Contains(os, "MacOS") || strings.Contains(os, "Mac")
	}},
	{name: "Samsung", applies: func(os, device, ua string) bool {
		return strings.Contains(device, "SM-") || strings.Contains(device, "GT-") || samsungRe.MatchString(ua)
	}},
	{name: "Google Pixel", applies: func(os, device, ua string) bool {
		return pixelRe.MatchString(device) || pixelRe.MatchString(ua)
	}},
	{name: "Huawei", applies: func(os, device, ua string) bool {
		return huaweiRe.MatchString(ua) || huaweiRe.MatchString(device)
	}},
	{name: "OPPO", applies: func(os, device, ua string) bool { return oppoRe.MatchString(ua) }},
	{name: "Vivo", applies: func(os, device, ua string) bool { return vivoRe.MatchString(ua) }},
	{name: "Xiaomi", applies: func(os, device, ua string) bool { return xiaomiRe.MatchString(ua) }},
	{name: "OnePlus", applies: func(os, device, ua string) bool { return oneplusRe.MatchString(ua) }},
	{name: "Sony", applies: func(os, device, ua string) bool { return sonyRe.MatchString(ua) }},
	{name: "PC (Windows)", applies: func(os, device, ua string) bool { return strings.Contains(os, "Windows") }},
	{name: "PC (Linux)", applies: func(os, device, ua string) bool { return strings.Contains(os, "Linux") }},
}

var androidModelRe = regexp.MustCompile(`;\s?([^;]+?)\sBuild/`)

// GetDeviceInfo parses a raw user-agent string into structured
// brand/OS/device/browser attributes. It never fails: signals that cannot be
// matched resolve to labeled "Unknown" values.
func GetDeviceInfo(ua string) DeviceInfo {
	info := DeviceInfo{
		Brand:        unknownBrand,
		OS:           unknownOS,
		Device:       unknownDevice,
		Browser:      unknownBrowser,
		RawUserAgent: ua,
	}

	osName := ""
	for _, rule := range osRules {
		if !rule.match.MatchString(ua) {
			continue
		}
		osName = rule.name
		info.OS = rule.name
		if rule.version != nil {
			if m := rule.version.FindStringSubmatch(ua); m != nil {
				ver := m[1]
				if rule.underscoreVersion {
					ver = strings.ReplaceAll(ver, "_", ".")
				}
				info.OS += " " + ver
			}
		}
		break
	}

	switch osName {
	case "Android":
		if m := androidModelRe.FindStringSubmatch(ua); m != nil {
			info.Device = m[1]
		}
	case "iOS":
		switch {
		case strings.Contains(ua, "iPhone"):
			info.Device = "iPhone"
		case strings.Contains(ua, "iPad"):
			info.Device = "iPad"
		default:
			info.Device = "iPod"
		}
	}

	for _, rule := range virtualRules {
		if rule.match.MatchString(ua) {
			info.IsVirtual = true
			info.Device = rule.label
			break
		}
	}

	for _, rule := range browserRules {
		if rule.match.MatchString(ua) && (rule.exclude == nil || !rule.exclude.MatchString(ua)) {
			info.Browser = rule.name
			break
		}
	}

	for _, rule := range brandRules {
		if rule.applies(info.OS, info.Device, ua) {
			info.Brand = rule.name
			break
		}
	}

	if info.Device == unknownDevice {
		if osName == "MacOS" {
			info.Device = "Mac"
		} else {
			info.Device = "PC/Generic"
		}
	}

	return info
}

// DeviceDisplayName extracts a short human-readable device name from a
// user-agent string, e.g. "Chrome on Linux". Used for session records and
// log context where the full DeviceInfo breakdown would be noise.
func DeviceDisplayName(ua string) string {
	if ua == "" {
		return unknownDevice
	}

	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	osName := parsed.OS()

	if parsed.Mobile() {
		if platform := parsed.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = unknownBrowser
	}
	if osName == "" {
		osName = unknownOS
	}

	return strings.TrimSpace(browser + " on " + osName)
}
