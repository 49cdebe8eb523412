package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string, logged on
// login for account activity auditing
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
	Raw        string `json:"raw"`
}

// ParseUserAgent parses a User-Agent string and extracts device information
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{
			DeviceType: "unknown",
			OS:         "Unknown",
			Browser:    "Unknown",
		}
	}

	parser := ua.New(userAgent)

	info := DeviceInfo{
		Raw:        userAgent,
		IsBot:      parser.Bot(),
		DeviceType: "desktop",
	}
	if parser.Mobile() {
		info.DeviceType = "mobile"
	}

	osInfo := parser.OSInfo()
	info.OS = osInfo.Name
	if info.OS == "" {
		info.OS = "Unknown"
	} else if osInfo.Version != "" {
		info.OS = osInfo.Name + " " + osInfo.Version
	}

	name, version := parser.Browser()
	if name == "" {
		info.Browser = "Unknown"
	} else if version != "" {
		info.Browser = name + " " + version
	} else {
		info.Browser = name
	}

	return info
}

// Summary renders a compact one-line description for log fields
func (d DeviceInfo) Summary() string {
	parts := []string{d.DeviceType, d.OS, d.Browser}
	return strings.Join(parts, " / ")
}
