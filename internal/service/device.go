package service

import "strings"

// DeviceInfo describes the client a session was created from
type DeviceInfo struct {
	UserAgent  string
	IPAddress  string
	DeviceType string
}

// Device types derived from the user agent
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// ParseDeviceInfo classifies a client from its user agent string.
// Classification is cosmetic; sessions behave identically regardless.
func ParseDeviceInfo(userAgent, ip string) DeviceInfo {
	info := DeviceInfo{
		UserAgent:  userAgent,
		IPAddress:  ip,
		DeviceType: DeviceDesktop,
	}

	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		info.DeviceType = DeviceTablet
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		info.DeviceType = DeviceMobile
	}

	return info
}
