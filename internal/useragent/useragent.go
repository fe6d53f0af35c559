// SPDX-License-Identifier: MIT

package useragent

import "strings"

// IsSafariBrowser detects Safari on macOS/iOS.
// Safari has "Safari/" and "AppleWebKit/", but not "Chrome/".
func IsSafariBrowser(userAgent string) bool {
	ua := userAgent
	hasSafari := strings.Contains(ua, "Safari/")
	hasChrome := strings.Contains(ua, "Chrome/") || strings.Contains(ua, "Chromium/")
	hasWebKit := strings.Contains(ua, "AppleWebKit/")
	return hasWebKit && hasSafari && !hasChrome
}

// IsNativeAppleClient detects native Apple clients (AVFoundation/WebKit HLS stack).
func IsNativeAppleClient(userAgent string) bool {
	ua := userAgent
	return strings.Contains(ua, "AppleCoreMedia") ||
		strings.Contains(ua, "CFNetwork") ||
		strings.Contains(ua, "VideoToolbox")
}

// IsAppleNativeHLS reports whether the user agent belongs to the vendor whose
// browsers support HLS natively. This is a vendor heuristic, not a feature
// probe: the synchronous canPlayType-style query over-reports on some
// non-Apple platforms, so selection requires both signals.
func IsAppleNativeHLS(userAgent string) bool {
	return IsSafariBrowser(userAgent) || IsNativeAppleClient(userAgent)
}
