package sensors

import (
	"regexp"
	"strings"
)

const maxNameLength = 7

var nameSeparators = regexp.MustCompile(`[.\-_]`)

// NormalizeProcessName collapses process name variants ("chrome.exe",
// "chrome-sandbox", "chrome_crashpad") onto one aggregation key: the first
// token before any separator, trimmed and capped.
func NormalizeProcessName(name string) string {
	first := nameSeparators.Split(name, 2)[0]
	first = strings.TrimSpace(first)
	if len(first) > maxNameLength {
		first = first[:maxNameLength]
	}

	return first
}
