package platform

import "strings"

// Host markers a URL must contain to be accepted
var VideoHostMarkers = []string{"youtube.com", "youtu.be"}

// IsVideoHostURL reports whether url points at a supported video host
func IsVideoHostURL(url string) bool {
	for _, marker := range VideoHostMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// FilterVideoURLs trims the inputs and keeps the supported ones in order
func FilterVideoURLs(urls []string) []string {
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || !IsVideoHostURL(u) {
			continue
		}
		valid = append(valid, u)
	}
	return valid
}
