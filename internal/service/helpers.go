package service

import "strings"

// BuildCaption assembles the outgoing caption: hashtags are space-joined and
// appended after a blank line.
func BuildCaption(caption string, hashtags []string) string {
	if len(hashtags) == 0 {
		return caption
	}

	tags := strings.Join(hashtags, " ")
	if caption == "" {
		return tags
	}
	return caption + "\n\n" + tags
}
