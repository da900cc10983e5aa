package ai

import (
	"strings"

	"neurodvach/config"
)

// Split cuts a raw model answer into at most count trimmed, non-empty posts.
// Short answers are returned as they are. An answer made only of whitespace
// and delimiters yields the "silent" placeholder as the only post.
func Split(raw string, count int) []string {
	return splitOn(raw, config.PostDelimiter, ClampInt(count))
}

func splitOn(raw, delimiter string, count int) []string {
	var out []string
	for _, seg := range strings.Split(raw, delimiter) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		out = append(out, seg)
		if len(out) == count {
			return out
		}
	}
	if len(out) == 0 {
		return []string{config.PlaceholderSilent}
	}
	return out
}
