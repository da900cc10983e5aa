// Package ai turns a thread's history into model-written replies.
//
// The pipeline is: Renderer builds the prompt, Resolver picks the key and model,
// Client calls the backend and Split cuts the raw answer into posts. Generator
// wires the four together and is the only type the rest of the program uses.
package ai

import (
	"regexp"
	"strconv"
	"strings"

	"neurodvach/config"
	"neurodvach/models"
)

// Request is everything needed for one generation call. It is never persisted.
type Request struct {
	BoardSlug   string
	BoardTitle  string
	ThreadTitle string
	Posts       []models.Post
	ReplyCount  int
	UserAPIKey  string
	UserModelID string
}

var leadingInt = regexp.MustCompile(`^\s*([+-]?\d+)`)

// ClampReplyCount parses a caller-supplied reply count the lenient way
// ("3", " 2 posts", "4.9") and clamps it to [MinReplies, MaxReplies].
// Anything without a leading integer yields MinReplies.
func ClampReplyCount(raw string) int {
	m := leadingInt.FindStringSubmatch(raw)
	if m == nil {
		return config.MinReplies
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Only range errors are possible here.
		if strings.HasPrefix(m[1], "-") {
			return config.MinReplies
		}
		return config.MaxReplies
	}
	return ClampInt(n)
}

// ClampInt clamps n to [MinReplies, MaxReplies].
func ClampInt(n int) int {
	if n < config.MinReplies {
		return config.MinReplies
	}
	if n > config.MaxReplies {
		return config.MaxReplies
	}
	return n
}
