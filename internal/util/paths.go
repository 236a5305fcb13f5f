package util

import (
	"regexp"
	"strings"
)

// wildcard matches one path segment, including an optional occurrence suffix.
const wildcard = `[^.]+`

func pathPattern(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*`, wildcard)
	return regexp.MustCompile("^" + quoted + "$")
}

// MatchPath reports whether an absolute node path matches pattern. A "*"
// segment in pattern matches any single path segment.
func MatchPath(path, pattern string) bool {
	if pattern == "" {
		return false
	}
	return pathPattern(pattern).MatchString(path)
}

// IsAncestor reports whether the node at path is a strict ancestor of the
// node addressed by pattern. The root path "." is the ancestor of everything.
func IsAncestor(path, pattern string) bool {
	if pattern == "" || path == pattern {
		return false
	}
	if path == "." {
		return true
	}
	segments := strings.Split(strings.TrimPrefix(pattern, "."), ".")
	for i := 1; i < len(segments); i++ {
		prefix := "." + strings.Join(segments[:i], ".")
		if MatchPath(path, prefix) {
			return true
		}
	}
	return false
}
