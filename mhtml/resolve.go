package mhtml

import (
	"net/url"
	"strings"
)

// Resolve finds the archive.Media key that ref (as seen in HTML or CSS,
// relative to base) refers to. It tries four strategies in order and
// returns the first hit (spec.md §4.B); if none hit, ok is false and the
// reference should be left unchanged by the caller.
func Resolve(a *Archive, base, ref string) (key string, ok bool) {
	ref = unquote(ref)
	if ref == "" {
		return "", false
	}

	// 1. Direct.
	if _, exists := a.Media[ref]; exists {
		return ref, true
	}

	// 2. Relative join.
	if joined, joinOK := joinRelative(base, ref); joinOK {
		if _, exists := a.Media[joined]; exists {
			return joined, true
		}
	}

	// 3. Root-relative.
	if strings.HasPrefix(ref, "/") {
		if origin, originOK := originOf(base); originOK {
			candidate := origin + ref
			if _, exists := a.Media[candidate]; exists {
				return candidate, true
			}
		}
	}

	// 4. Filename tail: the last path segment of ref, if long enough,
	// matched against the suffix of any media key. First hit in the
	// archive's insertion order wins.
	if tail := lastSegment(ref); len(tail) > 3 {
		for _, k := range a.MediaKeys {
			if k == ref {
				continue
			}
			if strings.HasSuffix(k, "/"+tail) || k == tail {
				return k, true
			}
		}
	}

	return "", false
}

// unquote strips one layer of surrounding single or double quotes.
func unquote(ref string) string {
	ref = strings.TrimSpace(ref)
	if len(ref) >= 2 {
		if (ref[0] == '"' && ref[len(ref)-1] == '"') || (ref[0] == '\'' && ref[len(ref)-1] == '\'') {
			return ref[1 : len(ref)-1]
		}
	}
	return ref
}

// joinRelative performs a path-only join: pop the last segment of base,
// then fold "." and ".." segments of ref against the remaining stack. It
// deliberately does not touch scheme or authority beyond what base
// already supplies.
func joinRelative(base, ref string) (string, bool) {
	if base == "" {
		return "", false
	}
	if strings.Contains(ref, "://") {
		return "", false
	}

	prefix, basePath := splitPrefix(base)
	rooted := strings.HasPrefix(basePath, "/")

	// Segments exclude the leading "/" marker entirely (rooted tracks it
	// separately) so a ".." can never pop past the root the way popping a
	// stack that still contained a leading "" sentinel could.
	stack := strings.Split(strings.Trim(basePath, "/"), "/")
	if len(stack) == 1 && stack[0] == "" {
		stack = stack[:0]
	}
	if len(stack) > 0 {
		stack = stack[:len(stack)-1] // pop last segment (the document itself)
	}

	for _, seg := range strings.Split(ref, "/") {
		switch seg {
		case "", ".":
			// no-op
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}

	joined := strings.Join(stack, "/")
	if rooted {
		joined = "/" + joined
	}
	return prefix + joined, true
}

// splitPrefix splits base into a scheme+authority prefix and a path, so
// joinRelative can fold path segments without disturbing the prefix. If
// base does not parse as an absolute URL, the whole string is treated as
// a path with no prefix.
func splitPrefix(base string) (prefix, path string) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", base
	}
	return u.Scheme + "://" + u.Host, u.Path
}

// originOf returns "<scheme>://<host>" for base, if base parses as an
// absolute URL with both a scheme and a host.
func originOf(base string) (string, bool) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// lastSegment returns the final "/"-delimited segment of ref.
func lastSegment(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
