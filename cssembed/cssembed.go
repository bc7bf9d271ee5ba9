// Package cssembed rewrites CSS text so that every url(...) reference it
// can resolve against an archive is replaced by a data: URI, recursing
// into nested stylesheets. It is a textual substitution pass, not a CSS
// parser: grounded on the teacher's cssURLPattern/embedCSSAssets approach
// (regexp.ReplaceAllStringFunc over a url(...) pattern) generalized to
// consult an mhtml.Archive instead of the local filesystem.
package cssembed

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathanKingston/mhtml2html/mhtml"
)

// maxDepth is the hard ceiling on @import-chain recursion, guarding
// against a cycle between two stylesheets that both reference each other
// (spec.md §4.D termination clause, option (b)).
const maxDepth = 32

// urlPattern matches a CSS url(...) token, tolerating quoted and unquoted
// forms. Capturing the prefix/suffix lets the replacement preserve
// whichever quote style (or lack of one) the original author used.
var urlPattern = regexp.MustCompile(`(url\(\s*["']?)([^"')]+)(["']?\s*\))`)

// Logger receives advisory messages for references the rewriter could not
// embed. A nil Logger discards them.
type Logger func(format string, args ...any)

// Rewrite produces a copy of css in which every url(...) reference that
// resolves against a is replaced by a data: URI. base is the URL that
// relative references inside css are resolved against (spec.md §4.B).
func Rewrite(a *mhtml.Archive, css, base string, log Logger) string {
	return rewrite(a, css, base, log, make(map[string]bool), 0)
}

func rewrite(a *mhtml.Archive, css, base string, log Logger, visited map[string]bool, depth int) string {
	if depth >= maxDepth {
		if log != nil {
			log("cssembed: max recursion depth reached at base %q, leaving remaining url() references unchanged", base)
		}
		return css
	}

	var out strings.Builder
	cursor := 0

	for cursor < len(css) {
		loc := urlPattern.FindStringSubmatchIndex(css[cursor:])
		if loc == nil {
			out.WriteString(css[cursor:])
			break
		}

		// loc indices are relative to css[cursor:]; translate to absolute.
		matchStart, matchEnd := cursor+loc[0], cursor+loc[1]
		prefix := css[cursor+loc[2] : cursor+loc[3]]
		ref := css[cursor+loc[4] : cursor+loc[5]]
		suffix := css[cursor+loc[6] : cursor+loc[7]]

		out.WriteString(css[cursor:matchStart])

		replacement, embedded := embedOne(a, ref, base, log, visited, depth)
		if embedded {
			out.WriteString(prefix)
			out.WriteString(replacement)
			out.WriteString(suffix)
		} else {
			out.WriteString(css[matchStart:matchEnd])
		}

		// Advance the cursor past the *original* reference's match, not
		// the (generally much longer) replacement, so the scan remains
		// O(|input| + embedded asset sizes) rather than re-scanning the
		// freshly inserted data URI (spec.md §4.D, §5).
		cursor = matchEnd
	}

	return out.String()
}

// embedOne resolves one url(...) reference and, if it names a known
// resource, returns its replacement payload. Nested CSS assets recurse
// before being embedded as the final data URI.
func embedOne(a *mhtml.Archive, ref, base string, log Logger, visited map[string]bool, depth int) (string, bool) {
	key, ok := mhtml.Resolve(a, base, ref)
	if !ok {
		return "", false
	}

	res := a.Media[key]

	if res.ContentType == "text/css" {
		if visited[key] {
			if log != nil {
				log("cssembed: cycle detected at %q, leaving reference unchanged", key)
			}
			return "", false
		}
		decoded, err := mhtml.Decode(res.TransferEncoding, res.Data)
		if err != nil {
			if log != nil {
				log("cssembed: failed to decode nested stylesheet %q: %v", key, err)
			}
			return "", false
		}
		visited[key] = true
		nested := rewrite(a, string(decoded), key, log, visited, depth+1)
		delete(visited, key)

		encoded, err := dataURIFromText(res.ContentType, nested)
		if err != nil {
			if log != nil {
				log("cssembed: failed to encode nested stylesheet %q: %v", key, err)
			}
			return "", false
		}
		return encoded, true
	}

	uri, err := mhtml.ToDataURI(res)
	if err != nil {
		if log != nil {
			log("cssembed: failed to embed %q: %v", key, err)
		}
		return "", false
	}
	return uri, true
}

// dataURIFromText base64-encodes already-rewritten CSS text for
// re-embedding, mirroring ToDataURI's base64 scheme for binary payloads.
func dataURIFromText(contentType, text string) (string, error) {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString([]byte(text))), nil
}
