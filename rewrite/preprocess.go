package rewrite

import "regexp"

// shadowRootModePattern and shadowModePattern rename the declarative
// shadow-DOM attributes before the HTML ever reaches a DOM provider.
//
// Some DOM providers implement partial declarative-shadow-DOM semantics
// that consume a host element's light-DOM children the moment they see
// shadowrootmode/shadowmode, silently erasing content this package is
// responsible for preserving. Renaming the attribute defers all shadow
// handling to flattenShadowHost (spec.md §4.E).
var (
	shadowRootModePattern = regexp.MustCompile(`(?i)(\A|[\s<])shadowrootmode(\s*=)`)
	shadowModePattern     = regexp.MustCompile(`(?i)(\A|[\s<])shadowmode(\s*=)`)
)

// PreprocessShadowAttrs renames shadowrootmode/shadowmode attributes to
// data-shadowrootmode/data-shadowmode in raw HTML text, before it is
// handed to a DOM provider.
func PreprocessShadowAttrs(htmlText string) string {
	htmlText = shadowRootModePattern.ReplaceAllString(htmlText, "${1}data-shadowrootmode${2}")
	htmlText = shadowModePattern.ReplaceAllString(htmlText, "${1}data-shadowmode${2}")
	return htmlText
}
