package rewrite

import (
	"strings"

	"github.com/jonathanKingston/mhtml2html/domtree"
)

// findShadowTemplate returns host's <template> child carrying a renamed
// shadow attribute, or nil if host has none.
func findShadowTemplate(host domtree.Node) domtree.Node {
	for _, c := range host.Children() {
		if c.TagName() != "template" {
			continue
		}
		if _, ok := c.Attr("data-shadowrootmode"); ok {
			return c
		}
		if _, ok := c.Attr("data-shadowmode"); ok {
			return c
		}
	}
	return nil
}

// onlySlotPlaceholders reports whether children (a shadow template's
// content) consists of nothing but <slot> elements, comments, and
// whitespace-only text.
func onlySlotPlaceholders(children []domtree.Node) bool {
	for _, c := range children {
		if c.IsComment() {
			continue
		}
		if c.IsText() {
			if strings.TrimSpace(c.InnerText()) == "" {
				continue
			}
			return false
		}
		if c.TagName() != "slot" {
			return false
		}
	}
	return true
}

// flattenShadowHost applies declarative-shadow-DOM flattening to host, if
// it carries a renamed shadow template (spec.md §4.E).
func flattenShadowHost(host domtree.Node) {
	template := findShadowTemplate(host)
	if template == nil {
		return
	}

	hostChildren := host.Children()
	hasNonTemplateSibling := false
	for _, c := range hostChildren {
		if !c.Same(template) {
			hasNonTemplateSibling = true
			break
		}
	}

	if onlySlotPlaceholders(template.Children()) || hasNonTemplateSibling {
		template.Remove()
	} else {
		for _, c := range template.Children() {
			if c.IsComment() {
				continue
			}
			host.AppendChild(c)
		}
		template.Remove()
	}

	host.RemoveAttr("loaded")
}
