// Package rewrite mutates a parsed DOM in place so that it renders
// without needing any of the external resources the originating page
// referenced: stylesheets are inlined, images become data URIs, and
// (optionally) same-archive iframes are recursively converted and
// inlined too.
package rewrite

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathanKingston/mhtml2html/cssembed"
	"github.com/jonathanKingston/mhtml2html/domtree"
	"github.com/jonathanKingston/mhtml2html/mhtml"
)

// Logger receives advisory messages for references the rewriter could not
// resolve or embed. A nil Logger discards them.
type Logger func(format string, args ...any)

// IframeRenderer recursively converts the frame resource addressed by key
// (an mhtml.Archive.Media key) into a fully self-contained HTML string.
// The convert package supplies this by calling back into its own archive
// conversion routine with a shallow-copied archive (spec.md §4.E IFRAME case,
// §5 shallow-copy-archive resource model).
type IframeRenderer func(a *mhtml.Archive, key string) (string, error)

// Options configures a single DOM rewrite pass.
type Options struct {
	// ConvertIframes enables recursive inlining of cid: iframes.
	ConvertIframes bool

	Logger Logger

	// IframeRenderer must be non-nil when ConvertIframes is true.
	IframeRenderer IframeRenderer
}

func (o Options) log(format string, args ...any) {
	if o.Logger != nil {
		o.Logger(format, args...)
	}
}

// Apply mutates doc in place per spec.md §4.E, using archive.Index as the
// base URL for resolving the root document's own references.
func Apply(doc domtree.Document, archive *mhtml.Archive, opts Options) {
	queue := []domtree.Node{doc.Root()}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.TagName() == "" {
			continue
		}

		if _, ok := n.Attr("integrity"); ok {
			n.RemoveAttr("integrity")
		}

		flattenShadowHost(n)

		target := dispatch(doc, n, archive, opts)
		if target == nil {
			target = n
		}

		queue = append(queue, target.Children()...)
	}
}

// dispatch applies the tag-specific rewrite rule for n, returning the
// fresh element that replaced n, whose children should be enqueued for
// further traversal, or nil when n stays in place and its own children
// are to be enqueued.
func dispatch(doc domtree.Document, n domtree.Node, archive *mhtml.Archive, opts Options) domtree.Node {
	switch n.TagName() {
	case "head":
		base := doc.NewElement("base")
		base.SetAttr("target", "_parent")
		n.InsertFirst(base)
		return nil

	case "link":
		rel, _ := n.Attr("rel")
		if !strings.EqualFold(rel, "stylesheet") {
			return nil
		}
		href, ok := n.Attr("href")
		if !ok {
			return nil
		}
		key, ok := mhtml.Resolve(archive, archive.Index, href)
		if !ok {
			opts.log("rewrite: unresolved stylesheet href %q", href)
			return nil
		}
		res := archive.Media[key]
		if res.ContentType != "text/css" {
			return nil
		}
		css, err := decodeText(res)
		if err != nil {
			opts.log("rewrite: failed to decode stylesheet %q: %v", key, err)
			return nil
		}
		style := doc.NewElement("style")
		style.SetInnerText(cssembed.Rewrite(archive, css, key, cssembed.Logger(opts.Logger)))
		n.ReplaceWith(style)
		return style

	case "style":
		css := n.InnerText()
		style := doc.NewElement("style")
		style.SetInnerText(cssembed.Rewrite(archive, css, archive.Index, cssembed.Logger(opts.Logger)))
		n.ReplaceWith(style)
		return style

	case "img":
		if src, ok := n.Attr("src"); ok {
			if key, ok := mhtml.Resolve(archive, archive.Index, src); ok {
				res := archive.Media[key]
				if strings.HasPrefix(res.ContentType, "image") {
					if uri, err := mhtml.ToDataURI(res); err == nil {
						n.SetAttr("src", uri)
					} else {
						opts.log("rewrite: failed to embed image %q: %v", key, err)
					}
				}
			} else {
				opts.log("rewrite: unresolved image src %q", src)
			}
		}
		rewriteInlineStyle(n, archive, opts)
		return nil

	case "iframe":
		rewriteIframe(n, archive, opts)
		return nil

	default:
		rewriteInlineStyle(n, archive, opts)
		return nil
	}
}

func rewriteInlineStyle(n domtree.Node, archive *mhtml.Archive, opts Options) {
	style, ok := n.Attr("style")
	if !ok || style == "" {
		return
	}
	n.SetAttr("style", cssembed.Rewrite(archive, style, archive.Index, cssembed.Logger(opts.Logger)))
}

func rewriteIframe(n domtree.Node, archive *mhtml.Archive, opts Options) {
	if !opts.ConvertIframes {
		return
	}
	src, ok := n.Attr("src")
	if !ok || !strings.HasPrefix(src, "cid:") {
		return
	}
	id := strings.TrimPrefix(src, "cid:")
	frame, ok := archive.Frames[id]
	if !ok || frame.ContentType != "text/html" {
		return
	}

	key := frame.Location
	if key == "" {
		key = "cid:" + id
	}
	if _, exists := archive.Media[key]; !exists {
		opts.log("rewrite: iframe frame %q has no media entry", id)
		return
	}

	if opts.IframeRenderer == nil {
		opts.log("rewrite: convert_iframes enabled but no IframeRenderer supplied")
		return
	}

	rendered, err := opts.IframeRenderer(archive, key)
	if err != nil {
		opts.log("rewrite: failed to convert iframe %q: %v", id, err)
		return
	}
	n.SetAttr("src", fmt.Sprintf("data:text/html;charset=utf-8,%s", url.PathEscape(rendered)))
}

func decodeText(r *mhtml.Resource) (string, error) {
	decoded, err := mhtml.Decode(r.TransferEncoding, r.Data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
