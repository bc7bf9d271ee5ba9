package domtree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument is the Provider implementation backed by
// golang.org/x/net/html. It parses the full document (not a fragment) so
// the usual implied <html>/<head>/<body> structure is synthesized for
// inputs that omit it, matching how captured pages are usually missing
// the outer scaffolding by the time they reach the rewriter.
func ParseDocument(htmlText string) (Document, error) {
	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("domtree: parse: %w", err)
	}
	return &netDocument{root: root}, nil
}

type netDocument struct {
	root *html.Node
}

func (d *netDocument) Root() Node {
	return &netNode{n: documentElement(d.root)}
}

func (d *netDocument) NewElement(tag string) Node {
	return &netNode{n: &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}}
}

func (d *netDocument) Serialize() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", fmt.Errorf("domtree: serialize: %w", err)
	}
	return b.String(), nil
}

// documentElement descends from the html.Parse DocumentNode to the root
// <html> element, since Render expects the DocumentNode but callers of
// Root() want to operate on the element tree.
func documentElement(doc *html.Node) *html.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			return c
		}
	}
	return doc
}

type netNode struct {
	n *html.Node
}

func wrap(n *html.Node) Node {
	if n == nil {
		return nil
	}
	return &netNode{n: n}
}

func (nn *netNode) TagName() string {
	if nn.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(nn.n.Data)
}

func (nn *netNode) IsText() bool    { return nn.n.Type == html.TextNode }
func (nn *netNode) IsComment() bool { return nn.n.Type == html.CommentNode }

func (nn *netNode) Attr(name string) (string, bool) {
	for _, a := range nn.n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func (nn *netNode) SetAttr(name, value string) {
	for i, a := range nn.n.Attr {
		if strings.EqualFold(a.Key, name) {
			nn.n.Attr[i].Val = value
			return
		}
	}
	nn.n.Attr = append(nn.n.Attr, html.Attribute{Key: name, Val: value})
}

func (nn *netNode) RemoveAttr(name string) {
	for i, a := range nn.n.Attr {
		if strings.EqualFold(a.Key, name) {
			nn.n.Attr = append(nn.n.Attr[:i], nn.n.Attr[i+1:]...)
			return
		}
	}
}

func (nn *netNode) Children() []Node {
	var out []Node
	for c := nn.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, wrap(c))
	}
	return out
}

func (nn *netNode) InsertFirst(child Node) {
	cn := child.(*netNode).n
	if cn.Parent != nil {
		cn.Parent.RemoveChild(cn)
	}
	if nn.n.FirstChild == nil {
		nn.n.AppendChild(cn)
		return
	}
	nn.n.InsertBefore(cn, nn.n.FirstChild)
}

func (nn *netNode) AppendChild(child Node) {
	cn := child.(*netNode).n
	if cn.Parent != nil {
		cn.Parent.RemoveChild(cn)
	}
	nn.n.AppendChild(cn)
}

func (nn *netNode) Remove() {
	if nn.n.Parent != nil {
		nn.n.Parent.RemoveChild(nn.n)
	}
}

func (nn *netNode) ReplaceWith(replacement Node) {
	rn := replacement.(*netNode).n
	if nn.n.Parent == nil {
		return
	}
	nn.n.Parent.InsertBefore(rn, nn.n)
	nn.n.Parent.RemoveChild(nn.n)
}

func (nn *netNode) InnerText() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(nn.n)
	return b.String()
}

func (nn *netNode) SetInnerText(text string) {
	for nn.n.FirstChild != nil {
		nn.n.RemoveChild(nn.n.FirstChild)
	}
	nn.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func (nn *netNode) Same(other Node) bool {
	on, ok := other.(*netNode)
	return ok && on.n == nn.n
}

func (nn *netNode) SetInnerHTML(fragment string) error {
	context := &html.Node{Type: html.ElementNode, Data: nn.n.Data, DataAtom: nn.n.DataAtom}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return fmt.Errorf("domtree: parse fragment: %w", err)
	}
	for nn.n.FirstChild != nil {
		nn.n.RemoveChild(nn.n.FirstChild)
	}
	for _, c := range nodes {
		nn.n.AppendChild(c)
	}
	return nil
}
