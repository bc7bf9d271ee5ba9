// Package domtree defines the DOM provider capability the rewrite package
// depends on, plus a concrete implementation backed by golang.org/x/net/html.
//
// The capability is injected rather than imported directly by rewrite so
// the core stays DOM-library-agnostic (spec.md §4.E treats "the injected
// DOM provider" as an external capability, mirroring how the teacher's
// converter keeps its rendering logic decoupled from any one templating
// engine).
package domtree

// Node is one element or text node in a mutable HTML tree.
type Node interface {
	// TagName returns the lower-cased element tag name, or "" for a
	// non-element node (text, comment).
	TagName() string

	// IsText reports whether this node is a text node.
	IsText() bool

	// IsComment reports whether this node is a comment node.
	IsComment() bool

	// Attr returns the named attribute's value and whether it is present.
	Attr(name string) (string, bool)

	// SetAttr sets (creating if absent) the named attribute.
	SetAttr(name, value string)

	// RemoveAttr removes the named attribute, if present.
	RemoveAttr(name string)

	// Children returns this node's direct children, in document order,
	// including text and comment nodes.
	Children() []Node

	// InsertFirst inserts child as this node's first child.
	InsertFirst(child Node)

	// AppendChild appends child as this node's last child.
	AppendChild(child Node)

	// Remove detaches this node from its parent.
	Remove()

	// ReplaceWith swaps this node for replacement in its parent's child
	// list. This node must be attached and replacement must be detached
	// (for example fresh from NewElement); after the call this node is
	// detached.
	ReplaceWith(replacement Node)

	// InnerText returns the concatenated text content of this node's
	// descendants.
	InnerText() string

	// SetInnerText replaces this node's children with a single text
	// node holding text.
	SetInnerText(text string)

	// SetInnerHTML parses fragment as HTML and replaces this node's
	// children with the result.
	SetInnerHTML(fragment string) error

	// Same reports whether other wraps the same underlying node as this
	// one. Node values are not comparable with ==: two separately
	// obtained handles to the same node are distinct interface values.
	Same(other Node) bool
}

// Document is a parsed HTML tree plus the operations needed to create new
// nodes and serialize the result back to text.
type Document interface {
	// Root returns the document's root element (typically <html>).
	Root() Node

	// NewElement creates a detached element node with the given tag
	// name, not yet attached anywhere in the tree.
	NewElement(tag string) Node

	// Serialize renders the full document back to an HTML string.
	Serialize() (string, error)
}

// Provider parses HTML text into a Document. Implementations must be
// synchronous and side-effect-free beyond constructing the returned tree
// (spec.md §5: parse_dom is the only external call the core makes, and it
// is itself synchronous).
type Provider func(htmlText string) (Document, error)

// Walk returns every element node in doc's tree in breadth-first order,
// starting from root. Text and comment nodes are omitted: spec.md §4.E's
// traversal and tag dispatch rules only ever act on elements.
func Walk(root Node) []Node {
	var order []Node
	queue := []Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.TagName() != "" {
			order = append(order, n)
		}
		for _, c := range n.Children() {
			queue = append(queue, c)
		}
	}
	return order
}
