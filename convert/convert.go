// Package convert exposes the module's public API: parsing an MHTML
// archive and converting it into a self-contained DOM with every
// resolvable resource inlined.
package convert

import (
	"fmt"

	"github.com/jonathanKingston/mhtml2html/domtree"
	"github.com/jonathanKingston/mhtml2html/mhtml"
	"github.com/jonathanKingston/mhtml2html/rewrite"
)

// Logger receives advisory messages from every layer of the conversion
// (dropped MHTML parts, unresolved references, CSS cycles). A nil Logger
// discards them.
type Logger func(format string, args ...any)

// ParseOptions configures Parse.
type ParseOptions struct {
	// HTMLOnly, when true, returns the DOM of the root HTML part alone
	// instead of an Archive (spec.md §4.F).
	HTMLOnly bool

	// Strict disables lenient recovery from truncated streams and
	// malformed parts (spec.md §7).
	Strict bool

	// Provider parses HTML text into a mutable DOM. Required when
	// HTMLOnly is true.
	Provider domtree.Provider

	Logger Logger
}

// ParseResult holds whichever of Archive/Document Parse produced,
// depending on options.HTMLOnly.
type ParseResult struct {
	Archive  *mhtml.Archive
	Document domtree.Document
}

// Parse consumes raw MHTML bytes and returns either an Archive or, in
// HTMLOnly mode, the parsed root-document DOM (spec.md §4.F).
func Parse(data []byte, opts ParseOptions) (*ParseResult, error) {
	archive, err := mhtml.Parse(data, mhtml.ParseOptions{
		HTMLOnly: opts.HTMLOnly,
		Strict:   opts.Strict,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	if !opts.HTMLOnly {
		return &ParseResult{Archive: archive}, nil
	}

	if opts.Provider == nil {
		return nil, fmt.Errorf("convert: HTMLOnly requires a Provider")
	}

	root := archive.Media[archive.Index]
	htmlText, err := decodeText(root)
	if err != nil {
		return nil, fmt.Errorf("convert: decoding root HTML: %w", err)
	}

	doc, err := opts.Provider(rewrite.PreprocessShadowAttrs(htmlText))
	if err != nil {
		return nil, fmt.Errorf("convert: parsing root HTML: %w", err)
	}
	return &ParseResult{Document: doc}, nil
}

// ConvertOptions configures Convert.
type ConvertOptions struct {
	// ConvertIframes enables recursive inlining of cid: iframes.
	ConvertIframes bool

	// Strict is forwarded to Parse when input is raw bytes.
	Strict bool

	// Provider parses HTML text into a mutable DOM. Required.
	Provider domtree.Provider

	Logger Logger
}

// Convert turns input (raw MHTML bytes, or an already-parsed *mhtml.Archive)
// into a fully self-contained DOM. It fails with an *mhtml.ParseError of
// kind InvalidArchive if the input does not satisfy invariant I1
// (spec.md §4.F).
func Convert(input any, opts ConvertOptions) (domtree.Document, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("convert: Provider is required")
	}

	var archive *mhtml.Archive
	switch v := input.(type) {
	case *mhtml.Archive:
		archive = v
	case []byte:
		a, err := mhtml.Parse(v, mhtml.ParseOptions{Strict: opts.Strict, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		archive = a
	case string:
		a, err := mhtml.Parse([]byte(v), mhtml.ParseOptions{Strict: opts.Strict, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		archive = a
	default:
		return nil, fmt.Errorf("convert: unsupported input type %T", input)
	}

	return convertArchive(archive, opts)
}

func convertArchive(archive *mhtml.Archive, opts ConvertOptions) (domtree.Document, error) {
	if !archive.Valid() {
		return nil, &mhtml.ParseError{Kind: mhtml.InvalidArchive, Msg: "index resource missing or not text/html"}
	}

	root := archive.Media[archive.Index]
	htmlText, err := decodeText(root)
	if err != nil {
		return nil, fmt.Errorf("convert: decoding root HTML: %w", err)
	}

	doc, err := opts.Provider(rewrite.PreprocessShadowAttrs(htmlText))
	if err != nil {
		return nil, fmt.Errorf("convert: parsing root HTML: %w", err)
	}

	rewrite.Apply(doc, archive, rewrite.Options{
		ConvertIframes: opts.ConvertIframes,
		Logger:         rewrite.Logger(opts.Logger),
		IframeRenderer: func(a *mhtml.Archive, key string) (string, error) {
			frameDoc, err := convertArchive(a.WithIndex(key), opts)
			if err != nil {
				return "", err
			}
			return frameDoc.Serialize()
		},
	})

	return doc, nil
}

func decodeText(r *mhtml.Resource) (string, error) {
	decoded, err := mhtml.Decode(r.TransferEncoding, r.Data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
