// Package mhtml parses MIME HTML (MHTML) archives into an in-memory
// resource table and resolves references against it.
//
// The package is the leaf of the module: it knows nothing about HTML or
// CSS syntax, only about the MIME multipart container format and the URL
// resolution rules that the higher-level packages (cssembed, rewrite)
// build on.
package mhtml

// TransferEncoding identifies how a part's body is encoded on the wire.
type TransferEncoding string

const (
	Base64          TransferEncoding = "base64"
	QuotedPrintable TransferEncoding = "quoted-printable"
	SevenBit        TransferEncoding = "7bit"
	EightBit        TransferEncoding = "8bit"
	Binary          TransferEncoding = "binary"
)

// Resource is an immutable record describing one captured asset.
type Resource struct {
	// Data is the body as read from the archive, in on-the-wire form.
	// It is NOT transfer-decoded; callers use Decode (see decode.go) to
	// obtain the plain bytes.
	Data []byte

	// ContentType is the MIME type with any charset parameter stripped,
	// e.g. "text/html", "text/css", "image/png".
	ContentType string

	// Charset is the declared character set, if any. Recorded for
	// completeness; decoding does not currently apply it (see
	// SPEC_FULL.md decision D2).
	Charset string

	TransferEncoding TransferEncoding

	// ContentID is the part's Content-ID header value with the angle
	// brackets stripped, or "" if absent.
	ContentID string

	// Location is the part's Content-Location header value, or "" if
	// absent.
	Location string
}

// Archive is the output of Parse: a URL-indexed resource table plus a
// Content-ID-indexed frame table, and the URL identifying the root HTML
// document. It is read-only once constructed.
type Archive struct {
	// Index is the URL string identifying the root HTML resource.
	Index string

	// Media maps Content-Location URLs to the resource captured there.
	// A part with a Content-ID but no Content-Location is keyed as
	// "cid:<id>" instead. Order of MediaKeys matches insertion order (I4).
	Media map[string]*Resource

	// Frames maps Content-ID values (without angle brackets) to their
	// resource, for cid: reference resolution.
	Frames map[string]*Resource

	// MediaKeys preserves the order parts were first registered under
	// Media, so callers needing deterministic iteration (property tests,
	// the filename-tail resolver strategy) don't have to rely on Go's
	// randomized map order.
	MediaKeys []string
}

// newArchive returns an Archive with its maps initialized.
func newArchive() *Archive {
	return &Archive{
		Media:  make(map[string]*Resource),
		Frames: make(map[string]*Resource),
	}
}

// addMedia registers r under key if key is not already present (P2: first
// occurrence wins) and records the insertion order.
func (a *Archive) addMedia(key string, r *Resource) {
	if key == "" {
		return
	}
	if _, exists := a.Media[key]; exists {
		return
	}
	a.Media[key] = r
	a.MediaKeys = append(a.MediaKeys, key)
}

// addFrame registers r under cid if cid is not already present.
func (a *Archive) addFrame(cid string, r *Resource) {
	if cid == "" {
		return
	}
	if _, exists := a.Frames[cid]; exists {
		return
	}
	a.Frames[cid] = r
}

// WithIndex returns a shallow copy of a sharing Media and Frames but with a
// different Index. Used by the iframe-recursion path in the convert
// package (§5: "shallow-copy archive... since the archive is immutable
// this copy is cheap and safe").
func (a *Archive) WithIndex(index string) *Archive {
	return &Archive{
		Index:     index,
		Media:     a.Media,
		Frames:    a.Frames,
		MediaKeys: a.MediaKeys,
	}
}

// Valid reports whether the archive satisfies invariant I1: the index
// resource exists and is text/html.
func (a *Archive) Valid() bool {
	r, ok := a.Media[a.Index]
	return ok && r.ContentType == "text/html"
}
