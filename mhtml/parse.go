package mhtml

import (
	"bufio"
	"bytes"
	"mime"
	"net/url"
	"strings"
)

// ParseOptions configures Parse.
type ParseOptions struct {
	// HTMLOnly, when true, stops reading the stream as soon as the root
	// HTML part's body has been read, discarding the remainder (spec.md
	// §4.C invariant P3). The returned archive's Media/Frames tables
	// contain only that one resource.
	HTMLOnly bool

	// Strict disables the lenient recovery behaviors of spec.md §7: a
	// truncated stream becomes a fatal InvalidArchive error (wrapping an
	// UnexpectedEOF cause) and a part missing required headers becomes a
	// fatal MissingPartHeader error, instead of being truncated/dropped.
	Strict bool

	// Logger receives advisory messages (dropped parts, truncated
	// streams). A nil Logger discards them.
	Logger func(format string, args ...any)
}

func (o ParseOptions) log(format string, args ...any) {
	if o.Logger != nil {
		o.Logger(format, args...)
	}
}

// maxLineBytes bounds a single scanned line (a part's body is very often
// emitted as one long un-wrapped base64 line by real-world capture tools).
const maxLineBytes = 64 * 1024 * 1024

// header holds a part's (or the envelope's) RFC-2822-style header block,
// with continuation lines already folded in.
type header map[string]string

func (h header) get(name string) string { return h[strings.ToLower(name)] }

// lineScanner wraps bufio.Scanner configured per spec.md's line-handling
// rule: a line is terminated by LF, with a trailing CR discarded. This is
// exactly bufio.ScanLines's behavior, so mixed \r\n / \n input (even
// mixed within one header block) is handled for free.
func lineScanner(data []byte) *bufio.Scanner {
	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	s.Split(bufio.ScanLines)
	return s
}

// Parse consumes an MHTML byte stream and returns the resulting Archive.
func Parse(data []byte, opts ParseOptions) (*Archive, error) {
	scanner := lineScanner(data)

	envelope, ok := readHeaderBlock(scanner)
	if !ok {
		return nil, newError(InvalidArchive, "outer envelope has no header block", nil)
	}

	mediatype, params, err := mime.ParseMediaType(envelope.get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediatype, "multipart/") {
		return nil, newError(InvalidArchive, "outer Content-Type is not multipart/*", err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, newError(InvalidArchive, "outer Content-Type has no boundary parameter", nil)
	}

	// Consume blank/whitespace lines until the first boundary marker.
	if !seekFirstBoundary(scanner, boundary) {
		return nil, newError(InvalidArchive, "stream has no initial boundary marker", nil)
	}

	archive := newArchive()
	partIndex := 0

	for {
		h, headerOK := readHeaderBlock(scanner)
		if !headerOK {
			// Exhaustion while expecting the next part's headers is the
			// normal end of stream (spec.md §4.C: "detection of
			// end-of-stream is based on exhaustion of input rather than
			// the -- suffix").
			break
		}

		ctype, charset := splitContentType(h.get("Content-Type"))
		encoding := TransferEncoding(strings.ToLower(h.get("Content-Transfer-Encoding")))
		contentID := strings.Trim(h.get("Content-ID"), "<>")
		location := h.get("Content-Location")

		missingHeader := ctype == "" || h.get("Content-Transfer-Encoding") == "" || (contentID == "" && location == "")
		if missingHeader {
			if opts.Strict {
				return nil, newError(MissingPartHeader, "part is missing required headers", nil)
			}
			opts.log("mhtml: dropping part %d with missing headers", partIndex)
			// Still must consume its body to keep the state machine in
			// sync with the boundary stream.
			_, _ = readBody(scanner, boundary)
			partIndex++
			continue
		}

		body, bodyOK := readBody(scanner, boundary)
		if !bodyOK {
			if opts.Strict {
				return nil, newError(InvalidArchive, "stream truncated mid-body",
					newError(UnexpectedEOF, "stream ended before the part's closing boundary", nil))
			}
			opts.log("mhtml: stream truncated reading part %d, returning partial archive", partIndex)
			r := &Resource{
				Data:             normalizeUTF8(body),
				ContentType:      ctype,
				Charset:          charset,
				TransferEncoding: encoding,
				ContentID:        contentID,
				Location:         location,
			}
			registerPart(archive, r, partIndex)
			if partIndex == 0 && r.ContentType == "text/html" {
				archive.Index = r.Location
			}
			break
		}

		r := &Resource{
			Data:             normalizeUTF8(body),
			ContentType:      ctype,
			Charset:          charset,
			TransferEncoding: encoding,
			ContentID:        contentID,
			Location:         location,
		}
		registerPart(archive, r, partIndex)

		if partIndex == 0 {
			if r.ContentType == "text/html" {
				archive.Index = r.Location
			} else {
				return nil, newError(InvalidArchive, "first part is not text/html", nil)
			}
		}

		partIndex++

		if opts.HTMLOnly && archive.Index != "" {
			break
		}
	}

	if archive.Index == "" {
		return nil, newError(InvalidArchive, "archive has no text/html part", nil)
	}
	if !archive.Valid() {
		return nil, newError(InvalidArchive, "index resource missing or not text/html", nil)
	}

	return archive, nil
}

func registerPart(a *Archive, r *Resource, partIndex int) {
	a.addMedia(r.Location, r)
	a.addFrame(r.ContentID, r)
	// A part may be addressable only by Content-ID (common for iframe
	// documents with no Content-Location of their own). Index it under a
	// synthetic cid: key too, so iframe recursion can reuse the ordinary
	// Media-keyed WithIndex path instead of a separate lookup mechanism.
	if r.Location == "" && r.ContentID != "" {
		a.addMedia("cid:"+r.ContentID, r)
	}
}

// readHeaderBlock reads lines until a blank line, folding whitespace-led
// continuation lines into the preceding header's value (RFC 2822). It
// returns ok=false if the scanner was already exhausted before any header
// line was read.
func readHeaderBlock(scanner *bufio.Scanner) (header, bool) {
	h := make(header)
	var lastKey string
	sawLine := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			return h, true
		}
		sawLine = true

		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			h[lastKey] = h[lastKey] + " " + strings.TrimSpace(line)
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		val := strings.TrimSpace(line[idx+1:])
		if existing, dup := h[key]; dup {
			h[key] = existing + ", " + val
		} else {
			h[key] = val
		}
		lastKey = key
	}

	return h, sawLine
}

// seekFirstBoundary consumes lines until one containing the boundary
// marker is found.
func seekFirstBoundary(scanner *bufio.Scanner, boundary string) bool {
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), boundary) {
			return true
		}
	}
	return false
}

// readBody accumulates lines until one contains the boundary marker
// (spec.md §4.C: "a line 'contains' the boundary when the boundary token
// appears as a substring"). The boundary line itself is not included in
// the returned body. ok is false if the scanner was exhausted first.
func readBody(scanner *bufio.Scanner, boundary string) ([]byte, bool) {
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, boundary) {
			return []byte(strings.Join(lines, "\n")), true
		}
		lines = append(lines, line)
	}
	return []byte(strings.Join(lines, "\n")), false
}

// splitContentType splits a Content-Type header value into the bare MIME
// type and, if present, its charset parameter.
func splitContentType(raw string) (ctype, charset string) {
	if raw == "" {
		return "", ""
	}
	mediatype, params, err := mime.ParseMediaType(raw)
	if err != nil {
		// Fall back to a bare split on ';' for malformed headers that
		// mime.ParseMediaType rejects outright.
		parts := strings.SplitN(raw, ";", 2)
		return strings.TrimSpace(parts[0]), ""
	}
	return mediatype, params["charset"]
}

// normalizeUTF8 performs the parser's best-effort UTF-8 normalization
// pass: a percent-encode/decode round trip. On failure the raw bytes are
// retained. url.QueryEscape escapes byte by byte, so the round trip
// returns the input bytes unchanged, invalid UTF-8 sequences included;
// it is not a transcoder (spec.md §9 open question 2: declared charsets
// are never consulted here).
func normalizeUTF8(raw []byte) []byte {
	escaped := url.QueryEscape(string(raw))
	unescaped, err := url.QueryUnescape(escaped)
	if err != nil {
		return raw
	}
	return []byte(unescaped)
}
