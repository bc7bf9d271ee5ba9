package mhtml

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildArchive assembles a minimal but realistic MHTML byte stream from a
// root HTML document plus any number of auxiliary parts, joining lines
// with the given terminator so CRLF/LF handling can be exercised from the
// same table.
func buildArchive(t *testing.T, eol string, parts []string) []byte {
	t.Helper()
	boundary := "----MultipartBoundary--test--"
	var b strings.Builder
	b.WriteString("From: <Saved by mhtml2html>" + eol)
	b.WriteString("Subject: test archive" + eol)
	b.WriteString(`Content-Type: multipart/related; boundary="` + boundary + `"` + eol)
	b.WriteString(eol)
	for _, p := range parts {
		b.WriteString("--" + boundary + eol)
		b.WriteString(p)
		if !strings.HasSuffix(p, eol) {
			b.WriteString(eol)
		}
	}
	b.WriteString("--" + boundary + "--" + eol)
	return []byte(b.String())
}

func htmlPart(eol, location, body string) string {
	return "Content-Type: text/html; charset=utf-8" + eol +
		"Content-Transfer-Encoding: quoted-printable" + eol +
		"Content-Location: " + location + eol +
		eol +
		body + eol
}

func imagePart(eol, location, cid, b64 string) string {
	return "Content-Type: image/png" + eol +
		"Content-Transfer-Encoding: base64" + eol +
		"Content-ID: <" + cid + ">" + eol +
		"Content-Location: " + location + eol +
		eol +
		b64 + eol
}

func TestParseBasicArchive(t *testing.T) {
	for _, eol := range []string{"\n", "\r\n"} {
		t.Run("eol="+eol, func(t *testing.T) {
			data := buildArchive(t, eol, []string{
				htmlPart(eol, "https://example.com/index.html", "<html><body>hi</body></html>"),
				imagePart(eol, "https://example.com/logo.png", "logo", "aGVsbG8="),
			})

			a, err := Parse(data, ParseOptions{})
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if a.Index != "https://example.com/index.html" {
				t.Errorf("Index = %q, want root HTML location", a.Index)
			}
			if !a.Valid() {
				t.Error("Valid() = false, want true")
			}
			if _, ok := a.Media["https://example.com/logo.png"]; !ok {
				t.Error("expected logo.png registered in Media")
			}
			if _, ok := a.Frames["logo"]; !ok {
				t.Error("expected logo registered in Frames by Content-ID")
			}
		})
	}
}

func TestParseMixedLineEndings(t *testing.T) {
	boundary := "----Boundary--mix--"
	raw := "Content-Type: multipart/related; boundary=\"" + boundary + "\"\r\n" +
		"\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/html\r\n" +
		"Content-Transfer-Encoding: 7bit\n" +
		"Content-Location: https://example.com/index.html\r\n" +
		"\n" +
		"<html></html>\r\n" +
		"--" + boundary + "--\n"

	a, err := Parse([]byte(raw), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if a.Index != "https://example.com/index.html" {
		t.Errorf("Index = %q, want root location despite mixed line endings", a.Index)
	}
}

func TestParseHeaderContinuation(t *testing.T) {
	boundary := "----Boundary--cont--"
	raw := "Content-Type: multipart/related;\n boundary=\"" + boundary + "\"\n" +
		"\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/html\n" +
		"Content-Transfer-Encoding: 7bit\n" +
		"Content-Location: https://example.com/index.html\n" +
		"\n" +
		"<html></html>\n" +
		"--" + boundary + "--\n"

	a, err := Parse([]byte(raw), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !a.Valid() {
		t.Error("Valid() = false, want true after folding a continued Content-Type header")
	}
}

func TestParseFirstPartNotHTML(t *testing.T) {
	data := buildArchive(t, "\n", []string{
		imagePart("\n", "https://example.com/logo.png", "logo", "aGVsbG8="),
		htmlPart("\n", "https://example.com/index.html", "<html></html>"),
	})

	_, err := Parse(data, ParseOptions{})
	if err == nil {
		t.Fatal("Parse() error = nil, want InvalidArchive when first part is not text/html")
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Kind != InvalidArchive {
		t.Errorf("Parse() error = %v, want InvalidArchive", err)
	}
}

func TestParseNotMultipart(t *testing.T) {
	raw := "Content-Type: text/html\n\n<html></html>\n"
	_, err := Parse([]byte(raw), ParseOptions{})
	if err == nil {
		t.Fatal("Parse() error = nil, want InvalidArchive for non-multipart envelope")
	}
}

func TestParseMissingPartHeaderLenientDropsPart(t *testing.T) {
	boundary := "----Boundary--mph--"
	raw := "Content-Type: multipart/related; boundary=\"" + boundary + "\"\n\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/html\n" +
		"Content-Transfer-Encoding: 7bit\n" +
		"Content-Location: https://example.com/index.html\n\n" +
		"<html></html>\n" +
		"--" + boundary + "\n" +
		"Content-Type: image/png\n\n" + // no transfer-encoding, no cid/location
		"binarygoeshere\n" +
		"--" + boundary + "--\n"

	a, err := Parse([]byte(raw), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error: %v, want lenient recovery", err)
	}
	if len(a.Media) != 1 {
		t.Errorf("len(Media) = %d, want 1 (malformed part dropped)", len(a.Media))
	}
}

func TestParseMissingPartHeaderStrictFails(t *testing.T) {
	boundary := "----Boundary--mphs--"
	raw := "Content-Type: multipart/related; boundary=\"" + boundary + "\"\n\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/html\n" +
		"Content-Transfer-Encoding: 7bit\n" +
		"Content-Location: https://example.com/index.html\n\n" +
		"<html></html>\n" +
		"--" + boundary + "\n" +
		"Content-Type: image/png\n\n" +
		"binarygoeshere\n" +
		"--" + boundary + "--\n"

	_, err := Parse([]byte(raw), ParseOptions{Strict: true})
	if err == nil {
		t.Fatal("Parse() error = nil, want MissingPartHeader in strict mode")
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Kind != MissingPartHeader {
		t.Errorf("Parse() error = %v, want MissingPartHeader", err)
	}
}

func TestParseTruncatedStreamLenient(t *testing.T) {
	boundary := "----Boundary--trunc--"
	raw := "Content-Type: multipart/related; boundary=\"" + boundary + "\"\n\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/html\n" +
		"Content-Transfer-Encoding: 7bit\n" +
		"Content-Location: https://example.com/index.html\n\n" +
		"<html>incomplete..."
	// No closing boundary at all.

	a, err := Parse([]byte(raw), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error: %v, want lenient partial archive", err)
	}
	if !a.Valid() {
		t.Error("Valid() = false, want true: truncated body still registers the part read so far")
	}
}

func TestParseTruncatedStreamStrict(t *testing.T) {
	boundary := "----Boundary--truncs--"
	raw := "Content-Type: multipart/related; boundary=\"" + boundary + "\"\n\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/html\n" +
		"Content-Transfer-Encoding: 7bit\n" +
		"Content-Location: https://example.com/index.html\n\n" +
		"<html>incomplete..."

	_, err := Parse([]byte(raw), ParseOptions{Strict: true})
	if err == nil {
		t.Fatal("Parse() error = nil, want InvalidArchive in strict mode")
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Kind != InvalidArchive {
		t.Errorf("Parse() error = %v, want InvalidArchive", err)
	}
}

func TestParseHTMLOnlyStopsAfterRoot(t *testing.T) {
	data := buildArchive(t, "\n", []string{
		htmlPart("\n", "https://example.com/index.html", "<html></html>"),
		imagePart("\n", "https://example.com/logo.png", "logo", "aGVsbG8="),
	})

	a, err := Parse(data, ParseOptions{HTMLOnly: true})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(a.Media) != 1 {
		t.Errorf("len(Media) = %d, want 1 when HTMLOnly stops after the root part", len(a.Media))
	}
}

func TestParseDuplicateLocationFirstWins(t *testing.T) {
	data := buildArchive(t, "\n", []string{
		htmlPart("\n", "https://example.com/index.html", "<html></html>"),
		imagePart("\n", "https://example.com/logo.png", "first", "aGVsbG8="),
		imagePart("\n", "https://example.com/logo.png", "second", "d29ybGQ="),
	})

	a, err := Parse(data, ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if a.Frames["first"] == nil {
		t.Fatal("expected first occurrence to be retained under its own cid")
	}
	if a.Media["https://example.com/logo.png"] != a.Frames["first"] {
		t.Error("duplicate Content-Location should retain the first-registered resource")
	}
}

// BenchmarkParseBoundarySearch exercises readBody's per-line boundary scan
// (spec.md §5's quadratic-risk concern) over an archive with many parts, so
// a regression that turns the scan from linear into something that
// rescans already-consumed input per line shows up in ns/op.
func BenchmarkParseBoundarySearch(b *testing.B) {
	const n = 500
	boundary := "----MultipartBoundary--bench--"
	var buf strings.Builder
	buf.WriteString(`Content-Type: multipart/related; boundary="` + boundary + "\"\n\n")
	buf.WriteString("--" + boundary + "\n")
	buf.WriteString(htmlPart("\n", "https://example.com/index.html", "<html></html>"))
	for i := 0; i < n; i++ {
		loc := fmt.Sprintf("https://example.com/asset%d.png", i)
		cid := fmt.Sprintf("asset%d", i)
		buf.WriteString("--" + boundary + "\n")
		buf.WriteString(imagePart("\n", loc, cid, strings.Repeat("aGVsbG8=", 64)))
	}
	buf.WriteString("--" + boundary + "--\n")
	data := []byte(buf.String())

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(data, ParseOptions{}); err != nil {
			b.Fatalf("Parse() error: %v", err)
		}
	}
}

func TestParseLogsAdvisoryOnDroppedPart(t *testing.T) {
	boundary := "----Boundary--log--"
	raw := "Content-Type: multipart/related; boundary=\"" + boundary + "\"\n\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/html\n" +
		"Content-Transfer-Encoding: 7bit\n" +
		"Content-Location: https://example.com/index.html\n\n" +
		"<html></html>\n" +
		"--" + boundary + "\n" +
		"Content-Type: image/png\n\n" +
		"nope\n" +
		"--" + boundary + "--\n"

	var logged []string
	_, err := Parse([]byte(raw), ParseOptions{
		Logger: func(format string, args ...any) {
			logged = append(logged, format)
		},
	})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(logged) == 0 {
		t.Error("expected an advisory log message for the dropped part")
	}
}
