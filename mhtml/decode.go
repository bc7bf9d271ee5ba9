package mhtml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/quotedprintable"
	"net/url"
)

// Decode transfer-decodes data according to enc. It is a pure function:
// no two calls for the same (enc, data) pair can observe different
// results, which is what lets two independent consumers of the same
// Resource (the CSS rewriter and the data-URI converter) see identical
// bytes (spec.md §4.C invariant P1).
func Decode(enc TransferEncoding, data []byte) ([]byte, error) {
	switch enc {
	case Base64:
		return decodeBase64(data)
	case QuotedPrintable:
		return decodeQuotedPrintable(data)
	case SevenBit, EightBit, Binary, "":
		return data, nil
	default:
		return data, nil
	}
}

// decodeBase64 tolerates interior whitespace and line folds by stripping
// all whitespace before handing the remainder to the standard decoder,
// which otherwise rejects embedded newlines.
func decodeBase64(data []byte) ([]byte, error) {
	cleaned := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			cleaned = append(cleaned, b)
		}
	}
	out, err := base64.StdEncoding.DecodeString(string(cleaned))
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return out, nil
}

func decodeQuotedPrintable(data []byte) ([]byte, error) {
	r := quotedprintable.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("quoted-printable decode: %w", err)
	}
	return out, nil
}

// ToDataURI decodes r's body and renders it as a data: URI. Images and
// other binaries are base64-encoded; quoted-printable text payloads are
// instead percent-encoded to preserve text semantics (spec.md §4.A).
func ToDataURI(r *Resource) (string, error) {
	decoded, err := Decode(r.TransferEncoding, r.Data)
	if err != nil {
		return "", err
	}

	if r.TransferEncoding == QuotedPrintable {
		return fmt.Sprintf("data:%s;utf8,%s", r.ContentType, url.PathEscape(string(decoded))), nil
	}

	encoded := base64.StdEncoding.EncodeToString(decoded)
	return fmt.Sprintf("data:%s;base64,%s", r.ContentType, encoded), nil
}
