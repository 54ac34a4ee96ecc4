package mxfile

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/base64"
	"io"
	"strings"
	"unicode"
)

// IsFramed reports whether a page's text content is in the compressed
// base64 framing rather than inline XML. draw.io never starts a plain
// page with anything but an element, so anything that does not open
// with '<' after trimming is treated as framed.
func IsFramed(raw string) bool {
	return !strings.HasPrefix(strings.TrimSpace(raw), "<")
}

// DecodePage converts a page's framed text content back to XML.
//
// The framing is base64(raw-deflate(utf8 xml)). Some producers emit a
// zlib header instead of raw deflate, so that is tried second. On any
// failure the input is returned unchanged; callers must check that the
// result parses as XML before assuming the decode succeeded.
func DecodePage(raw string) string {
	data := stripSpace(strings.TrimSpace(raw))
	if data == "" {
		return raw
	}

	compressed, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return raw
	}

	// Raw DEFLATE (no header) is what draw.io writes.
	if xml, err := inflate(flate.NewReader(bytes.NewReader(compressed))); err == nil {
		return xml
	}

	// Fall back to zlib-wrapped deflate.
	if zr, err := zlib.NewReader(bytes.NewReader(compressed)); err == nil {
		if xml, err := inflate(zr); err == nil {
			return xml
		}
	}

	return raw
}

// EncodePage converts page XML to the framed representation:
// raw-deflate at maximum compression, then standard base64.
func EncodePage(xml string) string {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		// Only reachable with an invalid level constant.
		return xml
	}
	if _, err := zw.Write([]byte(xml)); err != nil {
		return xml
	}
	if err := zw.Close(); err != nil {
		return xml
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func inflate(r io.ReadCloser) (string, error) {
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// stripSpace removes embedded whitespace that some tools wrap into
// long base64 payloads.
func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
