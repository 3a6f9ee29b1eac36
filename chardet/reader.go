// Package chardet decodes documents in legacy character encodings to UTF-8
// before they reach a harvest.Parser.
package chardet

import (
	"bytes"
	"io"
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Auto is the label requesting encoding detection.
const Auto = "auto"

// NewReader returns a reader producing UTF-8 from r, which is encoded as
// label. With Auto the encoding is detected from the content and input that
// cannot be classified is passed through unchanged. An empty label or
// "utf-8" returns r as is.
// Returns EINVALID for labels that name no known encoding.
func NewReader(r io.Reader, label string) (io.Reader, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "utf-8", "utf8":
		return r, nil
	case Auto:
		return detect(r)
	}

	dec, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "unsupported encoding %q", label)
	}
	return dec, nil
}

func detect(r io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	label := Detect(data)
	if label == "utf-8" {
		return bytes.NewReader(data), nil
	}

	dec, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return bytes.NewReader(data), nil
	}
	return dec, nil
}

// Detect returns the lower-cased name of the most likely encoding of data,
// falling back to "utf-8".
func Detect(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
