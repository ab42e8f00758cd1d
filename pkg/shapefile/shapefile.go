// Package shapefile encodes and decodes MSTS/ORTS shape files in their
// textual form. Decode and Encode work on document strings; Load and
// Dump add file I/O with encoding sniffing through pkg/textenc.
package shapefile

import (
	"fmt"
	"strings"

	"github.com/railsim/shapeio/pkg/textenc"
)

const (
	// Signature is the first line of every plain-text shape file.
	Signature = "SIMISA@@@@@@@@@@JINX0s1t______"

	prefixCompressed = "SIMISA@F"
	prefixPlain      = "SIMISA@@"
	subTagShape      = "JINX0s1t"
)

// FileKind classifies a file by its signature prefix.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindPlainText
	KindCompressed
)

func (k FileKind) String() string {
	switch k {
	case KindPlainText:
		return "plain-text"
	case KindCompressed:
		return "compressed"
	}
	return "unknown"
}

// Decode parses a complete shape document. The signature line is
// optional on input; compressed payloads are rejected.
func Decode(text string) (*Shape, error) {
	body := strings.TrimLeft(text, "\uFEFF \t\r\n")
	if strings.HasPrefix(body, prefixCompressed) {
		return nil, fmt.Errorf("%w: decompress the file first", ErrCompressedShape)
	}
	if strings.HasPrefix(body, prefixPlain) {
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		} else {
			body = ""
		}
	}
	return decodeShape(body)
}

// Encode renders a complete shape document with the default style.
func Encode(s *Shape) (string, error) {
	return EncodeStyled(s, DefaultStyle())
}

// EncodeStyled renders the signature line, a blank separator line, the
// shape body and a trailing newline.
func EncodeStyled(s *Shape, st Style) (string, error) {
	body, err := encodeShape(s, st)
	if err != nil {
		return "", err
	}
	return Signature + "\n\n" + body + "\n", nil
}

// Load reads and decodes the shape file at path, sniffing its text
// encoding. Loading a compressed file reports ErrCompressedShape.
func Load(path string) (*Shape, error) {
	text, _, err := textenc.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Dump encodes the shape and writes it to path as UTF-16 LE with a
// byte-order mark, the encoding the format's tooling expects.
func Dump(s *Shape, path string) error {
	return DumpStyled(s, path, DefaultStyle())
}

// DumpStyled is Dump with an explicit indentation style.
func DumpStyled(s *Shape, path string, st Style) error {
	text, err := EncodeStyled(s, st)
	if err != nil {
		return err
	}
	return textenc.WriteFileUTF16LE(path, text)
}

// readHeader decodes the first characters of the file at path. The
// prefix is long enough to cover the signature in any encoding the
// sniffer knows.
func readHeader(path string) (string, error) {
	raw, err := textenc.ReadFilePrefix(path, 128)
	if err != nil {
		return "", err
	}
	header, _, err := textenc.Decode(raw)
	if err != nil {
		return "", err
	}
	return header, nil
}

// DetectKind classifies the file at path by its signature prefix.
func DetectKind(path string) (FileKind, error) {
	header, err := readHeader(path)
	if err != nil {
		return KindUnknown, err
	}
	switch {
	case strings.HasPrefix(header, prefixCompressed):
		return KindCompressed, nil
	case strings.HasPrefix(header, prefixPlain):
		return KindPlainText, nil
	}
	return KindUnknown, nil
}

// IsCompressed reports whether the file at path carries the compressed
// signature. A file with neither signature is ErrUnknownSignature.
func IsCompressed(path string) (bool, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return false, err
	}
	switch kind {
	case KindCompressed:
		return true, nil
	case KindPlainText:
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownSignature, path)
}

// IsShape reports whether the plain-text file at path carries the shape
// sub-tag in its signature. Compressed files report false; the tag is
// inside the compressed payload.
func IsShape(path string) (bool, error) {
	header, err := readHeader(path)
	if err != nil {
		return false, err
	}
	if !strings.HasPrefix(header, prefixPlain) {
		return false, nil
	}
	return len(header) >= 24 && header[16:24] == subTagShape, nil
}
