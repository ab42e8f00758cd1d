// Package textenc sniffs the text encoding of shape files and reads and
// writes them through the matching transform. Shape files in the wild
// come in UTF-16 LE (the common case), UTF-8 with or without signature,
// and the occasional UTF-32 variant.
package textenc

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Encoding identifies a detected text encoding.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF8Sig
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF8Sig:
		return "utf-8-sig"
	case UTF16LE:
		return "utf-16-le"
	case UTF16BE:
		return "utf-16-be"
	case UTF32LE:
		return "utf-32-le"
	case UTF32BE:
		return "utf-32-be"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

var (
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// Detect sniffs the encoding from the first four bytes: byte-order marks
// first, then null-byte placement for BOM-less UTF-16/32. Files that are
// neither default to UTF-8. UTF-32 marks must be tested before UTF-16
// because the UTF-32 LE mark begins with the UTF-16 LE one.
func Detect(b []byte) Encoding {
	if len(b) > 4 {
		b = b[:4]
	}
	switch {
	case bytes.HasPrefix(b, bomUTF32BE):
		return UTF32BE
	case bytes.HasPrefix(b, bomUTF32LE):
		return UTF32LE
	case bytes.HasPrefix(b, bomUTF8):
		return UTF8Sig
	case bytes.HasPrefix(b, bomUTF16BE):
		return UTF16BE
	case bytes.HasPrefix(b, bomUTF16LE):
		return UTF16LE
	}
	if len(b) >= 4 {
		if b[0] == 0 {
			if b[1] != 0 {
				return UTF16BE
			}
			return UTF32BE
		}
		if b[1] == 0 {
			if b[2] != 0 || b[3] != 0 {
				return UTF16LE
			}
			return UTF32LE
		}
	} else if len(b) == 2 {
		if b[0] == 0 {
			return UTF16BE
		}
		if b[1] == 0 {
			return UTF16LE
		}
	}
	return UTF8
}

// transformer returns the x/text encoding for e. BOM policy is UseBOM so
// that a present mark is honored and stripped while BOM-less input falls
// back to the detected endianness.
func transformer(e Encoding) encoding.Encoding {
	switch e {
	case UTF8Sig:
		return unicode.UTF8BOM
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM)
	}
	return unicode.UTF8
}

// Decode detects the encoding of raw bytes and decodes them to a string.
func Decode(b []byte) (string, Encoding, error) {
	enc := Detect(b)
	out, err := transformer(enc).NewDecoder().Bytes(b)
	if err != nil {
		return "", enc, fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), enc, nil
}

// ReadFile reads the file at path and decodes it using the sniffed
// encoding.
func ReadFile(path string) (string, Encoding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", UTF8, err
	}
	return Decode(raw)
}

// ReadFilePrefix reads up to n raw bytes from the start of the file.
func ReadFilePrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := f.Read(buf)
	if read == 0 && err != nil {
		return nil, err
	}
	return buf[:read], nil
}

// WriteFile encodes text with the given encoding and writes it to path.
func WriteFile(path, text string, enc Encoding) error {
	raw, err := transformer(enc).NewEncoder().Bytes([]byte(text))
	if err != nil {
		return fmt.Errorf("encode %s: %w", enc, err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// WriteFileUTF16LE writes text as UTF-16 LE with a byte-order mark, the
// encoding MSTS tooling expects.
func WriteFileUTF16LE(path, text string) error {
	return WriteFile(path, text, UTF16LE)
}
