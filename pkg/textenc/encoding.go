// Package textenc resolves the text encoding of raw bytes by trying an
// ordered list of candidate encodings and keeping the first that decodes.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Canonical names of the built-in candidates.
const (
	NameUTF8    = "utf-8"
	NameUTF8SIG = "utf-8-sig"
	NameEUCKR   = "euc-kr"
	NameCP949   = "cp949"
	NameLatin1  = "latin-1"
)

// DefaultCandidates is the fallback order used when none is configured.
var DefaultCandidates = []string{NameUTF8, NameUTF8SIG, NameEUCKR, NameCP949, NameLatin1}

var (
	// ErrUnknownEncoding is returned by Lookup for names it cannot resolve.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrInvalidSequence is returned when the bytes are not valid in the encoding.
	ErrInvalidSequence = errors.New("invalid byte sequence")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encoding converts between raw bytes and UTF-8 text.
type Encoding interface {
	// Name is the canonical candidate name.
	Name() string
	// Decode fails instead of substituting U+FFFD for undecodable input.
	Decode(data []byte) (string, error)
	// Encode converts text to the encoding's byte form.
	Encode(text string) ([]byte, error)
}

// Lookup resolves a candidate encoding by name. Names are case-insensitive
// and accept the usual aliases (utf8, latin1, cp949, shift_jis, ...).
func Lookup(name string) (Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))

	switch strings.ReplaceAll(label, "_", "-") {
	case "utf-8", "utf8":
		return utf8Encoding{}, nil
	case "utf-8-sig", "utf8-sig":
		return utf8Encoding{bom: true}, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1", "l1":
		return xEncoding{name: NameLatin1, enc: charmap.ISO8859_1}, nil
	case "cp949", "ms949", "uhc", "windows-949":
		return xEncoding{name: NameCP949, enc: korean.EUCKR}, nil
	case "":
		return nil, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}

	canonical, nameErr := htmlindex.Name(enc)
	if nameErr != nil {
		canonical = label
	}

	return xEncoding{name: canonical, enc: enc}, nil
}

type utf8Encoding struct {
	bom bool
}

func (u utf8Encoding) Name() string {
	if u.bom {
		return NameUTF8SIG
	}

	return NameUTF8
}

func (u utf8Encoding) Decode(data []byte) (string, error) {
	if u.bom {
		data = bytes.TrimPrefix(data, utf8BOM)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	offset := firstInvalidUTF8(data)

	return "", fmt.Errorf("%w: byte 0x%02X at offset %d", ErrInvalidSequence, data[offset], offset)
}

func (u utf8Encoding) Encode(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidSequence)
	}

	if u.bom {
		return append(append([]byte{}, utf8BOM...), text...), nil
	}

	return []byte(text), nil
}

func firstInvalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}

		i += size
	}

	return 0
}

// xEncoding adapts an x/text encoding. Its decoders replace invalid input
// with U+FFFD, so any replacement rune in the output counts as a failure.
type xEncoding struct {
	name string
	enc  encoding.Encoding
}

func (x xEncoding) Name() string {
	return x.name
}

func (x xEncoding) Decode(data []byte) (string, error) {
	out, _, err := transform.Bytes(x.enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", x.name, err)
	}

	if idx := bytes.IndexRune(out, utf8.RuneError); idx >= 0 {
		return "", fmt.Errorf("%w: undecodable input near output offset %d", ErrInvalidSequence, idx)
	}

	return string(out), nil
}

func (x xEncoding) Encode(text string) ([]byte, error) {
	out, _, err := transform.Bytes(x.enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", x.name, err)
	}

	return out, nil
}
