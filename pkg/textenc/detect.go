package textenc

import (
	"bytes"

	"golang.org/x/net/html/charset"
)

// Detection is the detector's verdict for a byte sequence.
type Detection struct {
	Encoding string
	// Certain is true for a BOM or an explicit charset parameter.
	Certain bool
}

// Detect inspects the byte order mark, the charset parameter of contentType
// and, for HTML-like content, meta tags. A UTF-8 BOM maps to utf-8-sig so
// the mark is stripped on decode.
func Detect(data []byte, contentType string) Detection {
	if bytes.HasPrefix(data, utf8BOM) {
		return Detection{Encoding: NameUTF8SIG, Certain: true}
	}

	_, name, certain := charset.DetermineEncoding(data, contentType)

	return Detection{Encoding: name, Certain: certain}
}
