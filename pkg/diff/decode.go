package diff

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names the text encoding a file was decoded with
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingUTF16  Encoding = "utf-16"
	EncodingLatin1 Encoding = "latin-1"
	// EncodingNone marks content no decoder accepted
	EncodingNone Encoding = ""
)

// Decoder is one attempt at turning raw bytes into text.
// Decode returns false when the content is not valid for the encoding.
type Decoder interface {
	Encoding() Encoding
	Decode(data []byte) (string, bool)
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DefaultDecoders is the priority order used by Decode
var DefaultDecoders = []Decoder{
	utf8Decoder{},
	utf16Decoder{},
	latin1Decoder{},
}

// Decode tries each default decoder in order and returns the first success.
// Content that no decoder accepts is reported with ok == false.
func Decode(data []byte) (text string, enc Encoding, ok bool) {
	return decodeWith(DefaultDecoders, data)
}

func decodeWith(decoders []Decoder, data []byte) (string, Encoding, bool) {
	for _, d := range decoders {
		if text, ok := d.Decode(data); ok {
			return text, d.Encoding(), true
		}
	}
	return "", EncodingNone, false
}

// utf8Decoder accepts valid UTF-8, with or without a byte order mark.
// NUL bytes never appear in text files and are rejected.
type utf8Decoder struct{}

func (utf8Decoder) Encoding() Encoding { return EncodingUTF8 }

func (utf8Decoder) Decode(data []byte) (string, bool) {
	if bytes.HasPrefix(data, bomUTF8) {
		rest := data[len(bomUTF8):]
		if !utf8.Valid(rest) || bytes.IndexByte(rest, 0) >= 0 {
			return "", false
		}
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", false
	}
	return string(data), true
}

// utf16Decoder only accepts content that starts with a UTF-16 byte order mark
type utf16Decoder struct{}

func (utf16Decoder) Encoding() Encoding { return EncodingUTF16 }

func (utf16Decoder) Decode(data []byte) (string, bool) {
	if !bytes.HasPrefix(data, bomUTF16LE) && !bytes.HasPrefix(data, bomUTF16BE) {
		return "", false
	}
	if len(data)%2 != 0 {
		return "", false
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// latin1Decoder maps every byte to a rune, so it is the last resort.
// Content holding NUL bytes is treated as binary.
type latin1Decoder struct{}

func (latin1Decoder) Encoding() Encoding { return EncodingLatin1 }

func (latin1Decoder) Decode(data []byte) (string, bool) {
	if bytes.IndexByte(data, 0) >= 0 {
		return "", false
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}
