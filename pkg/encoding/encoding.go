// Package encoding transcodes legacy-encoded text and file names to UTF-8.
package encoding

import (
	"bytes"
	"fmt"
	"strings"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// aliases covers code page names the WHATWG index does not list.
var aliases = map[string]xencoding.Encoding{
	"cp949": korean.EUCKR,
	"uhc":   korean.EUCKR,
}

// IsUTF8 reports whether name denotes UTF-8 or no transcoding at all.
func IsUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// Lookup returns the encoding registered under name.
func Lookup(name string) (xencoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := aliases[key]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q", name)
	}
	return enc, nil
}

// Transcode converts data from the named encoding to UTF-8. UTF-8 input
// is returned without a byte order mark and is not copied otherwise.
func Transcode(data []byte, name string) ([]byte, error) {
	if IsUTF8(name) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s text: %w", name, err)
	}
	return out, nil
}

// TranscodeString is Transcode for strings. It returns s unchanged when
// the conversion fails.
func TranscodeString(s, name string) string {
	out, err := Transcode([]byte(s), name)
	if err != nil {
		return s
	}
	return string(out)
}

// EUCKRToUTF8 converts EUC-KR encoded bytes to a UTF-8 string.
// Returns the original string if conversion fails.
func EUCKRToUTF8(data []byte) string {
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToEUCKR converts a UTF-8 string to EUC-KR encoded bytes.
// Returns the original bytes if conversion fails.
func UTF8ToEUCKR(s string) []byte {
	result, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NormalizeArchivePath normalizes an archive entry path for
// case-insensitive lookup.
func NormalizeArchivePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.ToLower(p)
}
