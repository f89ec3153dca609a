package tabular

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is the label used by the municipal open-data portal.
const DefaultEncoding = "shift-jis"

// ErrUnknownEncoding is returned by [Decode] for labels the WHATWG encoding
// index does not recognize.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// Decode converts raw bytes in the named encoding to a UTF-8 string. Labels
// follow the WHATWG encoding standard ("shift-jis", "sjis", "utf-8", ...);
// an empty label means [DefaultEncoding]. A leading byte-order mark is
// removed.
func Decode(raw []byte, label string) (string, error) {
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}
	return strings.TrimPrefix(string(out), "\ufeff"), nil
}
