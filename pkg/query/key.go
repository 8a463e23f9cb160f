package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Key identifies a query: an ordered tuple of primitive values.
// Equal tuples are the same logical query.
type Key []any

// K builds a key from its parts.
func K(parts ...any) Key {
	return Key(parts)
}

// Append returns a new key extended with parts. The receiver is not modified.
func (k Key) Append(parts ...any) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// Equal reports whether two keys render identically.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// String renders the key deterministically. String parts render as
// themselves with colons and backslashes escaped; other parts carry a
// kind sigil (# integer, ~ float, ? bool), and a string starting with a
// sigil is escaped, so K("genre", 28) and K("genre", "28") stay distinct.
// Integers of different widths with the same value render alike.
func (k Key) String() string {
	var b strings.Builder
	for i, part := range k {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(renderPart(part))
	}
	return b.String()
}

func (k Key) validate() error {
	if len(k) == 0 {
		return fmt.Errorf("query key is empty")
	}
	for i, part := range k {
		switch part.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return fmt.Errorf("query key part %d has unsupported type %T", i, part)
		}
	}
	return nil
}

var partEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

const (
	intSigil   = '#'
	floatSigil = '~'
	boolSigil  = '?'
)

func renderPart(part any) string {
	switch v := part.(type) {
	case string:
		s := partEscaper.Replace(v)
		if s != "" && (s[0] == intSigil || s[0] == floatSigil || s[0] == boolSigil) {
			s = `\` + s
		}
		return s
	case bool:
		return string(boolSigil) + strconv.FormatBool(v)
	case float32:
		return string(floatSigil) + strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return string(floatSigil) + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return string(intSigil) + fmt.Sprint(v)
	}
}
