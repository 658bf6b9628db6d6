package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Bind rewrites :NAME parameter references into the placeholder dialect of
// format and returns the positional arguments in order. References inside
// string literals, quoted identifiers and comments are left alone, as are
// "::" casts. Parameters that the statement does not reference are ignored.
func Bind(statement string, params Params, format sq.PlaceholderFormat) (string, []any, error) {
	if format == nil {
		format = sq.Question
	}
	// Positional formats other than "?" treat "??" as an escaped literal.
	escape := format != sq.Question

	var (
		b    strings.Builder
		args []any
		n    = len(statement)
	)
	b.Grow(n)

	emit := func(c byte) {
		if escape && c == '?' {
			b.WriteString("??")
			return
		}
		b.WriteByte(c)
	}
	// copyUntil copies statement[i:] up to and including the terminator and
	// returns the index after it.
	copyUntil := func(i int, term string) int {
		end := strings.Index(statement[i:], term)
		stop := n
		if end >= 0 {
			stop = i + end + len(term)
		}
		for j := i; j < stop; j++ {
			emit(statement[j])
		}
		return stop
	}

	for i := 0; i < n; {
		c := statement[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			emit(c)
			i = copyUntil(i+1, string(c))
		case c == '-' && i+1 < n && statement[i+1] == '-':
			i = copyUntil(i, "\n")
		case c == '/' && i+1 < n && statement[i+1] == '*':
			i = copyUntil(i, "*/")
		case c == ':' && i+1 < n && statement[i+1] == ':':
			b.WriteString("::")
			i += 2
		case c == ':' && i+1 < n && isIdentStart(statement[i+1]):
			j := i + 1
			for j < n && isIdentPart(statement[j]) {
				j++
			}
			name := statement[i+1 : j]
			v, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
			}
			b.WriteByte('?')
			args = append(args, v)
			i = j
		default:
			emit(c)
			i++
		}
	}

	out, err := format.ReplacePlaceholders(b.String())
	if err != nil {
		return "", nil, fmt.Errorf("replacing placeholders: %w", err)
	}
	return out, args, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
