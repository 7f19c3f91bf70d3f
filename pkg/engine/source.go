package engine

import "strings"

// preprocessSource rewrites trellis source into something zygomys accepts:
//
//   - :name becomes the string "__kw_name", so keyword arguments never
//     collide with user bindings;
//   - strut-radius becomes strut_radius, since zygomys reads the hyphen as
//     subtraction;
//   - ; comments become // comments.
//
// String literals pass through untouched. := and minus signs in front of
// numbers are kept.
func preprocessSource(source string) string {
	s := &scanner{src: source}
	s.out.Grow(len(source) + len(source)/4)
	for s.pos < len(s.src) {
		switch c := s.src[s.pos]; {
		case c == '"' || c == '`':
			s.quoted(c)
		case c == ';':
			s.comment()
		case c == ':' && s.peek() == '=':
			s.copy(2)
		case c == ':' && isLetter(s.peek()):
			s.keyword()
		case c == '-' && s.kebab():
			s.out.WriteByte('_')
			s.pos++
		default:
			s.copy(1)
		}
	}
	return s.out.String()
}

type scanner struct {
	src string
	pos int
	out strings.Builder
}

func (s *scanner) peek() byte {
	if s.pos+1 < len(s.src) {
		return s.src[s.pos+1]
	}
	return 0
}

func (s *scanner) copy(n int) {
	end := min(s.pos+n, len(s.src))
	s.out.WriteString(s.src[s.pos:end])
	s.pos = end
}

// quoted copies a string literal up to and including its closing quote.
// Backslash escapes only apply inside double quotes.
func (s *scanner) quoted(q byte) {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) && s.src[s.pos] != q {
		if q == '"' && s.src[s.pos] == '\\' {
			s.pos++
		}
		s.pos++
	}
	s.pos = min(s.pos+1, len(s.src))
	s.out.WriteString(s.src[start:s.pos])
}

func (s *scanner) comment() {
	for s.pos < len(s.src) && s.src[s.pos] == ';' {
		s.pos++
	}
	s.out.WriteString("//")
	end := strings.IndexByte(s.src[s.pos:], '\n')
	if end < 0 {
		end = len(s.src) - s.pos
	}
	s.copy(end)
}

func (s *scanner) keyword() {
	end := s.pos + 1
	for end < len(s.src) && isKWChar(s.src[end]) {
		end++
	}
	s.out.WriteString(`"` + kwPrefix + s.src[s.pos+1:end] + `"`)
	s.pos = end
}

// kebab reports whether the hyphen at pos joins two identifier parts.
func (s *scanner) kebab() bool {
	return s.pos > 0 && isIdentChar(s.src[s.pos-1]) && isLetter(s.peek())
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
