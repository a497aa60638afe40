package dsl

import "strings"

// scanner is a byte cursor over the source text with 1-based line tracking.
// It is shared by the block-grammar pass; the legacy pass works on whole
// lines instead.
type scanner struct {
	src  string
	pos  int
	line int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1}
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

// advance moves one byte forward, keeping the line counter aligned. It is
// the only method that may step over a newline.
func (s *scanner) advance() {
	if s.eof() {
		return
	}
	if s.src[s.pos] == '\n' {
		s.line++
	}
	s.pos++
}

// skipSpace consumes spaces, tabs, carriage returns, and newlines.
func (s *scanner) skipSpace() {
	for !s.eof() {
		switch s.src[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.advance()
		default:
			return
		}
	}
}

// skipInline consumes spaces and tabs on the current line only.
func (s *scanner) skipInline() {
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

// skipLine consumes the rest of the current line including its newline.
func (s *scanner) skipLine() {
	for !s.eof() && s.src[s.pos] != '\n' {
		s.pos++
	}
	s.advance()
}

// untilAny consumes and returns text up to (not including) the first byte
// in stops or end of input.
func (s *scanner) untilAny(stops string) string {
	start := s.pos
	for !s.eof() && strings.IndexByte(stops, s.src[s.pos]) < 0 {
		s.advance()
	}
	return s.src[start:s.pos]
}

// mark and restore snapshot the cursor for backtracking.
type mark struct{ pos, line int }

func (s *scanner) mark() mark     { return mark{s.pos, s.line} }
func (s *scanner) restore(m mark) { s.pos, s.line = m.pos, m.line }

// arrow consumes a "->" token if present.
func (s *scanner) arrow() bool {
	if s.pos+1 < len(s.src) && s.src[s.pos] == '-' && s.src[s.pos+1] == '>' {
		s.pos += 2
		return true
	}
	return false
}

// ident scans a bare identifier: letters, digits, underscore, dash, dot.
func (s *scanner) ident() (string, bool) {
	start := s.pos
	for !s.eof() && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", false
	}
	return s.src[start:s.pos], true
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.'
}

func isIdentString(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if !isIdentByte(v[i]) {
			return false
		}
	}
	return true
}

// quoted scans a double-quoted string and returns its contents. The cursor
// is left untouched when the opening quote is missing or the string is not
// terminated on the same line.
func (s *scanner) quoted() (string, bool) {
	if s.peek() != '"' {
		return "", false
	}
	m := s.mark()
	s.advance()
	start := s.pos
	for !s.eof() && s.src[s.pos] != '"' && s.src[s.pos] != '\n' {
		s.pos++
	}
	if s.eof() || s.src[s.pos] == '\n' {
		s.restore(m)
		return "", false
	}
	v := s.src[start:s.pos]
	s.pos++
	return v, true
}

// name scans either a quoted string or a bare identifier.
func (s *scanner) name() (string, bool) {
	if s.peek() == '"' {
		return s.quoted()
	}
	return s.ident()
}

// unquote strips one pair of surrounding double quotes if present.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
