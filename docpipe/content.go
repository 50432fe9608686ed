package docpipe

import (
	"bytes"
	"strconv"
	"unicode/utf16"
)

// operand is one value pushed on the content stream operand stack.
type operand struct {
	kind operandKind
	num  float64
	str  []byte // decoded string bytes or name
	arr  []operand
}

type operandKind uint8

const (
	opNumber operandKind = iota
	opString
	opName
	opArray
	opOther
)

// walkContent tokenizes a page content stream and calls fn for every
// operator with the operands that precede it. Inline images are skipped.
func walkContent(data []byte, fn func(op string, args []operand)) {
	s := &contentScanner{data: data}
	var stack []operand
	for {
		v, op, ok := s.next()
		if !ok {
			return
		}
		if op == "" {
			stack = append(stack, v)
			continue
		}
		if op == "BI" {
			s.skipInlineImage()
			stack = stack[:0]
			continue
		}
		fn(op, stack)
		stack = stack[:0]
	}
}

type contentScanner struct {
	data []byte
	pos  int
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func (s *contentScanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		default:
			return
		}
	}
}

// next returns either an operand or, when op is non-empty, an operator.
func (s *contentScanner) next() (v operand, op string, ok bool) {
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return operand{}, "", false
		}
		c := s.data[s.pos]
		switch {
		case c == '(':
			s.pos++
			return operand{kind: opString, str: s.literal()}, "", true
		case c == '<' && s.peek(1) == '<':
			s.pos += 2
			s.skipDict()
			return operand{kind: opOther}, "", true
		case c == '<':
			s.pos++
			return operand{kind: opString, str: s.hex()}, "", true
		case c == '[':
			s.pos++
			return operand{kind: opArray, arr: s.array()}, "", true
		case c == '/':
			s.pos++
			return operand{kind: opName, str: s.regular()}, "", true
		case c == ']' || c == ')' || c == '>' || c == '{' || c == '}':
			s.pos++
			continue
		}
		tok := s.regular()
		if len(tok) == 0 {
			s.pos++
			continue
		}
		if f, err := strconv.ParseFloat(string(tok), 64); err == nil {
			return operand{kind: opNumber, num: f}, "", true
		}
		if tok[0] == '+' || tok[0] == '-' || tok[0] == '.' || (tok[0] >= '0' && tok[0] <= '9') {
			// Malformed number such as "--5"; keep the stack aligned.
			return operand{kind: opNumber}, "", true
		}
		switch string(tok) {
		case "true", "false", "null":
			return operand{kind: opOther}, "", true
		}
		return operand{}, string(tok), true
	}
}

func (s *contentScanner) peek(off int) byte {
	if s.pos+off < len(s.data) {
		return s.data[s.pos+off]
	}
	return 0
}

func (s *contentScanner) regular() []byte {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	return s.data[start:s.pos]
}

// literal reads a parenthesised string after its opening paren, handling
// nesting and escapes.
func (s *contentScanner) literal() []byte {
	var out []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out
			}
		case '\\':
			if s.pos >= len(s.data) {
				return out
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if s.peek(0) == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e < '0' || e > '7' {
					out = append(out, e)
					continue
				}
				val := int(e - '0')
				for k := 0; k < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; k++ {
					val = val*8 + int(s.data[s.pos]-'0')
					s.pos++
				}
				out = append(out, byte(val))
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

// hex reads a hex string after its opening '<'. An odd final digit is
// padded with 0.
func (s *contentScanner) hex() []byte {
	var out []byte
	var hi byte
	half := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		d, ok := hexDigit(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|d)
		} else {
			hi = d
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (s *contentScanner) array() []operand {
	var out []operand
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return out
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return out
		}
		v, op, ok := s.next()
		if !ok {
			return out
		}
		if op == "" {
			out = append(out, v)
		}
	}
}

// skipDict skips an inline dictionary such as the properties of BDC.
func (s *contentScanner) skipDict() {
	depth := 1
	for s.pos < len(s.data) && depth > 0 {
		switch {
		case s.data[s.pos] == '(':
			s.pos++
			s.literal()
			continue
		case s.data[s.pos] == '<' && s.peek(1) == '<':
			depth++
			s.pos += 2
			continue
		case s.data[s.pos] == '>' && s.peek(1) == '>':
			depth--
			s.pos += 2
			continue
		}
		s.pos++
	}
}

// skipInlineImage moves past "ID <data> EI".
func (s *contentScanner) skipInlineImage() {
	i := bytes.Index(s.data[s.pos:], []byte("ID"))
	if i < 0 {
		s.pos = len(s.data)
		return
	}
	s.pos += i + 2
	for s.pos < len(s.data) {
		j := bytes.Index(s.data[s.pos:], []byte("EI"))
		if j < 0 {
			s.pos = len(s.data)
			return
		}
		at := s.pos + j
		before := at == 0 || isSpace(s.data[at-1])
		after := at+2 >= len(s.data) || isSpace(s.data[at+2])
		s.pos = at + 2
		if before && after {
			return
		}
	}
}

// textOf decodes a string operand for display. UTF-16BE strings carry a
// byte order mark; everything else is read as Latin-1, which matches
// WinAnsi for letters.
func textOf(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n, the transform that applies m then n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]
}

func nums(args []operand, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, a := range args[len(args)-n:] {
		if a.kind != opNumber {
			return nil, false
		}
		out[i] = a.num
	}
	return out, true
}
