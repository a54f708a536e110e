package token

import (
	"fmt"
	"strconv"
	"strings"
)

type Type int

const (
	LParen Type = iota
	RParen
	Atom
	String
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Atom:
		return "atom"
	case String:
		return "string"
	}
	return "unknown"
}

// Token is one lexical element. For String tokens Value holds the decoded
// bytes; for everything else it is the source text.
type Token struct {
	Value string
	Type  Type
	Line  int
}

// Error is a lexical error at a source line.
type Error struct {
	Msg  string
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func isIDChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	}
	return strings.IndexByte("!#$%&'*+-./:<=>?@\\^_`|~", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	line := 1
	i := 0

	for i < len(input) {
		c := input[i]
		switch {
		case c == '\n':
			line++
			i++

		case isSpace(c):
			i++

		// Line comment
		case c == ';' && i+1 < len(input) && input[i+1] == ';':
			for i < len(input) && input[i] != '\n' {
				i++
			}

		// Block comment, nestable
		case c == '(' && i+1 < len(input) && input[i+1] == ';':
			start := line
			depth := 0
			for {
				if i+1 >= len(input) {
					return nil, &Error{Msg: "unterminated block comment", Line: start}
				}
				if input[i] == '(' && input[i+1] == ';' {
					depth++
					i += 2
					continue
				}
				if input[i] == ';' && input[i+1] == ')' {
					depth--
					i += 2
					if depth == 0 {
						break
					}
					continue
				}
				if input[i] == '\n' {
					line++
				}
				i++
			}

		case c == '(':
			tokens = append(tokens, Token{"(", LParen, line})
			i++

		case c == ')':
			tokens = append(tokens, Token{")", RParen, line})
			i++

		case c == '"':
			s, n, err := readString(input[i:])
			if err != nil {
				return nil, &Error{Msg: err.Error(), Line: line}
			}
			tokens = append(tokens, Token{s, String, line})
			i += n

		case isIDChar(c):
			start := i
			for i < len(input) && isIDChar(input[i]) {
				i++
			}
			tokens = append(tokens, Token{input[start:i], Atom, line})

		default:
			return nil, &Error{Msg: fmt.Sprintf("unexpected character %q", c), Line: line}
		}
	}

	return tokens, nil
}

// readString decodes a quoted literal at the start of s and returns the
// bytes and the number of source bytes consumed.
func readString(s string) (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '"' {
			return b.String(), i + 1, nil
		}
		if c == '\n' {
			return "", 0, fmt.Errorf("newline in string literal")
		}
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}

		if i+1 >= len(s) {
			break
		}
		e := s[i+1]
		i += 2
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i >= len(s) || s[i] != '{' || end < 0 {
				return "", 0, fmt.Errorf("malformed unicode escape")
			}
			cp, err := strconv.ParseUint(strings.ReplaceAll(s[i+1:i+end], "_", ""), 16, 32)
			if err != nil {
				return "", 0, fmt.Errorf("malformed unicode escape")
			}
			b.WriteRune(rune(cp))
			i += end + 1
		default:
			// \hh byte escape; e is the first digit
			if i >= len(s) {
				return "", 0, fmt.Errorf("unterminated string literal")
			}
			v, err := strconv.ParseUint(s[i-1:i+1], 16, 8)
			if err != nil {
				return "", 0, fmt.Errorf("invalid escape \\%c", e)
			}
			b.WriteByte(byte(v))
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}
