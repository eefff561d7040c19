package lexer

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"unicode/utf8"

	"github.com/xirelogy/go-hd/internal/token"
)

var (
	ErrUnrecognizedToken  = errors.New("unrecognized token")
	ErrUnterminatedString = errors.New("unterminated string")
	ErrInvalidNumFormat   = errors.New("invalid number format")
	ErrInvalidEncoding    = errors.New("invalid UTF-8 encoding")
)

// Error is a lexical failure. Kind is one of the Err* sentinels.
type Error struct {
	Kind   error
	Line   int
	Lexeme string
}

func (e *Error) Error() string {
	if e.Lexeme == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Kind)
	}
	return fmt.Sprintf("line %d: %v %q", e.Line, e.Kind, e.Lexeme)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Lexer converts source bytes into a forward-only stream of tokens.
// It stops at the first error: later calls return the same error.
type Lexer struct {
	input []byte
	start int // first byte of the token being scanned
	pos   int // next byte to read
	line  int
	err   error
}

// New creates a lexer for the provided source bytes.
func New(input []byte) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
	}
}

// NextToken returns the next token, or the first lexical error.
// Once input is exhausted it keeps returning EOF.
func (l *Lexer) NextToken() (token.Token, error) {
	if l.err != nil {
		return token.Token{}, l.err
	}
	tok, err := l.scan()
	if err != nil {
		l.err = err
		return token.Token{}, err
	}
	return tok, nil
}

// All yields tokens lazily up to and including EOF, or up to the first error.
func (l *Lexer) All() iter.Seq2[token.Token, error] {
	return func(yield func(token.Token, error) bool) {
		for {
			tok, err := l.NextToken()
			if !yield(tok, err) || err != nil || tok.Type == token.EOF {
				return
			}
		}
	}
}

// Tokenize scans the whole input, EOF included.
func Tokenize(input []byte) ([]token.Token, error) {
	var out []token.Token
	for tok, err := range New(input).All() {
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
	return out, nil
}

func (l *Lexer) scan() (token.Token, error) {
	l.skipWhitespace()
	l.start = l.pos
	if l.atEnd() {
		return l.makeToken(token.EOF), nil
	}

	ch := l.advance()
	switch ch {
	case '(':
		return l.makeToken(token.LParen), nil
	case ')':
		return l.makeToken(token.RParen), nil
	case '{':
		return l.makeToken(token.LBrace), nil
	case '}':
		return l.makeToken(token.RBrace), nil
	case '[':
		return l.makeToken(token.LBracket), nil
	case ']':
		return l.makeToken(token.RBracket), nil
	case '.':
		return l.makeToken(token.Dot), nil
	case '+':
		return l.makeToken(token.Plus), nil
	case '-':
		return l.makeToken(token.Minus), nil
	case '*':
		return l.makeToken(token.Asterisk), nil
	case '/':
		return l.makeToken(token.Slash), nil
	case ',':
		return l.makeToken(token.Comma), nil
	case '=':
		return l.makeToken(l.choose('=', token.EqualEqual, token.Equal)), nil
	case '!':
		return l.makeToken(l.choose('=', token.BangEqual, token.Bang)), nil
	case '>':
		return l.makeToken(l.choose('=', token.GreaterEqual, token.Greater)), nil
	case '<':
		return l.makeToken(l.choose('=', token.LessEqual, token.Less)), nil
	case '"':
		return l.readString()
	}

	switch {
	case isDigit(ch):
		return l.readNumber()
	case isLetter(ch):
		return l.readIdentifier(), nil
	case ch >= utf8.RuneSelf:
		return l.unrecognizedRune()
	default:
		return token.Token{}, l.errorf(ErrUnrecognizedToken, l.line, string(ch))
	}
}

func (l *Lexer) makeToken(t token.Type) token.Token {
	return token.Token{Type: t, Line: l.line}
}

func (l *Lexer) errorf(kind error, line int, lexeme string) error {
	return &Error{Kind: kind, Line: line, Lexeme: lexeme}
}

// choose consumes the next byte when it equals want.
func (l *Lexer) choose(want byte, matched, otherwise token.Type) token.Type {
	if l.peek() == want {
		l.advance()
		return matched
	}
	return otherwise
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		case '\n':
			l.line++
			l.advance()
		case '#':
			l.skipComment()
		default:
			return
		}
	}
}

// skipComment stops before the newline so line counting stays in one place.
func (l *Lexer) skipComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) readString() (token.Token, error) {
	startLine := l.line
	for !l.atEnd() && l.peek() != '"' {
		if l.advance() == '\n' {
			l.line++
		}
	}
	if l.atEnd() {
		return token.Token{}, l.errorf(ErrUnterminatedString, startLine, string(l.input[l.start:l.pos]))
	}
	l.advance() // closing quote

	contents := l.input[l.start+1 : l.pos-1]
	if !utf8.Valid(contents) {
		return token.Token{}, l.errorf(ErrInvalidEncoding, startLine, "")
	}
	return token.Token{Type: token.Str, Literal: string(contents), Line: startLine}, nil
}

func (l *Lexer) readNumber() (token.Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		if !isDigit(l.peek()) {
			return token.Token{}, l.errorf(ErrInvalidNumFormat, l.line, string(l.input[l.start:l.pos]))
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	lit := string(l.input[l.start:l.pos])
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return token.Token{}, l.errorf(ErrInvalidNumFormat, l.line, lit)
	}
	return token.Token{Type: token.Num, Literal: lit, Num: n, Line: l.line}, nil
}

func (l *Lexer) readIdentifier() token.Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	lit := string(l.input[l.start:l.pos])
	return token.Token{Type: token.LookupIdent(lit), Literal: lit, Line: l.line}
}

// unrecognizedRune reports a non-ASCII byte outside a string literal.
func (l *Lexer) unrecognizedRune() (token.Token, error) {
	r, size := utf8.DecodeRune(l.input[l.start:])
	if r == utf8.RuneError && size <= 1 {
		return token.Token{}, l.errorf(ErrInvalidEncoding, l.line, "")
	}
	l.pos = l.start + size
	return token.Token{}, l.errorf(ErrUnrecognizedToken, l.line, string(r))
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// peek returns 0 at end of input; 0 never starts or continues a token.
func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	return ch
}
