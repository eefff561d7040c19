package token

// Type identifies the category of a token.
type Type string

// Token pairs a token type with the source line it started on.
// Literal holds identifier and string text; Num holds number values.
type Token struct {
	Type    Type
	Literal string
	Num     float64
	Line    int
}

const (
	EOF Type = "EOF"

	// identifiers and literals
	Identifier Type = "IDENTIFIER"
	Str        Type = "STR"
	Num        Type = "NUM"

	// keywords
	Let   Type = "LET"
	While Type = "WHILE"
	If    Type = "IF"
	Else  Type = "ELSE"
	True  Type = "TRUE"
	False Type = "FALSE"

	// operators
	Equal        Type = "EQUAL"        // =
	EqualEqual   Type = "EQUALEQUAL"   // ==
	Bang         Type = "BANG"         // !
	BangEqual    Type = "BANGEQUAL"    // !=
	Greater      Type = "GREATER"      // >
	GreaterEqual Type = "GREATEREQUAL" // >=
	Less         Type = "LESS"         // <
	LessEqual    Type = "LESSEQUAL"    // <=
	Plus         Type = "PLUS"         // +
	Minus        Type = "MINUS"        // -
	Asterisk     Type = "ASTERISK"     // *
	Slash        Type = "SLASH"        // /

	// delimiters
	Dot      Type = "DOT"
	Comma    Type = "COMMA"
	LParen   Type = "LPAREN"
	RParen   Type = "RPAREN"
	LBrace   Type = "LBRACE"
	RBrace   Type = "RBRACE"
	LBracket Type = "LBRACKET"
	RBracket Type = "RBRACKET"
)

// keywords is initialised once and only read afterwards.
var keywords = map[string]Type{
	"while": While,
	"if":    If,
	"else":  Else,
	"let":   Let,
	"true":  True,
	"false": False,
}

// LookupIdent returns the keyword token type or Identifier.
// Only whole-word matches are keywords.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return Identifier
}

// IsKeyword reports whether t is a reserved word.
func IsKeyword(t Type) bool {
	switch t {
	case Let, While, If, Else, True, False:
		return true
	default:
		return false
	}
}
