package syntax

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken = iota
	wordToken
	dotToken
	slashToken
	commaToken
	colonToken
	arrowToken
	openAngleToken
	closeAngleToken
	openParenToken
	closeParenToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var wordMatcher = parsly.NewToken(wordToken, "Word", &wordMatch{})
var dotMatcher = parsly.NewToken(dotToken, ".", matcher.NewByte('.'))
var slashMatcher = parsly.NewToken(slashToken, "/", matcher.NewByte('/'))
var commaMatcher = parsly.NewToken(commaToken, ",", matcher.NewByte(','))
var colonMatcher = parsly.NewToken(colonToken, ":", matcher.NewByte(':'))
var arrowMatcher = parsly.NewToken(arrowToken, "->", matcher.NewFragment("->"))
var openAngleMatcher = parsly.NewToken(openAngleToken, "<", matcher.NewByte('<'))
var closeAngleMatcher = parsly.NewToken(closeAngleToken, ">", matcher.NewByte('>'))
var openParenMatcher = parsly.NewToken(openParenToken, "(", matcher.NewByte('('))
var closeParenMatcher = parsly.NewToken(closeParenToken, ")", matcher.NewByte(')'))

// wordMatch matches identifiers and package name parts. Dashes are allowed
// after the first byte so that package names like "my-lib" lex as one word;
// callers reject them where an identifier is required.
type wordMatch struct{}

func (w *wordMatch) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize || !isIdentifierStart(cursor.Input[cursor.Pos]) {
		return 0
	}
	pos := cursor.Pos + 1
	for pos < cursor.InputSize && (isIdentifierPart(cursor.Input[pos]) || cursor.Input[pos] == '-') {
		pos++
	}
	return pos - cursor.Pos
}

func isIdentifierStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentifierPart(b byte) bool {
	return isIdentifierStart(b) || (b >= '0' && b <= '9')
}

// IsIdentifier reports whether s is a valid identifier.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentifierStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentifierPart(s[i]) {
			return false
		}
	}
	return true
}

// atEnd skips trailing whitespace and reports whether input is exhausted.
func atEnd(cursor *parsly.Cursor) bool {
	cursor.MatchOne(whitespaceMatcher)
	return cursor.Pos >= cursor.InputSize
}
