package syntax

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"

	"github.com/jward/candyc/internal/ids"
)

// UseTarget is the parsed target of a use-line.
type UseTarget interface {
	// Key renders the target the way it was written, minus whitespace.
	Key() string
	String() string
	isUseTarget()
}

// LocalAbsolute is rooted at the importing package's root module: "A.B".
type LocalAbsolute struct {
	Path []string
}

// LocalRelative starts ParentHops modules above the importing module:
// ".A" names a sibling, "..A" a sibling of the parent.
type LocalRelative struct {
	ParentHops int
	Path       []string
}

// Global names a module of another package: "publisher/package.A.B".
type Global struct {
	Package ids.PackageId
	Path    []string
}

func (t LocalAbsolute) Key() string { return strings.Join(t.Path, ".") }
func (t LocalRelative) Key() string {
	return strings.Repeat(".", t.ParentHops+1) + strings.Join(t.Path, ".")
}
func (t Global) Key() string {
	if len(t.Path) == 0 {
		return string(t.Package)
	}
	return string(t.Package) + "." + strings.Join(t.Path, ".")
}

func (t LocalAbsolute) String() string { return t.Key() }
func (t LocalRelative) String() string { return t.Key() }
func (t Global) String() string        { return t.Key() }

func (LocalAbsolute) isUseTarget() {}
func (LocalRelative) isUseTarget() {}
func (Global) isUseTarget()        {}

// ParseUseTarget parses the target text of a use-line.
func ParseUseTarget(text string) (UseTarget, error) {
	cursor := parsly.NewCursor("", []byte(text), 0)
	cursor.MatchOne(whitespaceMatcher)

	dots := 0
	for cursor.MatchOne(dotMatcher).Code == dotToken {
		dots++
	}

	first, err := expectWord(cursor)
	if err != nil {
		return nil, fmt.Errorf("syntax: use %q: %w", text, err)
	}

	if dots == 0 && cursor.MatchOne(slashMatcher).Code == slashToken {
		name, err := expectWord(cursor)
		if err != nil {
			return nil, fmt.Errorf("syntax: use %q: %w", text, err)
		}
		path, err := parseDottedTail(cursor, text)
		if err != nil {
			return nil, err
		}
		return Global{Package: ids.PackageId(first + "/" + name), Path: path}, nil
	}

	if !IsIdentifier(first) {
		return nil, fmt.Errorf("syntax: use %q: %q is not an identifier", text, first)
	}
	rest, err := parseDottedTail(cursor, text)
	if err != nil {
		return nil, err
	}
	path := append([]string{first}, rest...)
	if dots > 0 {
		return LocalRelative{ParentHops: dots - 1, Path: path}, nil
	}
	return LocalAbsolute{Path: path}, nil
}

// parseDottedTail reads ".Name" repetitions up to the end of input.
func parseDottedTail(cursor *parsly.Cursor, text string) ([]string, error) {
	var path []string
	for cursor.MatchOne(dotMatcher).Code == dotToken {
		name, err := expectWord(cursor)
		if err != nil {
			return nil, fmt.Errorf("syntax: use %q: %w", text, err)
		}
		if !IsIdentifier(name) {
			return nil, fmt.Errorf("syntax: use %q: %q is not an identifier", text, name)
		}
		path = append(path, name)
	}
	if !atEnd(cursor) {
		return nil, fmt.Errorf("syntax: use %q: %w", text, cursor.NewError(dotMatcher))
	}
	return path, nil
}

func expectWord(cursor *parsly.Cursor) (string, error) {
	matched := cursor.MatchOne(wordMatcher)
	if matched.Code != wordToken {
		return "", cursor.NewError(wordMatcher)
	}
	return matched.Text(cursor), nil
}
