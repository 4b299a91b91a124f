package tree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned for malformed S-expressions.
var ErrSyntax = errors.New("s-expression syntax error")

// Parse builds a tree from a compact S-expression such as
//
//	(class_declaration (identifier "A") (class_body))
//
// Each node spans the bytes of its parenthesized form, so every node gets a
// distinct location usable with FindByLocation.
func Parse(src string) (*Tree, error) {
	p := &sexprParser{src: src, b: NewBuilder()}

	p.skipSpace()

	if err := p.expr(Nil); err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing input at %d", ErrSyntax, p.pos)
	}

	return p.b.Build(), nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(src string) *Tree {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}

	return t
}

type sexprParser struct {
	src string
	pos int
	b   *Builder
}

func (p *sexprParser) expr(parent ID) error {
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return fmt.Errorf("%w: expected '(' at %d", ErrSyntax, p.pos)
	}

	start := p.pos
	p.pos++
	p.skipSpace()

	typ := p.ident()
	if typ == "" {
		return fmt.Errorf("%w: missing type at %d", ErrSyntax, p.pos)
	}

	p.skipSpace()

	label := ""

	if p.pos < len(p.src) && p.src[p.pos] == '"' {
		var err error

		label, err = p.quoted()
		if err != nil {
			return err
		}

		p.skipSpace()
	}

	// The span is patched once the closing paren is known.
	id, err := p.b.Add(parent, typ, label, start, 0)
	if err != nil {
		return err
	}

	for p.pos < len(p.src) && p.src[p.pos] == '(' {
		if err := p.expr(id); err != nil {
			return err
		}

		p.skipSpace()
	}

	if p.pos >= len(p.src) || p.src[p.pos] != ')' {
		return fmt.Errorf("%w: expected ')' at %d", ErrSyntax, p.pos)
	}

	p.pos++
	p.b.nodes[id].length = p.pos - start

	return nil
}

func (p *sexprParser) ident() string {
	start := p.pos

	for p.pos < len(p.src) && !strings.ContainsRune(" \t\r\n()\"", rune(p.src[p.pos])) {
		p.pos++
	}

	return p.src[start:p.pos]
}

func (p *sexprParser) quoted() (string, error) {
	start := p.pos
	p.pos++

	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++

			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return "", fmt.Errorf("%w: bad label at %d: %w", ErrSyntax, start, err)
			}

			return s, nil
		default:
			p.pos++
		}
	}

	return "", fmt.Errorf("%w: unterminated label at %d", ErrSyntax, start)
}

func (p *sexprParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}
