// Package syntax builds arena syntax trees from Java source using
// tree-sitter.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/java"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

var (
	errNoRootNode = errors.New("parser returned no root node")
	errPoolType   = errors.New("unexpected parser pool type")
)

// collapsed node types become leaves labeled with their full source text.
var collapsed = map[string]bool{
	kind.StringLiteral:    true,
	kind.CharacterLiteral: true,
	kind.TextBlock:        true,
}

// operatorParents keep their anonymous operator tokens as Operator leaves.
var operatorParents = map[string]bool{
	"binary_expression":     true,
	"assignment_expression": true,
	"unary_expression":      true,
	"update_expression":     true,
}

var declarationKeywords = map[string]bool{
	"class":      true,
	"interface":  true,
	"enum":       true,
	"record":     true,
	"@interface": true,
}

// Parser turns Java source into tree.Tree values. It is safe for concurrent use.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a Java parser.
func NewParser() *Parser {
	lang := sitter.NewLanguage(java.GetLanguage())

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse parses one compilation unit.
func (p *Parser) Parse(ctx context.Context, content []byte) (*tree.Tree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	b := tree.NewBuilder()

	if err := convert(b, tree.Nil, root, content); err != nil {
		return nil, err
	}

	return b.Build(), nil
}

// ParseAll parses every file concurrently and returns them as a context.
// At most workers parsers run at once; zero means unbounded.
func (p *Parser) ParseAll(ctx context.Context, files map[string][]byte, workers int) (*tree.Context, error) {
	var (
		mu  sync.Mutex
		out = tree.NewContext()
	)

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for path, content := range files {
		g.Go(func() error {
			t, err := p.Parse(gctx, content)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			mu.Lock()
			out.Put(path, t)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func convert(b *tree.Builder, parent tree.ID, n sitter.Node, src []byte) error {
	typ := n.Type()
	start, end := int(n.StartByte()), int(n.EndByte())

	if collapsed[typ] || (n.NamedChildCount() == 0 && n.ChildCount() <= 1) {
		_, err := b.Add(parent, typ, text(src, start, end), start, end-start)

		return err
	}

	id, err := b.Add(parent, typ, "", start, end-start)
	if err != nil {
		return err
	}

	for i := range n.ChildCount() {
		child := n.Child(i)
		if child.IsNull() {
			continue
		}

		if child.IsNamed() {
			if err := convert(b, id, child, src); err != nil {
				return err
			}

			continue
		}

		leafType := anonymousLeafType(typ, child.Type())
		if leafType == "" {
			continue
		}

		cs, ce := int(child.StartByte()), int(child.EndByte())
		if _, err := b.Add(id, leafType, text(src, cs, ce), cs, ce-cs); err != nil {
			return err
		}
	}

	return nil
}

func anonymousLeafType(parentType, token string) string {
	switch {
	case parentType == kind.Modifiers:
		return kind.Modifier
	case operatorParents[parentType]:
		return kind.Operator
	case kind.IsTypeDeclaration(parentType) && declarationKeywords[token]:
		return kind.DeclarationKind
	default:
		return ""
	}
}

func text(src []byte, start, end int) string {
	if start < 0 || end > len(src) || start > end {
		return ""
	}

	return string(src[start:end])
}
