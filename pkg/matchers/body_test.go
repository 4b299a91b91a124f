package matchers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astdiff/pkg/matchers"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

const anonymousBefore = `(program
	(class_declaration (identifier "A")
		(class_body
			(method_declaration (void_type "void") (identifier "run") (formal_parameters)
				(block
					(expression_statement
						(object_creation_expression (type_identifier "R") (argument_list)
							(class_body
								(field_declaration (integral_type "int") (variable_declarator (identifier "n")))
								(method_declaration (void_type "void") (identifier "go") (formal_parameters)
									(block (return_statement)))))))))))`

const anonymousAfter = `(program
	(class_declaration (identifier "A")
		(class_body
			(method_declaration (void_type "void") (identifier "run") (formal_parameters)
				(block
					(expression_statement
						(object_creation_expression (type_identifier "R") (argument_list)
							(class_body
								(field_declaration (integral_type "long") (variable_declarator (identifier "n")))
								(method_declaration (void_type "void") (identifier "start") (formal_parameters)
									(block (return_statement)))))))))))`

func TestBodyMapperMatcher_AnonymousClasses(t *testing.T) {
	t.Parallel()

	f := fixtureOf(anonymousBefore, anonymousAfter)
	srcGo := f.src.Parent(find(f.src, "identifier", "go", 0))
	dstStart := f.dst.Parent(find(f.dst, "identifier", "start", 0))

	acd := &model.ClassDiff{
		Kind: model.DiffRename,
		Attributes: []model.AttributePair{{
			Before: &model.Attribute{Name: "n", Location: at(f.src, srcFile, first(f.src, "field_declaration"))},
			After:  &model.Attribute{Name: "n", Location: at(f.dst, dstFile, first(f.dst, "field_declaration"))},
		}},
		Operations: []*model.BodyMapper{{
			Before: &model.Operation{Name: "go", Location: at(f.src, srcFile, srcGo)},
			After:  &model.Operation{Name: "start", Location: at(f.dst, dstFile, dstStart)},
		}},
	}

	bm := &model.BodyMapper{AnonymousClassDiffs: []*model.ClassDiff{acd}}
	matchers.BodyMapperMatcher{Env: f.env, Mapper: bm}.Match(f.src.Root(), f.dst.Root(), f.ms)

	assert.True(t, f.ms.Has(first(f.src, "field_declaration"), first(f.dst, "field_declaration")))
	assert.True(t, f.ms.Has(find(f.src, "integral_type", "int", 0), find(f.dst, "integral_type", "long", 0)))
	assert.True(t, f.ms.Has(srcGo, dstStart))
	assert.True(t, f.ms.Has(find(f.src, "identifier", "go", 0), find(f.dst, "identifier", "start", 0)))
	assert.False(t, f.ms.IsSrcMapped(first(f.src, "method_declaration")))
	require.NoError(t, f.ms.Check())
}

const commentsBefore = `(program
	(class_declaration (identifier "A")
		(class_body
			(block_comment "/** Sums. */")
			(method_declaration (integral_type "int") (identifier "m") (formal_parameters)
				(block
					(line_comment "// start")
					(return_statement (identifier "v")))))))`

const commentsAfter = `(program
	(class_declaration (identifier "A")
		(class_body
			(block_comment "/** Sums all. */")
			(method_declaration (integral_type "int") (identifier "sum") (formal_parameters)
				(block
					(line_comment "// begin")
					(return_statement (identifier "v")))))))`

func (f *fixture) commentMapper() *model.BodyMapper {
	return &model.BodyMapper{
		Before: &model.Operation{Name: "m", Location: at(f.src, srcFile, first(f.src, "method_declaration"))},
		After:  &model.Operation{Name: "sum", Location: at(f.dst, dstFile, first(f.dst, "method_declaration"))},
		Comments: []model.CommentPair{{
			Before: at(f.src, srcFile, first(f.src, "line_comment")),
			After:  at(f.dst, dstFile, first(f.dst, "line_comment")),
		}},
	}
}

func TestBodyMapperMatcher_Comments(t *testing.T) {
	t.Parallel()

	f := fixtureOf(commentsBefore, commentsAfter)
	matchers.BodyMapperMatcher{Env: f.env, Mapper: f.commentMapper()}.Match(f.src.Root(), f.dst.Root(), f.ms)

	assert.True(t, f.ms.Has(first(f.src, "line_comment"), first(f.dst, "line_comment")))
	assert.False(t, f.ms.IsSrcMapped(first(f.src, "block_comment")))
}

func TestBodyMapperMatcher_ExtractedJavadoc(t *testing.T) {
	t.Parallel()

	t.Run("extracted", func(t *testing.T) {
		t.Parallel()

		f := fixtureOf(commentsBefore, commentsAfter)
		matchers.BodyMapperMatcher{Env: f.env, Mapper: f.commentMapper(), Extracted: true}.Match(f.src.Root(), f.dst.Root(), f.ms)

		assert.True(t, f.ms.Has(first(f.src, "block_comment"), first(f.dst, "block_comment")))
	})

	t.Run("not_extracted", func(t *testing.T) {
		t.Parallel()

		f := fixtureOf(commentsBefore, commentsAfter)
		matchers.BodyMapperMatcher{Env: f.env, Mapper: f.commentMapper()}.Match(f.src.Root(), f.dst.Root(), f.ms)

		assert.False(t, f.ms.IsSrcMapped(first(f.src, "block_comment")))
	})
}

func TestCommentMatcher(t *testing.T) {
	t.Parallel()

	f := fixtureOf(commentsBefore, commentsAfter)
	pairs := []model.CommentPair{
		{
			Before: at(f.src, srcFile, first(f.src, "return_statement")),
			After:  at(f.dst, dstFile, first(f.dst, "return_statement")),
		},
		{
			Before: model.Location{FilePath: "other.java", Start: f.src.Pos(first(f.src, "block_comment")), Length: f.src.Length(first(f.src, "block_comment"))},
			After:  at(f.dst, dstFile, first(f.dst, "block_comment")),
		},
		{
			Before: at(f.src, srcFile, first(f.src, "line_comment")),
			After:  at(f.dst, dstFile, first(f.dst, "line_comment")),
		},
	}

	matchers.CommentMatcher{Env: f.env, Comments: pairs}.Match(f.src.Root(), f.dst.Root(), f.ms)

	assert.Equal(t, 1, f.ms.Len())
	assert.True(t, f.ms.Has(first(f.src, "line_comment"), first(f.dst, "line_comment")))
}

const extractBefore = `(program
	(class_declaration (identifier "A")
		(class_body
			(method_declaration (void_type "void") (identifier "m") (formal_parameters)
				(block
					(expression_statement (method_invocation (identifier "use") (argument_list (identifier "x")))))))))`

const extractAfter = `(program
	(class_declaration (identifier "A")
		(class_body
			(method_declaration (void_type "void") (identifier "m") (formal_parameters)
				(block
					(local_variable_declaration (integral_type "int") (variable_declarator (identifier "x") (identifier "k")))
					(expression_statement (method_invocation (identifier "use") (argument_list (identifier "x")))))))))`

func (f *fixture) extractMapping() *model.CodeMapping {
	ref := find(f.dst, "identifier", "x", 1)

	return &model.CodeMapping{
		Before: model.Fragment{Location: at(f.src, srcFile, first(f.src, "expression_statement"))},
		After:  model.Fragment{Location: at(f.dst, dstFile, first(f.dst, "expression_statement"))},
		ExtractedVariables: []model.ExtractedVariable{{
			Name:       "x",
			References: []model.Location{at(f.dst, dstFile, ref)},
		}},
	}
}

func TestBodyMapperMatcher_ExtractedVariableReference(t *testing.T) {
	t.Parallel()

	t.Run("reference_unmapped", func(t *testing.T) {
		t.Parallel()

		f := fixtureOf(extractBefore, extractAfter)
		bm := &model.BodyMapper{Mappings: []*model.CodeMapping{f.extractMapping()}}

		matchers.BodyMapperMatcher{Env: f.env, Mapper: bm}.Match(f.src.Root(), f.dst.Root(), f.ms)

		assert.True(t, f.ms.Has(first(f.src, "expression_statement"), first(f.dst, "expression_statement")))
		assert.True(t, f.ms.Has(find(f.src, "identifier", "use", 0), find(f.dst, "identifier", "use", 0)))
		assert.False(t, f.ms.IsDstMapped(find(f.dst, "identifier", "x", 1)))
	})

	t.Run("multi_mapped_reference_kept", func(t *testing.T) {
		t.Parallel()

		f := fixtureOf(extractBefore, extractAfter)
		ref := find(f.dst, "identifier", "x", 1)
		f.ms.Add(find(f.src, "identifier", "use", 0), ref)

		bm := &model.BodyMapper{Mappings: []*model.CodeMapping{f.extractMapping()}}
		matchers.BodyMapperMatcher{Env: f.env, Mapper: bm}.Match(f.src.Root(), f.dst.Root(), f.ms)

		assert.True(t, f.ms.Has(find(f.src, "identifier", "x", 0), ref))
		assert.True(t, f.ms.IsDstMultiMapped(ref))
	})
}

func TestBodyMapperMatcher_DefersInitializer(t *testing.T) {
	t.Parallel()

	f := newFixture()
	decl := first(f.src, "local_variable_declaration")
	literal := f.src.DescendantByType(decl, "decimal_integer_literal")
	init := &model.Fragment{Location: at(f.src, srcFile, literal), Expression: true, Text: "1"}

	inlined := func(after string) *model.CodeMapping {
		return &model.CodeMapping{
			Before: model.Fragment{
				Location:     at(f.src, srcFile, decl),
				Text:         "int v = 1;",
				Declarations: []model.VariableDeclaration{{Name: "v", Initializer: init}},
			},
			After: model.Fragment{Location: at(f.dst, dstFile, first(f.dst, "return_statement")), Text: after},
		}
	}

	cases := []struct {
		name  string
		cm    *model.CodeMapping
		queue int
	}{
		{name: "initializer_inlined", cm: inlined("return 1;"), queue: 1},
		{name: "initializer_absent", cm: inlined("return w;")},
		{name: "declared_both_sides", cm: func() *model.CodeMapping {
			cm := inlined("int w = 1;")
			cm.After.Declarations = []model.VariableDeclaration{{Name: "w"}}

			return cm
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := newFixture()
			bm := &model.BodyMapper{Mappings: []*model.CodeMapping{tc.cm}}

			matchers.BodyMapperMatcher{Env: g.env, Mapper: bm}.Match(tree.Nil, tree.Nil, g.ms)

			last := g.env.Scratch.LastStep()
			require.Len(t, last, tc.queue)

			if tc.queue > 0 {
				assert.Equal(t, init.Location, last[0].Before.Location)
				assert.Equal(t, tc.cm.After.Location, last[0].After.Location)
			}
		})
	}

	t.Run("extracted_initializer", func(t *testing.T) {
		t.Parallel()

		g := newFixture()
		dstDecl := first(g.dst, "local_variable_declaration")
		dstInit := &model.Fragment{
			Location: at(g.dst, dstFile, g.dst.DescendantByType(dstDecl, "decimal_integer_literal")),
			Text:     "1",
		}
		cm := &model.CodeMapping{
			Before: model.Fragment{Location: at(g.src, srcFile, first(g.src, "return_statement")), Text: "return 1;"},
			After: model.Fragment{
				Location:     at(g.dst, dstFile, dstDecl),
				Text:         "int w = 1;",
				Declarations: []model.VariableDeclaration{{Name: "w", Initializer: dstInit}},
			},
		}

		matchers.BodyMapperMatcher{Env: g.env, Mapper: &model.BodyMapper{Mappings: []*model.CodeMapping{cm}}}.Match(tree.Nil, tree.Nil, g.ms)

		last := g.env.Scratch.LastStep()
		require.Len(t, last, 1)
		assert.Equal(t, cm.Before.Location, last[0].Before.Location)
		assert.Equal(t, dstInit.Location, last[0].After.Location)
	})
}
