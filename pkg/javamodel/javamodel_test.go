package javamodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astdiff/pkg/javamodel"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

func contextOf(files ...string) *tree.Context {
	c := tree.NewContext()

	for i := 0; i+1 < len(files); i += 2 {
		c.Put(files[i], tree.MustParse(files[i+1]))
	}

	return c
}

const counterBefore = `(program
	(package_declaration (scoped_identifier (identifier "p") (identifier "q")))
	(import_declaration (scoped_identifier (identifier "java") (identifier "util")) (asterisk "*"))
	(class_declaration (declaration_kind "class") (identifier "Counter")
		(class_body
			(field_declaration (integral_type "int") (variable_declarator (identifier "count")))
			(method_declaration (integral_type "int") (identifier "bump")
				(formal_parameters (formal_parameter (integral_type "int") (identifier "a")))
				(block
					(local_variable_declaration (integral_type "int")
						(variable_declarator (identifier "y") (decimal_integer_literal "1")))
					(if_statement (parenthesized_expression (identifier "a"))
						(block (expression_statement (update_expression (identifier "y") (operator "++")))))
					(return_statement (identifier "y")))))))`

const counterAfter = `(program
	(package_declaration (scoped_identifier (identifier "p") (identifier "q")))
	(import_declaration (scoped_identifier (identifier "java") (identifier "util")) (asterisk "*"))
	(class_declaration (declaration_kind "class") (identifier "Counter")
		(class_body
			(field_declaration (integral_type "long") (variable_declarator (identifier "count")))
			(method_declaration (integral_type "int") (identifier "bump")
				(formal_parameters (formal_parameter (integral_type "long") (identifier "a")))
				(block
					(local_variable_declaration (integral_type "int")
						(variable_declarator (identifier "y") (decimal_integer_literal "1")))
					(if_statement (parenthesized_expression (identifier "a"))
						(block (expression_statement (update_expression (identifier "y") (operator "--")))))
					(return_statement (identifier "y")))))))`

func TestBuild_CommonClass(t *testing.T) {
	t.Parallel()

	before := contextOf("Counter.java", counterBefore)
	after := contextOf("Counter.java", counterAfter)

	md := javamodel.Builder{}.Build(before, after)

	require.Len(t, md.Common, 1)
	assert.Empty(t, md.Renamed)
	assert.Empty(t, md.Moved)
	assert.Same(t, before, md.Before)
	assert.Same(t, after, md.After)

	cd := md.Common[0]
	assert.Equal(t, model.DiffCommon, cd.Kind)
	assert.Equal(t, "p.q.Counter", cd.Original.Name)
	assert.Equal(t, "Counter.java", cd.SrcPath())
	assert.False(t, cd.Original.Enum)

	src, _ := before.Get("Counter.java")
	assert.Equal(t, kind.ClassDeclaration, src.Type(cd.Original.Location.Find(src, "")))

	t.Run("imports", func(t *testing.T) {
		t.Parallel()

		require.NotNil(t, cd.Imports)
		require.Len(t, cd.Imports.Common, 1)
		assert.Equal(t, "java.util", cd.Imports.Common[0].Before.Name)
		assert.True(t, cd.Imports.Common[0].After.OnDemand)
	})

	t.Run("fields", func(t *testing.T) {
		t.Parallel()

		require.Len(t, cd.Attributes, 1)

		attr := cd.Attributes[0]
		assert.Equal(t, "count", attr.Before.Name)
		assert.Equal(t, model.KindFieldDeclaration, attr.Before.Location.Kind)
		assert.NotEqual(t, tree.Nil, attr.Before.Declarator.Find(src, kind.VariableDeclarator))
	})

	t.Run("operations_pair_by_unique_name", func(t *testing.T) {
		t.Parallel()

		require.Len(t, cd.Operations, 1)
		assert.Equal(t, "bump", cd.Operations[0].Before.Name)
		assert.Equal(t, "bump", cd.Operations[0].After.Name)
	})

	t.Run("statements", func(t *testing.T) {
		t.Parallel()

		mappings := cd.Operations[0].Mappings
		require.Len(t, mappings, 4)

		types := make([]string, 0, len(mappings))
		for _, cm := range mappings {
			types = append(types, src.Type(cm.Before.Location.Find(src, "")))
			assert.Equal(t, model.KindStatement, cm.Before.Location.Kind)
		}

		assert.Equal(t, []string{
			kind.LocalVariableDeclaration,
			kind.IfStatement,
			kind.ExpressionStatement,
			kind.ReturnStatement,
		}, types)
		assert.False(t, mappings[0].Composite)
		assert.True(t, mappings[1].Composite)
	})
}

func TestBuild_RenameInSameFile(t *testing.T) {
	t.Parallel()

	md := javamodel.Builder{}.Build(
		contextOf("A.java", `(program (class_declaration (declaration_kind "class") (identifier "A") (class_body)))`),
		contextOf("A.java", `(program (class_declaration (declaration_kind "class") (identifier "B") (class_body)))`),
	)

	assert.Empty(t, md.Common)
	require.Len(t, md.Renamed, 1)
	assert.Equal(t, model.DiffRename, md.Renamed[0].Kind)
	assert.Equal(t, "A", md.Renamed[0].Original.Name)
	assert.Equal(t, "B", md.Renamed[0].Next.Name)
}

func TestBuild_Move(t *testing.T) {
	t.Parallel()

	t.Run("same_name_other_file", func(t *testing.T) {
		t.Parallel()

		md := javamodel.Builder{}.Build(
			contextOf("a/A.java", `(program (class_declaration (declaration_kind "class") (identifier "A") (class_body)))`),
			contextOf("b/A.java", `(program (class_declaration (declaration_kind "class") (identifier "A") (class_body)))`),
		)

		require.Len(t, md.Moved, 1)
		assert.Equal(t, "a/A.java", md.Moved[0].SrcPath())
		assert.Equal(t, "b/A.java", md.Moved[0].DstPath())
	})

	t.Run("package_change", func(t *testing.T) {
		t.Parallel()

		md := javamodel.Builder{}.Build(
			contextOf("a/A.java", `(program
				(package_declaration (identifier "a"))
				(class_declaration (declaration_kind "class") (identifier "A") (class_body)))`),
			contextOf("b/A.java", `(program
				(package_declaration (identifier "b"))
				(class_declaration (declaration_kind "class") (identifier "A") (class_body)))`),
		)

		assert.Empty(t, md.Renamed)
		require.Len(t, md.Moved, 1)
		assert.Equal(t, "a.A", md.Moved[0].Original.Name)
		assert.Equal(t, "b.A", md.Moved[0].Next.Name)
	})

	t.Run("unmatched_class_is_dropped", func(t *testing.T) {
		t.Parallel()

		md := javamodel.Builder{}.Build(
			contextOf("A.java", `(program (class_declaration (declaration_kind "class") (identifier "A") (class_body)))`),
			contextOf("B.java", `(program (class_declaration (declaration_kind "class") (identifier "B") (class_body)))`),
		)

		assert.Empty(t, md.Common)
		assert.Empty(t, md.Renamed)
		assert.Empty(t, md.Moved)
	})
}

func TestBuild_NestedClasses(t *testing.T) {
	t.Parallel()

	src := `(program (class_declaration (declaration_kind "class") (identifier "Outer")
		(class_body (class_declaration (declaration_kind "class") (identifier "Inner") (class_body)))))`

	md := javamodel.Builder{}.Build(contextOf("O.java", src), contextOf("O.java", src))

	require.Len(t, md.Common, 2)
	assert.Equal(t, "Outer", md.Common[0].Original.Name)
	assert.Equal(t, "Outer.Inner", md.Common[1].Original.Name)
	assert.NotNil(t, md.Common[0].Imports)
	assert.Nil(t, md.Common[1].Imports)
}

func TestBuild_Enum(t *testing.T) {
	t.Parallel()

	src := `(program (enum_declaration (declaration_kind "enum") (identifier "Color")
		(enum_body (enum_constant (identifier "RED")) (enum_constant (identifier "GREEN")))))`
	dst := `(program (enum_declaration (declaration_kind "enum") (identifier "Color")
		(enum_body (enum_constant (identifier "GREEN")) (enum_constant (identifier "BLUE")))))`

	md := javamodel.Builder{}.Build(contextOf("Color.java", src), contextOf("Color.java", dst))

	require.Len(t, md.Common, 1)

	cd := md.Common[0]
	assert.True(t, cd.Original.Enum)
	require.Len(t, cd.EnumConstants, 1)
	assert.Equal(t, "GREEN", cd.EnumConstants[0].Before.Name)
	assert.Equal(t, model.KindEnumConstant, cd.EnumConstants[0].After.Location.Kind)
	assert.True(t, cd.EnumConstants[0].Before.Declarator.IsZero())
}

func TestBuild_OverloadsPairBySignature(t *testing.T) {
	t.Parallel()

	overloads := func(first, second string) string {
		return `(program (class_declaration (declaration_kind "class") (identifier "O") (class_body
			(method_declaration (void_type "void") (identifier "f")
				(formal_parameters (formal_parameter (` + first + `) (identifier "x"))) (block))
			(method_declaration (void_type "void") (identifier "f")
				(formal_parameters (formal_parameter (` + second + `) (identifier "x"))) (block)))))`
	}

	before := contextOf("O.java", overloads(`integral_type "int"`, `type_identifier "String"`))
	after := contextOf("O.java", overloads(`type_identifier "String"`, `integral_type "int"`))

	md := javamodel.Builder{}.Build(before, after)
	require.Len(t, md.Common, 1)

	ops := md.Common[0].Operations
	require.Len(t, ops, 2)

	src, _ := before.Get("O.java")
	dst, _ := after.Get("O.java")

	for _, bm := range ops {
		s := bm.Before.Location.Find(src, kind.MethodDeclaration)
		d := bm.After.Location.Find(dst, kind.MethodDeclaration)

		require.NotEqual(t, tree.Nil, s)
		require.NotEqual(t, tree.Nil, d)
		assert.True(t, src.IsIsomorphic(s, dst, d))
		assert.Empty(t, bm.Mappings)
	}
}

func TestBuild_NamelessDeclarationsSkipped(t *testing.T) {
	t.Parallel()

	// A recovered parse may drop identifiers.
	src := `(program (class_declaration (declaration_kind "class") (identifier "A") (class_body
		(field_declaration (integral_type "int") (variable_declarator (decimal_integer_literal "1")))
		(class_declaration (declaration_kind "class") (class_body
			(class_declaration (declaration_kind "class") (identifier "B") (class_body)))))))`

	var md *model.Diff

	require.NotPanics(t, func() {
		md = javamodel.Builder{}.Build(contextOf("A.java", src), contextOf("A.java", src))
	})

	require.Len(t, md.Common, 1)
	assert.Equal(t, "A", md.Common[0].Original.Name)
	assert.Empty(t, md.Common[0].Attributes)
}

const listenerBefore = `(program
	(class_declaration (identifier "Panel")
		(class_body
			(method_declaration (void_type "void") (identifier "wire") (formal_parameters)
				(block
					(line_comment "// hook up")
					(local_variable_declaration (type_identifier "Runnable")
						(variable_declarator (identifier "r")
							(object_creation_expression (type_identifier "Runnable") (argument_list)
								(class_body
									(field_declaration (integral_type "int") (variable_declarator (identifier "n")))
									(method_declaration (void_type "void") (identifier "run") (formal_parameters)
										(block (line_comment "// tick")))))))
					(line_comment "// old note"))))))`

const listenerAfter = `(program
	(class_declaration (identifier "Panel")
		(class_body
			(method_declaration (void_type "void") (identifier "wire") (formal_parameters)
				(block
					(line_comment "// hook up")
					(local_variable_declaration (type_identifier "Runnable")
						(variable_declarator (identifier "r")
							(object_creation_expression (type_identifier "Runnable") (argument_list)
								(class_body
									(field_declaration (integral_type "long") (variable_declarator (identifier "n")))
									(method_declaration (void_type "void") (identifier "run") (formal_parameters)
										(block (line_comment "// tick")))))))
					(line_comment "// new note"))))))`

func TestBuild_BodyDetails(t *testing.T) {
	t.Parallel()

	md := javamodel.Builder{}.Build(
		contextOf("Panel.java", listenerBefore),
		contextOf("Panel.java", listenerAfter),
	)
	require.Len(t, md.Common, 1)
	require.Len(t, md.Common[0].Operations, 1)

	bm := md.Common[0].Operations[0]

	t.Run("declaration_initializer", func(t *testing.T) {
		t.Parallel()

		require.Len(t, bm.Mappings, 1)

		decls := bm.Mappings[0].Before.Declarations
		require.Len(t, decls, 1)
		assert.Equal(t, "r", decls[0].Name)
		require.NotNil(t, decls[0].Initializer)
		assert.True(t, decls[0].Initializer.Expression)
		assert.Equal(t, model.KindExpression, decls[0].Initializer.Location.Kind)
		assert.Contains(t, bm.Mappings[0].Before.Text, decls[0].Initializer.Text)
	})

	t.Run("anonymous_class", func(t *testing.T) {
		t.Parallel()

		require.Len(t, bm.AnonymousClassDiffs, 1)

		acd := bm.AnonymousClassDiffs[0]
		assert.Equal(t, "Panel$1", acd.Original.Name)
		assert.Nil(t, acd.Imports)
		require.Len(t, acd.Attributes, 1)
		assert.Equal(t, "n", acd.Attributes[0].Before.Name)
		require.Len(t, acd.Operations, 1)
		assert.Equal(t, "run", acd.Operations[0].After.Name)
		assert.Len(t, acd.Operations[0].Comments, 1)
	})

	t.Run("comments", func(t *testing.T) {
		t.Parallel()

		require.Len(t, bm.Comments, 2)

		for _, p := range bm.Comments {
			assert.Equal(t, model.KindComment, p.Before.Kind)
			assert.Equal(t, model.KindComment, p.After.Kind)
		}

		assert.Less(t, bm.Comments[0].Before.Start, bm.Comments[1].Before.Start)
	})
}
