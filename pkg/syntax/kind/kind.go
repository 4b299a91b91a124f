// Package kind lists the Java syntax node types produced by the syntax
// package. Most are tree-sitter grammar names; Modifier, Operator and
// DeclarationKind are synthetic leaves for keywords and operators the grammar
// leaves anonymous.
package kind

// Compilation unit structure.
const (
	Program            = "program"
	PackageDeclaration = "package_declaration"
	ImportDeclaration  = "import_declaration"
	Asterisk           = "asterisk"
	ScopedIdentifier   = "scoped_identifier"
)

// Type declarations.
const (
	ClassDeclaration          = "class_declaration"
	InterfaceDeclaration      = "interface_declaration"
	EnumDeclaration           = "enum_declaration"
	RecordDeclaration         = "record_declaration"
	AnnotationTypeDeclaration = "annotation_type_declaration"
	ClassBody                 = "class_body"
	InterfaceBody             = "interface_body"
	EnumBody                  = "enum_body"
	EnumBodyDeclarations      = "enum_body_declarations"
	EnumConstant              = "enum_constant"
	TypeParameters            = "type_parameters"
	Superclass                = "superclass"
	SuperInterfaces           = "super_interfaces"
	ExtendsInterfaces         = "extends_interfaces"
	TypeList                  = "type_list"
	DeclarationKind           = "declaration_kind"
)

// Members.
const (
	FieldDeclaration       = "field_declaration"
	VariableDeclarator     = "variable_declarator"
	MethodDeclaration      = "method_declaration"
	ConstructorDeclaration = "constructor_declaration"
	FormalParameters       = "formal_parameters"
	FormalParameter        = "formal_parameter"
	Throws                 = "throws"
	Dimensions             = "dimensions"
	ConstructorBody        = "constructor_body"
	StaticInitializer      = "static_initializer"
)

// Modifiers and annotations.
const (
	Modifiers        = "modifiers"
	Modifier         = "modifier"
	Annotation       = "annotation"
	MarkerAnnotation = "marker_annotation"
)

// Statements.
const (
	Block                     = "block"
	ExpressionStatement       = "expression_statement"
	LocalVariableDeclaration  = "local_variable_declaration"
	ReturnStatement           = "return_statement"
	IfStatement               = "if_statement"
	ForStatement              = "for_statement"
	EnhancedForStatement      = "enhanced_for_statement"
	WhileStatement            = "while_statement"
	DoStatement               = "do_statement"
	TryStatement              = "try_statement"
	TryWithResourcesStatement = "try_with_resources_statement"
	CatchClause               = "catch_clause"
	CatchFormalParameter      = "catch_formal_parameter"
	FinallyClause             = "finally_clause"
	ResourceSpecification     = "resource_specification"
	SwitchExpression          = "switch_expression"
	SwitchBlock               = "switch_block"
	SynchronizedStatement     = "synchronized_statement"
	LabeledStatement          = "labeled_statement"
)

// Expressions and leaves.
const (
	Identifier       = "identifier"
	TypeIdentifier   = "type_identifier"
	StringLiteral    = "string_literal"
	CharacterLiteral = "character_literal"
	TextBlock        = "text_block"
	MethodInvocation = "method_invocation"
	ArgumentList     = "argument_list"
	ObjectCreation   = "object_creation_expression"
	TypeArguments    = "type_arguments"
	Operator         = "operator"
	BlockComment     = "block_comment"
	LineComment      = "line_comment"
)

// IsTypeDeclaration reports whether t declares a class-like type.
func IsTypeDeclaration(t string) bool {
	switch t {
	case ClassDeclaration, InterfaceDeclaration, EnumDeclaration, RecordDeclaration, AnnotationTypeDeclaration:
		return true
	default:
		return false
	}
}

// IsOperation reports whether t declares a method or constructor.
func IsOperation(t string) bool {
	return t == MethodDeclaration || t == ConstructorDeclaration
}

// IsBody reports whether t is a nested body whose statements are matched
// on their own.
func IsBody(t string) bool {
	switch t {
	case Block, ConstructorBody, ClassBody, InterfaceBody, EnumBody, SwitchBlock, CatchClause, FinallyClause:
		return true
	default:
		return false
	}
}

// IsComment reports whether t is a comment.
func IsComment(t string) bool {
	return t == BlockComment || t == LineComment
}
