// Package model describes the declaration-level correspondence between two
// versions of a code base: which classes, fields, methods and statements
// correspond, and which refactorings were detected. The AST differ consumes
// these to anchor its node-level matching.
package model

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// ElementKind classifies what a Location points at.
type ElementKind string

// Element kinds the matchers care about.
const (
	KindStringLiteral       ElementKind = "STRING_LITERAL"
	KindStatement           ElementKind = "STATEMENT"
	KindExpression          ElementKind = "EXPRESSION"
	KindClassDeclaration    ElementKind = "TYPE_DECLARATION"
	KindFieldDeclaration    ElementKind = "FIELD_DECLARATION"
	KindEnumConstant        ElementKind = "ENUM_CONSTANT_DECLARATION"
	KindMethodDeclaration   ElementKind = "METHOD_DECLARATION"
	KindVariableDeclaration ElementKind = "VARIABLE_DECLARATION"
	KindImport              ElementKind = "IMPORT_DECLARATION"
	KindComment             ElementKind = "COMMENT"
)

// Location is a byte span inside one file.
type Location struct {
	FilePath string      `json:"file"`
	Start    int         `json:"start"`
	Length   int         `json:"length"`
	Kind     ElementKind `json:"kind,omitempty"`
}

// End returns the exclusive end offset.
func (l Location) End() int { return l.Start + l.Length }

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool { return l.FilePath == "" && l.Length == 0 }

// Find resolves the location in t, optionally restricted to a node type.
func (l Location) Find(t *tree.Tree, typ string) tree.ID {
	if t == nil || l.IsZero() {
		return tree.Nil
	}

	return t.FindByLocation(l.Start, l.Length, typ)
}

// Class describes one class, interface, enum or record declaration.
type Class struct {
	Name       string
	SourceFile string
	Location   Location
	Enum       bool
}

// Attribute is a field or an enum constant.
type Attribute struct {
	Name     string
	Location Location
	// Declarator is the variable declarator inside a field declaration; zero
	// for enum constants.
	Declarator Location
}

// AttributePair links corresponding attributes.
type AttributePair struct {
	Before *Attribute
	After  *Attribute
}

// Operation is a method or constructor.
type Operation struct {
	Name     string
	Location Location
}

// Fragment is one side of a statement or expression correspondence.
type Fragment struct {
	Location   Location
	Expression bool
	// Text is the source text of the fragment.
	Text string
	// Declarations lists the variables the fragment declares.
	Declarations []VariableDeclaration
}

// VariableDeclaration is a variable declared by a statement.
type VariableDeclaration struct {
	Name string
	// Initializer is nil when the variable is declared without a value.
	Initializer *Fragment
}

// ExtractedVariable is a variable introduced by an extract variable
// refactoring on a statement mapping. References are the dst locations that
// use the new variable.
type ExtractedVariable struct {
	Name       string
	References []Location
}

// CommentPair links two corresponding comments.
type CommentPair struct {
	Before Location
	After  Location
}

// CodeMapping links corresponding statements or expressions.
type CodeMapping struct {
	Before    Fragment
	After     Fragment
	Composite bool
	// AdditionallyMatchedBefore and AdditionallyMatchedAfter hold statements
	// absorbed by this mapping (for example a merged declaration).
	AdditionallyMatchedBefore []Location
	AdditionallyMatchedAfter  []Location
	ExtractedVariables        []ExtractedVariable
}

// BodyMapper holds the statement correspondence between two operation bodies.
type BodyMapper struct {
	Before   *Operation
	After    *Operation
	Mappings []*CodeMapping
	// AnonymousClassDiffs relate the anonymous classes declared in the bodies.
	AnonymousClassDiffs []*ClassDiff
	Comments            []CommentPair
}

// Import is one import declaration.
type Import struct {
	Name     string
	OnDemand bool
	Static   bool
	Location Location
}

// ImportPair links two unchanged imports.
type ImportPair struct {
	Before Import
	After  Import
}

// ImportGroup links several single-type imports to one on-demand import
// (grouping) or the reverse (ungrouping).
type ImportGroup struct {
	Before []Import
	After  []Import
}

// ImportDiff summarizes import changes of one class pair.
type ImportDiff struct {
	Common    []ImportPair
	Grouped   []ImportGroup
	Ungrouped []ImportGroup
}

// DiffKind tells how two classes correspond.
type DiffKind int

// Class correspondence kinds.
const (
	DiffCommon DiffKind = iota
	DiffRename
	DiffMove
	DiffInnerMove
	DiffAnonymousToClass
)

// String returns the kind name.
func (k DiffKind) String() string {
	switch k {
	case DiffCommon:
		return "common"
	case DiffRename:
		return "rename"
	case DiffMove:
		return "move"
	case DiffInnerMove:
		return "inner-move"
	case DiffAnonymousToClass:
		return "anonymous-to-class"
	default:
		return "unknown"
	}
}

// ClassDiff is one class-level correspondence.
type ClassDiff struct {
	Kind          DiffKind
	Original      *Class
	Next          *Class
	Imports       *ImportDiff
	Attributes    []AttributePair
	EnumConstants []AttributePair
	Operations    []*BodyMapper
}

// IsBase reports whether the diff relates two named top-level or inner
// classes, as opposed to an anonymous class extracted into a named one.
func (cd *ClassDiff) IsBase() bool {
	return cd.Kind != DiffAnonymousToClass
}

// SrcPath returns the file of the original class.
func (cd *ClassDiff) SrcPath() string { return cd.Original.SourceFile }

// DstPath returns the file of the next class.
func (cd *ClassDiff) DstPath() string { return cd.Next.SourceFile }

// Diff is the complete model-level comparison of two versions.
type Diff struct {
	Common     []*ClassDiff
	Renamed    []*ClassDiff
	Moved      []*ClassDiff
	InnerMoved []*ClassDiff
	Before     *tree.Context
	After      *tree.Context
	Detector   RefactoringDetector
}
