package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when refactoring detection exceeds its deadline.
var ErrTimeout = errors.New("refactoring detection timed out")

// RefactoringType names a refactoring kind.
type RefactoringType string

// Refactoring kinds the matchers project onto tree nodes.
const (
	ExtractOperation             RefactoringType = "Extract Method"
	InlineOperation              RefactoringType = "Inline Method"
	MergeOperation               RefactoringType = "Merge Method"
	SplitOperation               RefactoringType = "Split Method"
	MoveCode                     RefactoringType = "Move Code"
	ParameterizeTest             RefactoringType = "Parameterize Test"
	MoveOperation                RefactoringType = "Move Method"
	MoveAndRenameOperation       RefactoringType = "Move And Rename Method"
	PullUpOperation              RefactoringType = "Pull Up Method"
	PushDownOperation            RefactoringType = "Push Down Method"
	ExtractAndMoveOperation      RefactoringType = "Extract And Move Method"
	MoveAndInlineOperation       RefactoringType = "Move And Inline Method"
	MoveAttribute                RefactoringType = "Move Attribute"
	MoveAndRenameAttribute       RefactoringType = "Move And Rename Attribute"
	PullUpAttribute              RefactoringType = "Pull Up Attribute"
	PushDownAttribute            RefactoringType = "Push Down Attribute"
	MoveClass                    RefactoringType = "Move Class"
	RenameClass                  RefactoringType = "Rename Class"
	ExtractVariable              RefactoringType = "Extract Variable"
	InlineVariable               RefactoringType = "Inline Variable"
	ExtractAttribute             RefactoringType = "Extract Attribute"
	InlineAttribute              RefactoringType = "Inline Attribute"
	MergeVariable                RefactoringType = "Merge Variable"
	MergeParameter               RefactoringType = "Merge Parameter"
	SplitConditional             RefactoringType = "Split Conditional"
	MergeConditional             RefactoringType = "Merge Conditional"
	MergeCatch                   RefactoringType = "Merge Catch"
	RenameVariable               RefactoringType = "Rename Variable"
	RenameParameter              RefactoringType = "Rename Parameter"
	RenameAttribute              RefactoringType = "Rename Attribute"
	ReplaceVariableWithAttribute RefactoringType = "Replace Variable With Attribute"
	ParameterizeVariable         RefactoringType = "Parameterize Variable"
	ParameterizeAttribute        RefactoringType = "Parameterize Attribute"
	LocalizeParameter            RefactoringType = "Localize Parameter"
	ReplaceAnonymousWithClass    RefactoringType = "Replace Anonymous With Class"
)

// Refactoring is one detected refactoring with the already-known before and
// after elements it relates. Fields irrelevant to a type stay empty.
type Refactoring struct {
	Type RefactoringType
	// Before and After hold the declarations involved: variables,
	// parameters, attributes or catch clauses.
	Before []Location
	After  []Location
	// BodyMappers relate operation bodies (extract, inline, move, ...).
	BodyMappers []*BodyMapper
	// Deferred are ambiguous sub-expression or argument correspondences
	// resolved after all structural matching.
	Deferred []*CodeMapping
	// References relate uses of renamed or extracted elements.
	References []*CodeMapping
	// ClassDiff is set for anonymous classes replaced by named ones.
	ClassDiff *ClassDiff
}

// IsMove reports whether the refactoring relocates a whole declaration.
func (r *Refactoring) IsMove() bool {
	switch r.Type {
	case MoveOperation, MoveAndRenameOperation, PullUpOperation, PushDownOperation,
		MoveAttribute, MoveAndRenameAttribute, PullUpAttribute, PushDownAttribute:
		return true
	default:
		return false
	}
}

// RefactoringDetector supplies the refactorings detected between two versions.
type RefactoringDetector interface {
	Refactorings(ctx context.Context) ([]*Refactoring, error)
}

// DetectorFunc adapts a function to RefactoringDetector.
type DetectorFunc func(ctx context.Context) ([]*Refactoring, error)

// Refactorings calls f.
func (f DetectorFunc) Refactorings(ctx context.Context) ([]*Refactoring, error) {
	return f(ctx)
}

// StaticRefactorings is a detector returning a fixed list.
type StaticRefactorings []*Refactoring

// Refactorings returns the list.
func (s StaticRefactorings) Refactorings(ctx context.Context) ([]*Refactoring, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refactorings: %w", err)
	}

	return s, nil
}

// WithTimeout bounds detection by d. Exceeding the deadline yields an error
// wrapping both ErrTimeout and context.DeadlineExceeded.
func WithTimeout(detector RefactoringDetector, d time.Duration) RefactoringDetector {
	return DetectorFunc(func(ctx context.Context) ([]*Refactoring, error) {
		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		refs, err := detector.Refactorings(tctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(tctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, d, err)
			}

			return nil, err
		}

		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, d, tctx.Err())
		}

		return refs, nil
	})
}
