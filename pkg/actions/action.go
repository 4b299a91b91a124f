// Package actions turns a node mapping into an edit script and reduces edit
// scripts to the roots of their change regions.
package actions

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// ErrUnknownKind is returned when decoding an unknown action name.
var ErrUnknownKind = errors.New("unknown action kind")

// Kind enumerates edit actions.
type Kind int

// Action kinds.
const (
	Insert Kind = iota
	Delete
	Update
	Move
	TreeInsert
	TreeDelete
	MultiMove
	MoveIn
	MoveOut
)

var kindNames = [...]string{
	Insert:     "insert-node",
	Delete:     "delete-node",
	Update:     "update-node",
	Move:       "move-tree",
	TreeInsert: "insert-tree",
	TreeDelete: "delete-tree",
	MultiMove:  "multi-move-tree",
	MoveIn:     "move-in-tree",
	MoveOut:    "move-out-tree",
}

// String returns the action name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}

	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)

			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownKind, text)
}

// Kinds lists every action kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range out {
		out[i] = Kind(i)
	}

	return out
}

// Action is one edit. Node lives in the before tree for Delete, TreeDelete,
// Update, Move, MultiMove and MoveOut, and in the after tree for Insert,
// TreeInsert and MoveIn.
type Action struct {
	Kind Kind
	Node tree.ID
	// Dst is the after-tree counterpart of Update, Move and MultiMove.
	Dst tree.ID
	// Parent and Pos place an insertion or a move in the after tree.
	Parent tree.ID
	Pos    int
	// Value is the new label of an Update.
	Value string
	// Group numbers the clone group of a MultiMove, starting at 1.
	Group int
	// Updated marks a MultiMove between two leaves with different content.
	Updated bool
	// Path is the file on the other end of a MoveIn or MoveOut.
	Path string
}

func newAction(kind Kind, node tree.ID) Action {
	return Action{Kind: kind, Node: node, Dst: tree.Nil, Parent: tree.Nil}
}

// NewMoveOut records that the subtree at src left its file for path.
func NewMoveOut(src tree.ID, path string) Action {
	a := newAction(MoveOut, src)
	a.Path = path

	return a
}

// NewMoveIn records that the subtree at dst arrived from path.
func NewMoveIn(dst tree.ID, path string) Action {
	a := newAction(MoveIn, dst)
	a.Path = path

	return a
}

// OnSrc reports whether Node lives in the before tree.
func (a Action) OnSrc() bool {
	switch a.Kind {
	case Insert, TreeInsert, MoveIn:
		return false
	default:
		return true
	}
}

// Script is an ordered edit script.
type Script struct {
	actions []Action
}

// NewScript creates a script holding actions.
func NewScript(actions ...Action) *Script {
	return &Script{actions: append([]Action(nil), actions...)}
}

// Add appends actions.
func (s *Script) Add(actions ...Action) { s.actions = append(s.actions, actions...) }

// Actions returns the actions in order. The slice must not be modified.
func (s *Script) Actions() []Action {
	if s == nil {
		return nil
	}

	return s.actions
}

// Len returns the number of actions.
func (s *Script) Len() int {
	if s == nil {
		return 0
	}

	return len(s.actions)
}

// Of returns the actions of kind k in order.
func (s *Script) Of(k Kind) []Action {
	var out []Action

	for _, a := range s.Actions() {
		if a.Kind == k {
			out = append(out, a)
		}
	}

	return out
}

// Count returns the number of actions per kind.
func (s *Script) Count() map[Kind]int {
	out := make(map[Kind]int)
	for _, a := range s.Actions() {
		out[a.Kind]++
	}

	return out
}

// Filter keeps the actions for which keep returns true.
func (s *Script) Filter(keep func(Action) bool) {
	out := s.actions[:0]

	for _, a := range s.actions {
		if keep(a) {
			out = append(out, a)
		}
	}

	clear(s.actions[len(out):])
	s.actions = out
}

// Replace substitutes the first action matching match with a. It returns
// false when nothing matched.
func (s *Script) Replace(match func(Action) bool, a Action) bool {
	for i := range s.actions {
		if match(s.actions[i]) {
			s.actions[i] = a

			return true
		}
	}

	return false
}
