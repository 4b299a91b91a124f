// Package report renders a project diff for people and tools: JSON checked
// against an embedded schema, YAML, a summary table and a colored action
// listing.
package report

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/actions"
	"github.com/Sumatoshi-tech/astdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// Report is the serializable form of a project diff.
type Report struct {
	Files        []File        `json:"files"         yaml:"files"`
	MoveDiffs    []File        `json:"move_diffs"    yaml:"move_diffs"`
	Refactorings []Refactoring `json:"refactorings"  yaml:"refactorings"`
	Totals       Totals        `json:"totals"        yaml:"totals"`
}

// File is one file pair with its edit script.
type File struct {
	Src      string         `json:"src"      yaml:"src"`
	Dst      string         `json:"dst"      yaml:"dst"`
	SrcNodes int            `json:"src_nodes" yaml:"src_nodes"`
	DstNodes int            `json:"dst_nodes" yaml:"dst_nodes"`
	Mappings int            `json:"mappings" yaml:"mappings"`
	Counts   map[string]int `json:"counts"   yaml:"counts"`
	Actions  []Action       `json:"actions"  yaml:"actions"`
}

// Action is one edit with its nodes resolved.
type Action struct {
	Kind    string `json:"kind"              yaml:"kind"`
	Node    Node   `json:"node"              yaml:"node"`
	Dst     *Node  `json:"dst,omitempty"     yaml:"dst,omitempty"`
	Parent  *Node  `json:"parent,omitempty"  yaml:"parent,omitempty"`
	Pos     int    `json:"pos"               yaml:"pos"`
	Value   string `json:"value,omitempty"   yaml:"value,omitempty"`
	Group   int    `json:"group,omitempty"   yaml:"group,omitempty"`
	Updated bool   `json:"updated,omitempty" yaml:"updated,omitempty"`
	Path    string `json:"path,omitempty"    yaml:"path,omitempty"`
}

// Node locates a syntax node.
type Node struct {
	Type   string `json:"type"            yaml:"type"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	Start  int    `json:"start"           yaml:"start"`
	Length int    `json:"length"          yaml:"length"`
}

// Refactoring names one detected refactoring.
type Refactoring struct {
	Type   string `json:"type"   yaml:"type"`
	Before int    `json:"before" yaml:"before"`
	After  int    `json:"after"  yaml:"after"`
}

// Totals sums the file reports.
type Totals struct {
	Files    int            `json:"files"    yaml:"files"`
	Mappings int            `json:"mappings" yaml:"mappings"`
	Actions  int            `json:"actions"  yaml:"actions"`
	Counts   map[string]int `json:"counts"   yaml:"counts"`
}

// New builds the report of pd.
func New(pd *astdiff.ProjectDiff) *Report {
	r := &Report{
		Files:        []File{},
		MoveDiffs:    []File{},
		Refactorings: []Refactoring{},
		Totals:       Totals{Counts: map[string]int{}},
	}

	if pd == nil {
		return r
	}

	for _, fd := range pd.Diffs() {
		f := file(fd)
		r.Files = append(r.Files, f)
		r.Totals.Files++
		r.Totals.Mappings += f.Mappings
		r.Totals.Actions += len(f.Actions)

		for k, n := range f.Counts {
			r.Totals.Counts[k] += n
		}
	}

	for _, md := range pd.MoveDiffs() {
		r.MoveDiffs = append(r.MoveDiffs, file(md.PairedFileDiff))
	}

	for _, ref := range pd.Refactorings() {
		r.Refactorings = append(r.Refactorings, Refactoring{
			Type:   string(ref.Type),
			Before: len(ref.Before),
			After:  len(ref.After),
		})
	}

	return r
}

func file(fd *astdiff.PairedFileDiff) File {
	f := File{
		Src:      fd.SrcPath,
		Dst:      fd.DstPath,
		SrcNodes: fd.Src.Len(),
		DstNodes: fd.Dst.Len(),
		Mappings: fd.Store.Len(),
		Counts:   map[string]int{},
		Actions:  []Action{},
	}

	for k, n := range fd.Script.Count() {
		f.Counts[k.String()] = n
	}

	for _, a := range fd.Script.Actions() {
		f.Actions = append(f.Actions, action(fd, a))
	}

	return f
}

func action(fd *astdiff.PairedFileDiff, a actions.Action) Action {
	out := Action{
		Kind:    a.Kind.String(),
		Pos:     a.Pos,
		Value:   a.Value,
		Group:   a.Group,
		Updated: a.Updated,
		Path:    a.Path,
	}

	if a.OnSrc() {
		out.Node = node(fd.Src, a.Node)
	} else {
		out.Node = node(fd.Dst, a.Node)
	}

	if a.Dst != tree.Nil {
		n := node(fd.Dst, a.Dst)
		out.Dst = &n
	}

	if a.Parent != tree.Nil {
		n := node(fd.Dst, a.Parent)
		out.Parent = &n
	}

	return out
}

func node(t *tree.Tree, id tree.ID) Node {
	return Node{Type: t.Type(id), Label: t.Label(id), Start: t.Pos(id), Length: t.Length(id)}
}

// kindOrder returns the action kinds present in counts in declaration order.
func kindOrder(counts map[string]int) []string {
	var out []string

	for _, k := range actions.Kinds() {
		if counts[k.String()] > 0 {
			out = append(out, k.String())
		}
	}

	return out
}
