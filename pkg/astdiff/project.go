package astdiff

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/actions"
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/matchers"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// PairKey identifies a file diff by its before and after paths.
type PairKey struct {
	Src string
	Dst string
}

// PairedFileDiff is the node correspondence and edit script between one
// before file and one after file.
type PairedFileDiff struct {
	SrcPath string
	DstPath string
	Src     *tree.Tree
	Dst     *tree.Tree
	Store   *mapping.MultiStore
	// Script is nil until the edit-script phase ran.
	Script *actions.Script

	scratch *matchers.Scratch
}

func newPairedFileDiff(key PairKey, src, dst *tree.Tree) *PairedFileDiff {
	return &PairedFileDiff{
		SrcPath: key.Src,
		DstPath: key.Dst,
		Src:     src,
		Dst:     dst,
		Store:   mapping.NewMultiStore(src, dst),
		scratch: matchers.NewScratch(src, dst),
	}
}

// Key returns the pair identifying the diff.
func (d *PairedFileDiff) Key() PairKey { return PairKey{Src: d.SrcPath, Dst: d.DstPath} }

// Scratch returns the deferred decisions of the pair.
func (d *PairedFileDiff) Scratch() *matchers.Scratch { return d.scratch }

// Classify groups the script's actions by root node.
func (d *PairedFileDiff) Classify() *actions.RootClassification {
	return actions.Classify(d.Script, d.Src, d.Dst)
}

// MoveDiff relates declarations moved between two files that otherwise do
// not correspond.
type MoveDiff struct {
	*PairedFileDiff

	// Declarations pairs the roots of the moved declarations.
	Declarations []mapping.Pair
	Refactorings []*model.Refactoring
}

// ProjectDiff aggregates the file diffs of two versions of a code base.
type ProjectDiff struct {
	Before *tree.Context
	After  *tree.Context

	diffs        []*PairedFileDiff
	index        map[PairKey]int
	moves        []*MoveDiff
	moveIndex    map[PairKey]int
	refactorings []*model.Refactoring
}

func newProjectDiff(before, after *tree.Context) *ProjectDiff {
	return &ProjectDiff{
		Before:    before,
		After:     after,
		index:     make(map[PairKey]int),
		moveIndex: make(map[PairKey]int),
	}
}

// Diffs returns the file diffs in the order they were created.
func (p *ProjectDiff) Diffs() []*PairedFileDiff {
	return append([]*PairedFileDiff(nil), p.diffs...)
}

// Diff returns the file diff of the pair (src, dst).
func (p *ProjectDiff) Diff(src, dst string) (*PairedFileDiff, bool) {
	i, ok := p.index[PairKey{Src: src, Dst: dst}]
	if !ok {
		return nil, false
	}

	return p.diffs[i], true
}

// MoveDiffs returns the project-wide move diffs in the order they were
// created.
func (p *ProjectDiff) MoveDiffs() []*MoveDiff {
	return append([]*MoveDiff(nil), p.moves...)
}

// Refactorings returns the refactorings the diff was computed from.
func (p *ProjectDiff) Refactorings() []*model.Refactoring { return p.refactorings }

func (p *ProjectDiff) add(d *PairedFileDiff) {
	p.index[d.Key()] = len(p.diffs)
	p.diffs = append(p.diffs, d)
}

func (p *ProjectDiff) addMove(m *MoveDiff) {
	p.moveIndex[m.Key()] = len(p.moves)
	p.moves = append(p.moves, m)
}

func (p *ProjectDiff) move(key PairKey) *MoveDiff {
	if i, ok := p.moveIndex[key]; ok {
		return p.moves[i]
	}

	return nil
}

// bySrc returns the first file diff reading path.
func (p *ProjectDiff) bySrc(path string) *PairedFileDiff {
	for _, d := range p.diffs {
		if d.SrcPath == path {
			return d
		}
	}

	return nil
}

// byDst returns the first file diff writing path.
func (p *ProjectDiff) byDst(path string) *PairedFileDiff {
	for _, d := range p.diffs {
		if d.DstPath == path {
			return d
		}
	}

	return nil
}

// Mappings returns the number of node mappings across file diffs.
func (p *ProjectDiff) Mappings() int {
	n := 0
	for _, d := range p.diffs {
		n += d.Store.Len()
	}

	return n
}

// ActionCounts returns the number of actions per kind across file and move
// diffs.
func (p *ProjectDiff) ActionCounts() map[actions.Kind]int {
	out := make(map[actions.Kind]int)

	count := func(s *actions.Script) {
		for k, n := range s.Count() {
			out[k] += n
		}
	}

	for _, d := range p.diffs {
		count(d.Script)
	}

	for _, m := range p.moves {
		count(m.Script)
	}

	return out
}
