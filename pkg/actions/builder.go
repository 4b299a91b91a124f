package actions

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// Builder computes the edit script of a many-to-many mapping. The one-to-one
// generator runs on the primary projection of the store; every clone group
// is then reported through MultiMove actions.
type Builder struct {
	// KeepImplied skips the simplification of clone moves.
	KeepImplied bool
}

// Build returns the edit script of ms.
func (b Builder) Build(ms *mapping.MultiStore) *Script {
	src, dst := ms.Src(), ms.Dst()
	primary := ms.Primary()
	script := generate(primary)

	closure := NewMultiMoveBuilder(ms).Closure()
	if len(closure) == 0 {
		return collapse(script, src, dst)
	}

	inSrc := make(map[tree.ID]bool, len(closure))
	inDst := make(map[tree.ID]bool, len(closure))

	for _, a := range closure {
		inSrc[a.Node] = true
		inDst[a.Dst] = true
	}

	// Clone members are moved, not removed or added.
	script.Filter(func(a Action) bool {
		switch a.Kind {
		case Delete:
			return !inSrc[a.Node]
		case Insert:
			return !inDst[a.Node]
		default:
			return true
		}
	})

	script = collapse(script, src, dst)

	if !b.KeepImplied {
		closure = Simplify(closure, src, dst)
	}

	// The primary leg is already a Move or an Update.
	for _, a := range closure {
		if !primary.Has(a.Node, a.Dst) {
			script.Add(a)
		}
	}

	return script
}
