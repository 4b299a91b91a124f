package matchers

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// CommentMatcher maps corresponding comments of two bodies. A pair is mapped
// only when both locations resolve to comments.
type CommentMatcher struct {
	Env      *Env
	Comments []model.CommentPair
}

// Match implements Matcher.
func (m CommentMatcher) Match(_, _ tree.ID, ms *mapping.MultiStore) {
	for _, p := range m.Comments {
		if !m.Env.InPair(p.Before, p.After) {
			continue
		}

		s, d, ok := m.Env.Locate(ms, p.Before, p.After, "")
		if !ok || !kind.IsComment(ms.Src().Type(s)) || !kind.IsComment(ms.Dst().Type(d)) {
			continue
		}

		ms.Add(s, d)
	}
}
