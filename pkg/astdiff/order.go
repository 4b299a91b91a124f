package astdiff

import "github.com/Sumatoshi-tech/astdiff/pkg/model"

// withCorrectOrder reorders rename and move diffs so that each diff is
// processed before its later duplicates: for every diff in the original
// order, the first diff with the same class names is moved to the front,
// once.
func withCorrectOrder(diffs []*model.ClassDiff) []*model.ClassDiff {
	result := append([]*model.ClassDiff(nil), diffs...)
	seen := make(map[*model.ClassDiff]bool, len(diffs))

	for _, cd := range diffs {
		found := findDiffWith(result, cd.Original.Name, cd.Next.Name)
		if found < 0 || seen[result[found]] {
			continue
		}

		hit := result[found]
		seen[hit] = true

		copy(result[1:found+1], result[:found])
		result[0] = hit
	}

	return result
}

func findDiffWith(diffs []*model.ClassDiff, original, next string) int {
	for i, cd := range diffs {
		if cd.Original.Name == original && cd.Next.Name == next {
			return i
		}
	}

	return -1
}

// extraDiffs returns the class diffs of anonymous classes replaced by named
// ones.
func extraDiffs(refs []*model.Refactoring) []*model.ClassDiff {
	var out []*model.ClassDiff

	for _, r := range refs {
		if r.Type == model.ReplaceAnonymousWithClass && r.ClassDiff != nil {
			out = append(out, r.ClassDiff)
		}
	}

	return out
}
