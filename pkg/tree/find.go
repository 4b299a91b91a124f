package tree

// FindByLocation returns the outermost node whose span is exactly
// [start, start+length). When typ is not empty only nodes of that type match.
// Nil is returned when no node qualifies.
func (t *Tree) FindByLocation(start, length int, typ string) ID {
	if t.Len() == 0 {
		return Nil
	}

	end := start + length
	stack := []ID{t.Root()}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[cur]

		// Subtrees that do not cover the span cannot contain it.
		if n.pos > start || n.pos+n.length < end {
			continue
		}

		if n.pos == start && n.length == length && (typ == "" || n.typ == typ) {
			return cur
		}

		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}

	return Nil
}

// FindContaining returns the innermost node of type typ covering the span.
func (t *Tree) FindContaining(start, length int, typ string) ID {
	found := Nil

	if t.Len() == 0 {
		return found
	}

	end := start + length
	cur := t.Root()

	for cur != Nil {
		n := &t.nodes[cur]
		if n.typ == typ {
			found = cur
		}

		next := Nil

		for _, c := range n.children {
			cn := &t.nodes[c]
			if cn.pos <= start && cn.pos+cn.length >= end {
				next = c

				break
			}
		}

		cur = next
	}

	return found
}

// ChildByType returns the first child of id with the given type.
func (t *Tree) ChildByType(id ID, typ string) ID {
	if !t.Contains(id) {
		return Nil
	}

	for _, c := range t.nodes[id].children {
		if t.nodes[c].typ == typ {
			return c
		}
	}

	return Nil
}

// ChildByTypeAndLabel returns the first child of id matching both type and label.
func (t *Tree) ChildByTypeAndLabel(id ID, typ, label string) ID {
	if !t.Contains(id) {
		return Nil
	}

	for _, c := range t.nodes[id].children {
		if t.nodes[c].typ == typ && t.nodes[c].label == label {
			return c
		}
	}

	return Nil
}

// ChildrenByType returns every child of id with the given type.
func (t *Tree) ChildrenByType(id ID, typ string) []ID {
	if !t.Contains(id) {
		return nil
	}

	var out []ID

	for _, c := range t.nodes[id].children {
		if t.nodes[c].typ == typ {
			out = append(out, c)
		}
	}

	return out
}

// AncestorOfType walks up from id (exclusive) until a node of type typ.
func (t *Tree) AncestorOfType(id ID, typ string) ID {
	if !t.Contains(id) {
		return Nil
	}

	for p := t.nodes[id].parent; p != Nil; p = t.nodes[p].parent {
		if t.nodes[p].typ == typ {
			return p
		}
	}

	return Nil
}

// DescendantByType returns the first node of type typ below id in preorder.
func (t *Tree) DescendantByType(id ID, typ string) ID {
	if !t.Contains(id) {
		return Nil
	}

	for _, d := range t.Descendants(id) {
		if t.nodes[d].typ == typ {
			return d
		}
	}

	return Nil
}
