// Package javamodel derives a declaration-level model diff from two sets of
// parsed Java files. Classes, fields and operations pair by name; statements
// of paired operations align on their content. It detects no refactorings:
// the resulting diff carries none.
package javamodel

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/zeebo/xxh3"

	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// Builder pairs the declarations of two versions.
type Builder struct {
	// Logger receives unpaired declarations at debug level. Nil discards.
	Logger *slog.Logger
}

// typeDecl is one class-like declaration found in a file.
type typeDecl struct {
	name  string
	short string
	path  string
	t     *tree.Tree
	id    tree.ID
	inner bool
}

// Build returns the model diff of before and after.
func (b Builder) Build(before, after *tree.Context) *model.Diff {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	md := &model.Diff{Before: before, After: after}

	olds, news := collect(before), collect(after)
	newByName := make(map[string]*typeDecl, len(news))

	for _, d := range news {
		newByName[d.name] = d
	}

	paired := make(map[*typeDecl]bool)

	var unpairedOld []*typeDecl

	for _, o := range olds {
		n, ok := newByName[o.name]
		if !ok || paired[n] {
			unpairedOld = append(unpairedOld, o)

			continue
		}

		paired[o], paired[n] = true, true

		switch {
		case o.path == n.path:
			md.Common = append(md.Common, classDiff(model.DiffCommon, o, n))
		case o.inner || n.inner:
			md.InnerMoved = append(md.InnerMoved, classDiff(model.DiffInnerMove, o, n))
		default:
			md.Moved = append(md.Moved, classDiff(model.DiffMove, o, n))
		}
	}

	var unpairedNew []*typeDecl

	for _, n := range news {
		if !paired[n] {
			unpairedNew = append(unpairedNew, n)
		}
	}

	for _, o := range unpairedOld {
		n := renameTarget(o, unpairedOld, unpairedNew, paired)
		if n == nil {
			logger.Debug("class without counterpart", "class", o.name, "file", o.path)

			continue
		}

		paired[o], paired[n] = true, true

		if o.short == n.short {
			md.Moved = append(md.Moved, classDiff(model.DiffMove, o, n))
		} else {
			md.Renamed = append(md.Renamed, classDiff(model.DiffRename, o, n))
		}
	}

	return md
}

// renameTarget finds the counterpart of an unpaired class: the only
// unpaired class of the same file when the file holds exactly one on each
// side, else an unpaired class with the same simple name.
func renameTarget(o *typeDecl, olds, news []*typeDecl, paired map[*typeDecl]bool) *typeDecl {
	inFile := func(ds []*typeDecl, path string) []*typeDecl {
		var out []*typeDecl

		for _, d := range ds {
			if d.path == path && !paired[d] {
				out = append(out, d)
			}
		}

		return out
	}

	if cands := inFile(news, o.path); len(cands) == 1 && len(inFile(olds, o.path)) == 1 {
		return cands[0]
	}

	for _, n := range news {
		if !paired[n] && n.short == o.short {
			return n
		}
	}

	return nil
}

// collect lists the type declarations of every file, nested ones included,
// in path order then preorder.
func collect(c *tree.Context) []*typeDecl {
	var out []*typeDecl

	for _, path := range c.Paths() {
		t, _ := c.Get(path)
		if t == nil || t.Len() == 0 {
			continue
		}

		pkg := ""
		if p := t.ChildByType(t.Root(), kind.PackageDeclaration); p != tree.Nil {
			pkg = dotted(t, p)
		}

		for _, id := range t.Preorder(t.Root()) {
			if !kind.IsTypeDeclaration(t.Type(id)) {
				continue
			}

			short := identifierOf(t, id)
			if short == "" {
				continue
			}

			names := []string{short}
			inner := false

			for _, a := range t.Ancestors(id) {
				if kind.IsTypeDeclaration(t.Type(a)) {
					names = append(names, identifierOf(t, a))
					inner = true
				}
			}

			// Declarations nested in a recovered, nameless one cannot be named.
			if slices.Contains(names, "") {
				continue
			}

			if pkg != "" {
				names = append(names, pkg)
			}

			slices.Reverse(names)

			out = append(out, &typeDecl{
				name:  strings.Join(names, "."),
				short: short,
				path:  path,
				t:     t,
				id:    id,
				inner: inner,
			})
		}
	}

	return out
}

// identifierOf returns the label of the identifier child of id, or "" when a
// recovered parse left it out.
func identifierOf(t *tree.Tree, id tree.ID) string {
	ident := t.ChildByType(id, kind.Identifier)
	if ident == tree.Nil {
		return ""
	}

	return t.Label(ident)
}

// dotted joins the identifiers under id with dots.
func dotted(t *tree.Tree, id tree.ID) string {
	var parts []string

	for _, n := range t.Preorder(id) {
		if t.Type(n) == kind.Identifier {
			parts = append(parts, t.Label(n))
		}
	}

	return strings.Join(parts, ".")
}

// text concatenates the labels of the leaves under id.
func text(t *tree.Tree, id tree.ID) string {
	var sb strings.Builder

	for _, n := range t.Preorder(id) {
		if t.IsLeaf(n) {
			sb.WriteString(t.Label(n))
		}
	}

	return sb.String()
}

func location(d *typeDecl, id tree.ID, k model.ElementKind) model.Location {
	return model.Location{FilePath: d.path, Start: d.t.Pos(id), Length: d.t.Length(id), Kind: k}
}

func classDiff(k model.DiffKind, o, n *typeDecl) *model.ClassDiff {
	cd := &model.ClassDiff{
		Kind: k,
		Original: &model.Class{
			Name: o.name, SourceFile: o.path,
			Location: location(o, o.id, model.KindClassDeclaration),
			Enum:     o.t.Type(o.id) == kind.EnumDeclaration,
		},
		Next: &model.Class{
			Name: n.name, SourceFile: n.path,
			Location: location(n, n.id, model.KindClassDeclaration),
			Enum:     n.t.Type(n.id) == kind.EnumDeclaration,
		},
	}

	if !o.inner && !n.inner {
		cd.Imports = imports(o, n)
	}

	ob, nb := body(o), body(n)
	if ob == tree.Nil || nb == tree.Nil {
		return cd
	}

	cd.Attributes = pairAttributes(o, n, fields(o.t, ob), fields(n.t, nb))
	cd.EnumConstants = pairAttributes(o, n, constants(o.t, ob), constants(n.t, nb))
	cd.Operations = pairOperations(o, n, ob, nb)

	return cd
}

func body(d *typeDecl) tree.ID {
	for _, typ := range []string{kind.ClassBody, kind.InterfaceBody, kind.EnumBody} {
		if b := d.t.ChildByType(d.id, typ); b != tree.Nil {
			return b
		}
	}

	return tree.Nil
}

// members returns the direct members of a body, looking through the
// declarations section of an enum body.
func members(t *tree.Tree, b tree.ID) []tree.ID {
	var out []tree.ID

	for _, c := range t.Children(b) {
		if t.Type(c) == kind.EnumBodyDeclarations {
			out = append(out, t.Children(c)...)

			continue
		}

		out = append(out, c)
	}

	return out
}

// named is a member keyed by the name it pairs on.
type named struct {
	key        string
	id         tree.ID
	declarator tree.ID
}

func fields(t *tree.Tree, b tree.ID) []named {
	var out []named

	for _, c := range members(t, b) {
		if t.Type(c) != kind.FieldDeclaration {
			continue
		}

		v := t.ChildByType(c, kind.VariableDeclarator)
		if v == tree.Nil {
			continue
		}

		key := identifierOf(t, v)
		if key == "" {
			continue
		}

		out = append(out, named{key: key, id: c, declarator: v})
	}

	return out
}

func constants(t *tree.Tree, b tree.ID) []named {
	var out []named

	for _, c := range t.ChildrenByType(b, kind.EnumConstant) {
		key := identifierOf(t, c)
		if key == "" {
			continue
		}

		out = append(out, named{key: key, id: c, declarator: tree.Nil})
	}

	return out
}

func pairAttributes(o, n *typeDecl, before, after []named) []model.AttributePair {
	var out []model.AttributePair

	for _, b := range before {
		for _, a := range after {
			if a.key != b.key {
				continue
			}

			out = append(out, model.AttributePair{
				Before: attribute(o, b),
				After:  attribute(n, a),
			})

			break
		}
	}

	return out
}

func attribute(d *typeDecl, m named) *model.Attribute {
	attr := &model.Attribute{Name: m.key, Location: location(d, m.id, model.KindFieldDeclaration)}

	if m.declarator != tree.Nil {
		attr.Declarator = location(d, m.declarator, model.KindVariableDeclaration)
	} else {
		attr.Location.Kind = model.KindEnumConstant
	}

	return attr
}

func imports(o, n *typeDecl) *model.ImportDiff {
	ot, nt := o.t, n.t

	var diff model.ImportDiff

	taken := make(map[tree.ID]bool)

	for _, b := range ot.ChildrenByType(ot.Root(), kind.ImportDeclaration) {
		for _, a := range nt.ChildrenByType(nt.Root(), kind.ImportDeclaration) {
			if taken[a] || !ot.IsIsomorphic(b, nt, a) {
				continue
			}

			taken[a] = true
			diff.Common = append(diff.Common, model.ImportPair{
				Before: importOf(o, b),
				After:  importOf(n, a),
			})

			break
		}
	}

	return &diff
}

func importOf(d *typeDecl, id tree.ID) model.Import {
	return model.Import{
		Name:     dotted(d.t, id),
		OnDemand: d.t.ChildByType(id, kind.Asterisk) != tree.Nil,
		Location: location(d, id, model.KindImport),
	}
}

// signature is the name of an operation followed by its parameter types.
func signature(t *tree.Tree, op tree.ID) (string, string) {
	name := identifierOf(t, op)

	var params []string

	if fp := t.ChildByType(op, kind.FormalParameters); fp != tree.Nil {
		for _, p := range t.ChildrenByType(fp, kind.FormalParameter) {
			for _, c := range t.Children(p) {
				if typ := t.Type(c); typ != kind.Modifiers && typ != kind.Identifier {
					params = append(params, text(t, c))

					break
				}
			}
		}
	}

	return name, name + "(" + strings.Join(params, ",") + ")"
}

func operations(t *tree.Tree, b tree.ID) []tree.ID {
	var out []tree.ID

	for _, c := range members(t, b) {
		if kind.IsOperation(t.Type(c)) {
			out = append(out, c)
		}
	}

	return out
}

// pairOperations pairs operations by signature, then the rest by name when
// the name is unique among the leftovers of both sides.
func pairOperations(o, n *typeDecl, ob, nb tree.ID) []*model.BodyMapper {
	before, after := operations(o.t, ob), operations(n.t, nb)
	taken := make(map[tree.ID]bool)
	pairs := make(map[tree.ID]tree.ID)

	for _, b := range before {
		_, bs := signature(o.t, b)

		for _, a := range after {
			if _, as := signature(n.t, a); !taken[a] && as == bs {
				taken[a] = true
				pairs[b] = a

				break
			}
		}
	}

	byName := func(t *tree.Tree, ids []tree.ID, skip func(tree.ID) bool) map[string][]tree.ID {
		out := make(map[string][]tree.ID)

		for _, id := range ids {
			if !skip(id) {
				name, _ := signature(t, id)
				out[name] = append(out[name], id)
			}
		}

		return out
	}

	restBefore := byName(o.t, before, func(id tree.ID) bool { _, ok := pairs[id]; return ok })
	restAfter := byName(n.t, after, func(id tree.ID) bool { return taken[id] })

	for _, b := range before {
		if _, ok := pairs[b]; ok {
			continue
		}

		name, _ := signature(o.t, b)
		if len(restBefore[name]) == 1 && len(restAfter[name]) == 1 {
			pairs[b] = restAfter[name][0]
		}
	}

	var out []*model.BodyMapper

	for _, b := range before {
		a, ok := pairs[b]
		if !ok {
			continue
		}

		bn, _ := signature(o.t, b)
		an, _ := signature(n.t, a)
		bb, ab := opBody(o.t, b), opBody(n.t, a)

		out = append(out, &model.BodyMapper{
			Before:              &model.Operation{Name: bn, Location: location(o, b, model.KindMethodDeclaration)},
			After:               &model.Operation{Name: an, Location: location(n, a, model.KindMethodDeclaration)},
			Mappings:            alignStatements(o, n, bb, ab),
			AnonymousClassDiffs: anonymousDiffs(o, n, bb, ab),
			Comments:            pairComments(o, n, bb, ab),
		})
	}

	return out
}

func opBody(t *tree.Tree, op tree.ID) tree.ID {
	if b := t.ChildByType(op, kind.Block); b != tree.Nil {
		return b
	}

	return t.ChildByType(op, kind.ConstructorBody)
}

var composites = map[string]bool{
	kind.IfStatement:               true,
	kind.ForStatement:              true,
	kind.EnhancedForStatement:      true,
	kind.WhileStatement:            true,
	kind.DoStatement:               true,
	kind.TryStatement:              true,
	kind.TryWithResourcesStatement: true,
	kind.SynchronizedStatement:     true,
	kind.LabeledStatement:          true,
	kind.SwitchExpression:          true,
}

func isStatement(typ string) bool {
	return typ == kind.LocalVariableDeclaration || strings.HasSuffix(typ, "_statement") || composites[typ]
}

// statements flattens the statements under body in preorder. Nested type
// bodies are not entered.
func statements(t *tree.Tree, body tree.ID) []tree.ID {
	if body == tree.Nil {
		return nil
	}

	var out []tree.ID

	var walk func(id tree.ID)
	walk = func(id tree.ID) {
		for _, c := range t.Children(id) {
			typ := t.Type(c)
			if typ == kind.ClassBody {
				continue
			}

			if isStatement(typ) {
				out = append(out, c)
			}

			walk(c)
		}
	}

	walk(body)

	return out
}

// statementKey identifies a statement for alignment: its content for simple
// statements, its header without nested bodies for composite ones.
func statementKey(t *tree.Tree, id tree.ID) string {
	typ := t.Type(id)
	if !composites[typ] {
		return typ + ":" + strconv.FormatUint(t.Hash(id), 16)
	}

	var parts []string

	for _, c := range t.Children(id) {
		if ct := t.Type(c); kind.IsBody(ct) || isStatement(ct) {
			continue
		}

		parts = append(parts, strconv.FormatUint(t.Hash(c), 16))
	}

	return typ + ":" + strconv.FormatUint(xxh3.HashString(strings.Join(parts, ",")), 16)
}

// alignStatements pairs the statements of two bodies. The statement keys
// are diffed as lines: equal runs pair in order, and a deletion directly
// followed by an insertion pairs positionally where the types agree.
func alignStatements(o, n *typeDecl, ob, nb tree.ID) []*model.CodeMapping {
	before, after := statements(o.t, ob), statements(n.t, nb)
	if len(before) == 0 || len(after) == 0 {
		return nil
	}

	keys := func(t *tree.Tree, ids []tree.ID) string {
		var sb strings.Builder

		for _, id := range ids {
			sb.WriteString(statementKey(t, id))
			sb.WriteByte('\n')
		}

		return sb.String()
	}

	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(keys(o.t, before), keys(n.t, after))
	diffs := dmp.DiffMainRunes(src, dst, false)

	var (
		out     []*model.CodeMapping
		bi, ai  int
		deleted []tree.ID
	)

	pair := func(b, a tree.ID) {
		out = append(out, &model.CodeMapping{
			Before:    fragment(o, b),
			After:     fragment(n, a),
			Composite: composites[o.t.Type(b)],
		})
	}

	for _, edit := range diffs {
		size := utf8.RuneCountInString(edit.Text)

		switch edit.Type {
		case diffmatchpatch.DiffEqual:
			for range size {
				pair(before[bi], after[ai])
				bi++
				ai++
			}

			deleted = nil
		case diffmatchpatch.DiffDelete:
			deleted = before[bi : bi+size]
			bi += size
		case diffmatchpatch.DiffInsert:
			for i := 0; i < size && i < len(deleted); i++ {
				if o.t.Type(deleted[i]) == n.t.Type(after[ai+i]) {
					pair(deleted[i], after[ai+i])
				}
			}

			ai += size
			deleted = nil
		}
	}

	return out
}

// fragment describes a statement with the variables it declares.
func fragment(d *typeDecl, id tree.ID) model.Fragment {
	f := model.Fragment{Location: location(d, id, model.KindStatement), Text: text(d.t, id)}
	if d.t.Type(id) != kind.LocalVariableDeclaration {
		return f
	}

	for _, v := range d.t.ChildrenByType(id, kind.VariableDeclarator) {
		vd := model.VariableDeclaration{Name: identifierOf(d.t, v)}

		kids := d.t.Children(v)
		if len(kids) < 2 {
			f.Declarations = append(f.Declarations, vd)

			continue
		}

		if last := kids[len(kids)-1]; d.t.Type(last) != kind.Dimensions {
			vd.Initializer = &model.Fragment{
				Location:   location(d, last, model.KindExpression),
				Expression: true,
				Text:       text(d.t, last),
			}
		}

		f.Declarations = append(f.Declarations, vd)
	}

	return f
}

// anonymousDiffs pairs the anonymous classes of two bodies in order of
// appearance while they instantiate the same type.
func anonymousDiffs(o, n *typeDecl, ob, nb tree.ID) []*model.ClassDiff {
	before, after := anonymous(o, ob), anonymous(n, nb)

	var out []*model.ClassDiff

	for i := range min(len(before), len(after)) {
		if before[i].short != after[i].short {
			break
		}

		out = append(out, classDiff(model.DiffCommon, before[i], after[i]))
	}

	return out
}

// anonymous returns the anonymous classes instantiated in body. Classes
// nested in them belong to their own operations.
func anonymous(d *typeDecl, body tree.ID) []*typeDecl {
	if body == tree.Nil {
		return nil
	}

	var out []*typeDecl

	var walk func(id tree.ID)
	walk = func(id tree.ID) {
		for _, c := range d.t.Children(id) {
			switch d.t.Type(c) {
			case kind.ClassBody:
				continue
			case kind.ObjectCreation:
				if d.t.ChildByType(c, kind.ClassBody) != tree.Nil {
					out = append(out, &typeDecl{
						name:  d.name + "$" + strconv.Itoa(len(out)+1),
						short: creationType(d.t, c),
						path:  d.path,
						t:     d.t,
						id:    c,
						inner: true,
					})
				}
			}

			walk(c)
		}
	}

	walk(body)

	return out
}

// creationType returns the text of the instantiated type of an object
// creation expression.
func creationType(t *tree.Tree, id tree.ID) string {
	for _, c := range t.Children(id) {
		if typ := t.Type(c); typ != kind.ArgumentList && typ != kind.ClassBody && typ != kind.TypeArguments {
			return text(t, c)
		}
	}

	return ""
}

// pairComments pairs the comments of two bodies: equal texts first, then
// the leftovers by position when both sides have as many.
func pairComments(o, n *typeDecl, ob, nb tree.ID) []model.CommentPair {
	before, after := comments(o.t, ob), comments(n.t, nb)
	taken := make(map[tree.ID]bool)

	var (
		out  []model.CommentPair
		rest []tree.ID
	)

	pair := func(b, a tree.ID) {
		taken[a] = true
		out = append(out, model.CommentPair{
			Before: location(o, b, model.KindComment),
			After:  location(n, a, model.KindComment),
		})
	}

	for _, b := range before {
		i := slices.IndexFunc(after, func(a tree.ID) bool { return !taken[a] && o.t.Label(b) == n.t.Label(a) })
		if i < 0 {
			rest = append(rest, b)

			continue
		}

		pair(b, after[i])
	}

	left := slices.DeleteFunc(slices.Clone(after), func(a tree.ID) bool { return taken[a] })
	if len(left) == len(rest) {
		for i := range rest {
			pair(rest[i], left[i])
		}
	}

	return out
}

// comments returns the comments under body in preorder, outside nested
// class bodies.
func comments(t *tree.Tree, body tree.ID) []tree.ID {
	if body == tree.Nil {
		return nil
	}

	var out []tree.ID

	var walk func(id tree.ID)
	walk = func(id tree.ID) {
		for _, c := range t.Children(id) {
			switch typ := t.Type(c); {
			case typ == kind.ClassBody:
				continue
			case kind.IsComment(typ):
				out = append(out, c)
			}

			walk(c)
		}
	}

	walk(body)

	return out
}
