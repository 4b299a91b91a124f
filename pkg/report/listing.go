package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// listing colors actions by what they do to the tree.
type listing struct {
	header *color.Color
	add    *color.Color
	remove *color.Color
	change *color.Color
	move   *color.Color
}

func newListing(enabled bool) listing {
	l := listing{
		header: color.New(color.Bold),
		add:    color.New(color.FgGreen),
		remove: color.New(color.FgRed),
		change: color.New(color.FgYellow),
		move:   color.New(color.FgCyan),
	}

	for _, c := range []*color.Color{l.header, l.add, l.remove, l.change, l.move} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return l
}

func (l listing) colorOf(kind string) *color.Color {
	switch kind {
	case "insert-node", "insert-tree", "move-in-tree":
		return l.add
	case "delete-node", "delete-tree", "move-out-tree":
		return l.remove
	case "update-node":
		return l.change
	default:
		return l.move
	}
}

func writeListing(w io.Writer, r *Report, colored bool) error {
	l := newListing(colored)

	sections := []struct {
		files []File
		title string
	}{
		{r.Files, "diff"},
		{r.MoveDiffs, "move"},
	}

	for _, s := range sections {
		for _, f := range s.files {
			if _, err := l.header.Fprintf(w, "%s %s -> %s\n", s.title, f.Src, f.Dst); err != nil {
				return fmt.Errorf("listing write: %w", err)
			}

			for _, a := range f.Actions {
				if _, err := l.colorOf(a.Kind).Fprintln(w, "  "+describe(a)); err != nil {
					return fmt.Errorf("listing write: %w", err)
				}
			}
		}
	}

	return nil
}

// describe renders one action on a single line.
func describe(a Action) string {
	line := fmt.Sprintf("%s %s", a.Kind, describeNode(a.Node))

	switch {
	case a.Kind == "update-node":
		line += fmt.Sprintf(" to %q", a.Value)
	case a.Path != "":
		line += " via " + a.Path
	case a.Group > 0:
		line += fmt.Sprintf(" group %d", a.Group)
	}

	if a.Parent != nil {
		line += fmt.Sprintf(" into %s at %d", describeNode(*a.Parent), a.Pos)
	}

	return line
}

func describeNode(n Node) string {
	if n.Label != "" {
		return fmt.Sprintf("%s %q [%d,%d]", n.Type, n.Label, n.Start, n.Start+n.Length)
	}

	return fmt.Sprintf("%s [%d,%d]", n.Type, n.Start, n.Start+n.Length)
}
