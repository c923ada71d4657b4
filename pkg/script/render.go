package script

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/bpowers/mathquill/pkg/tree"
)

// render writes one line per root: the node name followed by its children
// in parentheses, recursively, e.g. "P(A D(E) B)".
func (run *runner) render() string {
	roots := run.roots()
	lines := make([]string, 0, len(roots))

	for _, root := range roots {
		var buf strings.Builder

		run.renderNode(&buf, root)
		lines = append(lines, buf.String())
	}

	return strings.Join(lines, "\n")
}

func (run *runner) renderNode(buf *strings.Builder, id tree.NodeID) {
	buf.WriteString(run.name(id))

	if run.arena.IsEmpty(id) {
		return
	}

	children, err := run.arena.Children(id)
	if err != nil {
		return
	}

	buf.WriteByte('(')

	sep := ""
	for child := range children.Each() {
		buf.WriteString(sep)
		run.renderNode(buf, child)

		sep = " "
	}

	buf.WriteByte(')')
}

func (run *runner) records() []NodeRecord {
	records := make([]NodeRecord, 0, len(run.order))

	for _, name := range run.order {
		id := run.ids[name]

		nd, err := run.arena.Lookup(id)
		if err != nil {
			continue
		}

		records = append(records, NodeRecord{
			Name:   name,
			ID:     uint32(id),
			Kind:   string(nd.Kind),
			Parent: run.name(nd.Parent),
			Left:   run.name(nd.Left()),
			Right:  run.name(nd.Right()),
			First:  run.name(nd.Ends[tree.Left]),
			Last:   run.name(nd.Ends[tree.Right]),
		})
	}

	return records
}

// RenderTable formats node records as a table.
func RenderTable(records []NodeRecord) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Name", "ID", "Kind", "Parent", "Left", "Right", "First", "Last"})

	for _, rec := range records {
		tbl.AppendRow(table.Row{
			rec.Name, strconv.FormatUint(uint64(rec.ID), 10), rec.Kind,
			rec.Parent, rec.Left, rec.Right, rec.First, rec.Last,
		})
	}

	tbl.AppendFooter(table.Row{"Total", len(records)})

	return tbl.Render()
}

// Diff returns a line diff from want to got, one line per entry, prefixed
// with "-" for lines only in want, "+" for lines only in got and " " for
// lines in both. It returns "" when the texts are equal.
func Diff(want, got string) string {
	if want == got {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToChars(ensureNewline(want), ensureNewline(got))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lines)

	var buf strings.Builder

	for _, diff := range diffs {
		prefix := " "

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}

			buf.WriteString(prefix)
			buf.WriteString(line)
		}
	}

	return buf.String()
}

func ensureNewline(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}

	return text + "\n"
}
