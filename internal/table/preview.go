package table

import (
	"io"

	"github.com/nao1215/markdown"
)

// Preview writes the first n rows of t as a Markdown table. Missing cells are
// shown as "NaN".
func Preview(w io.Writer, t *Table, n int) error {
	head := t.Head(n)
	rows := make([][]string, head.Rows())
	for i := range rows {
		rec := make([]string, head.Width())
		for j, c := range head.Row(i) {
			if c.IsMissing() {
				rec[j] = "NaN"
				continue
			}
			rec[j] = c.String()
		}
		rows[i] = rec
	}
	md := markdown.NewMarkdown(w)
	md.Table(markdown.TableSet{Header: head.Names(), Rows: rows})
	return md.Build()
}
