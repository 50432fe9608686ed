package docpipe

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/extractlab/tables"
)

const noPageText = "Nenhum texto extraído nesta página."

func writePageHeader(b *strings.Builder, page int) {
	fmt.Fprintf(b, "\n--- Página %d ---\n", page)
}

// tableReport renders the output of the table libraries. withPage adds the
// page number to each table heading.
func tableReport(found []tables.Table, header, withPage bool) (string, []Attachment) {
	var b strings.Builder
	fmt.Fprintf(&b, "Total de tabelas encontradas: %d\n", len(found))
	atts := make([]Attachment, 0, len(found))
	for i := range found {
		t := &found[i]
		caption := fmt.Sprintf("Tabela %d", i+1)
		if withPage {
			caption = fmt.Sprintf("Tabela %d (Página %d)", i+1, t.Page)
		}
		fmt.Fprintf(&b, "\n--- %s ---\n", caption)
		b.WriteString(tables.Render(*t, header))
		b.WriteByte('\n')
		atts = append(atts, Attachment{Kind: AttachTable, Caption: caption + ":", Table: t})
	}
	return b.String(), atts
}
