package drive

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// ExtractText returns the plain text of a Google Doc: paragraph text runs
// in document order, including the text inside table cells.
func ExtractText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	writeElements(&b, doc.Body.Content)
	return b.String()
}

func writeElements(b *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeElements(b, cell.Content)
				}
			}
		case el.TableOfContents != nil:
			writeElements(b, el.TableOfContents.Content)
		}
	}
}
