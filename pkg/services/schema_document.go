package services

import (
	"strings"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

// columnListHeader introduces the column lines of a table document.
const columnListHeader = "字段列表:"

// DocumentName returns the knowledge document name for a table:
// "{comment}({table})".
func DocumentName(t datasource.TableSchema) string {
	return t.Comment + "(" + t.TableName + ")"
}

// DocumentText renders a table as a header line, the column list header, one
// "name|type|comment" line per column and a trailing blank line.
func DocumentText(t datasource.TableSchema) string {
	var b strings.Builder
	b.WriteString(t.TableName)
	b.WriteString(":")
	b.WriteString(t.Comment)
	b.WriteString("\n")
	b.WriteString(columnListHeader)
	b.WriteString("\n")
	for _, col := range t.Columns {
		b.WriteString(col.Name)
		b.WriteString("|")
		b.WriteString(col.Type)
		b.WriteString("|")
		b.WriteString(col.Comment)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
