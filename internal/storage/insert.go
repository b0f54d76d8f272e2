package storage

import (
	"fmt"
	"strings"
)

// PlaceholderFn renders the parameter placeholder for 1-based ordinal n:
// "?" for mysql/sqlite, "$n" for postgres, "@pn" for mssql.
type PlaceholderFn func(n int) string

// QuestionPlaceholder is the mysql/sqlite placeholder style.
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder is the postgres placeholder style.
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// AtPlaceholder is the mssql placeholder style.
func AtPlaceholder(n int) string { return fmt.Sprintf("@p%d", n) }

// QuoteIdent double-quotes an identifier (ANSI style, understood by
// postgres, sqlite, and mssql in quoted-identifier mode). MySQL uses
// backticks; see BacktickIdent.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// BacktickIdent backtick-quotes an identifier for MySQL.
func BacktickIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// BuildInsert renders a multi-row INSERT statement for nRows rows of the
// given columns, with flattened row-major parameters.
func BuildInsert(table string, columns []string, nRows int, quote func(string) string, ph PlaceholderFn) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quote(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")

	arg := 1
	for r := 0; r < nRows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ph(arg))
			arg++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Flatten lays the rows out row-major for parameter binding.
func Flatten(rows [][]any) []any {
	if len(rows) == 0 {
		return nil
	}
	out := make([]any, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// StatementChunks splits nRows into runs whose parameter count stays under
// maxParams. Drivers cap the number of bind parameters per statement
// (65535 for postgres and mysql, 32766 for sqlite), so one logical batch may
// need several statements; the loader still wraps them in one transaction.
func StatementChunks(nRows, nCols, maxParams int) []Batch {
	if nCols <= 0 {
		return nil
	}
	perStmt := maxParams / nCols
	if perStmt < 1 {
		perStmt = 1
	}
	return Partition(nRows, perStmt)
}
