package extractors

import (
	"database/sql"

	"databrowser/internal/introspect"
	"databrowser/internal/logger"
)

// markColumns sets a flag on every column of t named by the single-column
// result set rows. Errors are logged, not returned: a table without key
// information is still usable.
func markColumns(rows *sql.Rows, err error, t *introspect.Table, what string, mark func(*introspect.Column)) {
	if err != nil {
		logger.Error("query %s: %v", what, err)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			logger.Error("scan %s: %v", what, err)
			continue
		}
		if col := t.Column(name); col != nil {
			mark(col)
		}
	}
}

// scanForeignKeys reads rows of (from_schema, from_table, from_column,
// to_schema, to_table, to_column, constraint).
func scanForeignKeys(rows *sql.Rows, err error) []introspect.ForeignKey {
	if err != nil {
		logger.Error("query foreign key: %v", err)
		return nil
	}
	defer rows.Close()
	var fks []introspect.ForeignKey
	for rows.Next() {
		var fk introspect.ForeignKey
		if err := rows.Scan(&fk.FromSchema, &fk.FromTable, &fk.FromColumn, &fk.ToSchema, &fk.ToTable, &fk.ToColumn, &fk.Constraint); err != nil {
			logger.Error("scan foreign key: %v", err)
			continue
		}
		fks = append(fks, fk)
	}
	return fks
}

func setPK(c *introspect.Column)     { c.PK = true }
func setUnique(c *introspect.Column) { c.Unique = true }
