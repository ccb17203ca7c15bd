package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"databrowser/internal/db"
	"databrowser/internal/introspect"
)

// mssqlExtractor implements Extractor for Microsoft SQL Server. SQL Server
// has no regular expression operator, so it does not implement RegexProber.
type mssqlExtractor struct{}

const mssqlKeyColumns = `
            SELECT k.COLUMN_NAME
            FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS t
            JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k ON t.CONSTRAINT_NAME = k.CONSTRAINT_NAME AND t.TABLE_SCHEMA = k.TABLE_SCHEMA
            WHERE t.CONSTRAINT_TYPE = @kind AND k.TABLE_SCHEMA = @schema AND k.TABLE_NAME = @table`

// This is the extractor for Microsoft SQL Server
func (mssqlExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	var s introspect.Schema

	// list tables with schema
	tr, err := dbConn.QueryContext(ctx, `
        SELECT
          s.name AS schema_name,
          t.name AS table_name,
          CAST(sep.value AS nvarchar(max)) AS comment
        FROM sys.schemas AS s
        JOIN sys.tables AS t
		  ON s.schema_id = t.schema_id
        LEFT JOIN sys.extended_properties AS sep
		  ON t.object_id = sep.major_id
         AND sep.minor_id = 0
         AND sep.name = 'MS_Description'
        ORDER BY s.name, t.name`)
	if err != nil {
		return s, fmt.Errorf("query tables: %w", err)
	}
	defer tr.Close()

	for tr.Next() {
		var tab introspect.Table
		if err := tr.Scan(&tab.Schema, &tab.Name, &tab.Comment); err != nil {
			return s, fmt.Errorf("scan table row: %w", err)
		}
		s.Tables = append(s.Tables, tab)
	}

	// columns and keys for each table
	for i := range s.Tables {
		t := &s.Tables[i]

		cr, err := dbConn.QueryContext(ctx, `
            SELECT COLUMN_NAME, DATA_TYPE, CASE WHEN IS_NULLABLE='YES' THEN 1 ELSE 0 END
            FROM INFORMATION_SCHEMA.COLUMNS
            WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
            ORDER BY ORDINAL_POSITION`, sql.Named("schema", t.Schema), sql.Named("table", t.Name))
		if err != nil {
			return s, fmt.Errorf("query columns for %s.%s: %w", t.Schema, t.Name, err)
		}

		for cr.Next() {
			var col introspect.Column
			var nullableInt int
			if err := cr.Scan(&col.Name, &col.Type, &nullableInt); err != nil {
				cr.Close()
				return s, fmt.Errorf("scan column for %s.%s: %w", t.Schema, t.Name, err)
			}
			col.Nullable = nullableInt == 1
			t.Columns = append(t.Columns, col)
		}
		cr.Close()

		pkr, err := dbConn.QueryContext(ctx, mssqlKeyColumns,
			sql.Named("kind", "PRIMARY KEY"), sql.Named("schema", t.Schema), sql.Named("table", t.Name))
		markColumns(pkr, err, t, "primary key", setPK)

		ur, err := dbConn.QueryContext(ctx, mssqlKeyColumns,
			sql.Named("kind", "UNIQUE"), sql.Named("schema", t.Schema), sql.Named("table", t.Name))
		markColumns(ur, err, t, "unique key", setUnique)
	}

	// foreign keys with schema information
	fkr, err := dbConn.QueryContext(ctx, `
        SELECT
            OBJECT_SCHEMA_NAME(fkc.parent_object_id) AS from_schema,
            OBJECT_NAME(fkc.parent_object_id) AS from_table,
            STRING_AGG(c.NAME, ', ') AS from_column,
            OBJECT_SCHEMA_NAME(fkc.referenced_object_id) AS to_schema,
            OBJECT_NAME(fkc.referenced_object_id) AS to_table,
            STRING_AGG(rc.NAME, ', ') AS to_column,
			fk.name AS constraint_name
        FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
        JOIN sys.columns c ON fkc.parent_object_id = c.object_id AND fkc.parent_column_id = c.column_id
        JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
        GROUP BY fk.name, fkc.parent_object_id, fkc.referenced_object_id`)
	s.ForeignKeys = scanForeignKeys(fkr, err)
	return s, nil
}

func init() {
	db.Register("sqlserver", mssqlExtractor{})
	db.Register("mssql", mssqlExtractor{})
}
