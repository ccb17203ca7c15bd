//go:build oracle
// +build oracle

package extractors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/godror/godror"

	"databrowser/internal/db"
	"databrowser/internal/introspect"
)

// oracleExtractor implements Extractor for Oracle.
type oracleExtractor struct{}

const oracleKeyColumns = `
            SELECT acc.column_name
            FROM all_cons_columns acc
            JOIN all_constraints ac ON acc.owner = ac.owner AND acc.constraint_name = ac.constraint_name
            WHERE ac.constraint_type = :1 AND acc.owner = :2 AND acc.table_name = :3
              AND (SELECT count(*) FROM all_cons_columns c2
                   WHERE c2.owner = acc.owner AND c2.constraint_name = acc.constraint_name) = 1`

// This is the extractor for Oracle
func (oracleExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	var s introspect.Schema

	tr, err := dbConn.QueryContext(ctx, `
	    SELECT
		   ausr.username,
		   atab.table_name,
		   acom.comments
	    FROM all_users ausr
	    JOIN all_tables atab
		  ON ausr.username = atab.owner
	    LEFT JOIN all_tab_comments acom
		  ON acom.owner = atab.owner
		 AND acom.table_name = atab.table_name
	    WHERE ausr.oracle_maintained = 'N'
	    ORDER BY ausr.username, atab.table_name`)
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

	for i := range s.Tables {
		t := &s.Tables[i]
		cr, err := dbConn.QueryContext(ctx, `
            SELECT column_name, data_type, nullable
            FROM all_tab_columns
            WHERE owner = :1 AND table_name = :2
            ORDER BY column_id`, t.Schema, t.Name)
		if err != nil {
			return s, fmt.Errorf("query columns for %s.%s: %w", t.Schema, t.Name, err)
		}
		for cr.Next() {
			var col introspect.Column
			var nullable string
			if err := cr.Scan(&col.Name, &col.Type, &nullable); err != nil {
				cr.Close()
				return s, fmt.Errorf("scan column for %s.%s: %w", t.Schema, t.Name, err)
			}
			col.Nullable = (nullable == "Y")
			t.Columns = append(t.Columns, col)
		}
		cr.Close()

		pkr, err := dbConn.QueryContext(ctx, oracleKeyColumns, "P", t.Schema, t.Name)
		markColumns(pkr, err, t, "primary key", setPK)

		ur, err := dbConn.QueryContext(ctx, oracleKeyColumns, "U", t.Schema, t.Name)
		markColumns(ur, err, t, "unique key", setUnique)
	}

	fkr, err := dbConn.QueryContext(ctx, `
        SELECT a.owner AS from_schema, a.table_name AS from_table,
		       listagg(acc.column_name, ', ') within group (order by acc.position) AS from_column,
               rcc.owner AS to_schema, rcc.table_name AS to_table,
			   listagg(rcc.column_name, ', ') within group (order by rcc.position) AS to_column,
			   a.constraint_name
        FROM all_users ausr
		JOIN all_constraints a
		  ON ausr.username = a.owner
        JOIN all_cons_columns acc
		  ON a.owner = acc.owner
		 AND a.constraint_name = acc.constraint_name
        JOIN all_cons_columns rcc
		  ON a.r_owner = rcc.owner
		 AND a.r_constraint_name = rcc.constraint_name
		 AND nvl(acc.position, 0) = nvl(rcc.position, 0)
        WHERE a.constraint_type = 'R'
		  AND ausr.oracle_maintained = 'N'
		GROUP BY a.owner, a.table_name, rcc.owner, rcc.table_name, a.constraint_name`)
	s.ForeignKeys = scanForeignKeys(fkr, err)
	return s, nil
}

// RegexProbe raises ORA-1272x for a malformed pattern.
func (oracleExtractor) RegexProbe() string {
	return `SELECT 1 FROM dual WHERE REGEXP_LIKE('', :1)`
}

func init() {
	db.Register("godror", oracleExtractor{})
	db.Register("oracle", oracleExtractor{})
}
