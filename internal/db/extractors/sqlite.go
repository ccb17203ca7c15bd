package extractors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"

	"modernc.org/sqlite"

	"databrowser/internal/db"
	"databrowser/internal/introspect"
	"databrowser/internal/logger"
)

// sqliteExtractor implements Extractor for SQLite.
type sqliteExtractor struct{}

// This is the extractor for SQLite
func (sqliteExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	var s introspect.Schema
	dbName := "main"

	if rows, err := dbConn.QueryContext(ctx, `PRAGMA database_list`); err == nil {
		defer rows.Close()
		var seq int
		var name, file sql.NullString
		if rows.Next() {
			if err := rows.Scan(&seq, &name, &file); err == nil && name.Valid {
				dbName = name.String
			}
		}
	} else {
		logger.Error("database list: %v", err)
	}

	tr, err := dbConn.QueryContext(ctx, `
	    SELECT m.name
		FROM sqlite_master m
		WHERE m.type='table'
		AND m.name NOT LIKE 'sqlite_%'
		ORDER BY m.name`)
	if err != nil {
		return s, fmt.Errorf("query tables: %w", err)
	}
	defer tr.Close()

	for tr.Next() {
		var tab introspect.Table
		if err := tr.Scan(&tab.Name); err != nil {
			return s, fmt.Errorf("scan table row: %w", err)
		}
		s.Tables = append(s.Tables, tab)
	}

	for i := range s.Tables {
		t := &s.Tables[i]
		tiQuery := fmt.Sprintf("PRAGMA %s.table_info('%s')", dbName, t.Name)
		pr, err := dbConn.QueryContext(ctx, tiQuery)
		if err != nil {
			return s, fmt.Errorf("query columns for %s: %w", t.Name, err)
		}
		for pr.Next() {
			var cid int
			var name, ctype string
			var notnull, pk int
			var dflt sql.NullString
			if err := pr.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
				pr.Close()
				return s, fmt.Errorf("scan column for %s: %w", t.Name, err)
			}
			t.Columns = append(t.Columns, introspect.Column{
				Name:     name,
				Type:     ctype,
				Nullable: notnull == 0,
				PK:       pk != 0,
			})
		}
		pr.Close()

		// single-column unique indexes
		ur, err := dbConn.QueryContext(ctx, `
		    SELECT ii.name
		    FROM pragma_index_list(?) il
		    JOIN pragma_index_info(il.name) ii
		    WHERE il."unique" = 1 AND il.origin != 'pk'
		      AND (SELECT count(*) FROM pragma_index_info(il.name)) = 1`, t.Name)
		markColumns(ur, err, t, "unique key", setUnique)

		fkRows, err := dbConn.QueryContext(ctx, `
		    SELECT '', ?, "from", '', "table", coalesce("to", ''), ''
		    FROM pragma_foreign_key_list(?)`, t.Name, t.Name)
		s.ForeignKeys = append(s.ForeignKeys, scanForeignKeys(fkRows, err)...)
	}

	return s, nil
}

// RegexProbe uses the REGEXP operator, backed by the regexp function
// registered in init.
func (sqliteExtractor) RegexProbe() string {
	return `SELECT '' REGEXP ?`
}

// sqliteRegexp implements "X REGEXP Y", which SQLite calls as regexp(Y, X).
func sqliteRegexp(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("regexp: pattern must be text")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	switch v := args[1].(type) {
	case nil:
		return nil, nil
	case string:
		return re.MatchString(v), nil
	case []byte:
		return re.Match(v), nil
	default:
		return re.MatchString(fmt.Sprint(v)), nil
	}
}

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction("regexp", 2, sqliteRegexp); err != nil {
		logger.Error("register sqlite regexp: %v", err)
	}
	db.Register("sqlite3", sqliteExtractor{})
	db.Register("sqlite", sqliteExtractor{})
}
