package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"databrowser/internal/introspect"
	"databrowser/pkg/config"
)

type Extractor interface {

	// Extract takes a database connection and returns its catalog
	Extract(ctx context.Context, db *sql.DB) (introspect.Schema, error)
}

// RegexProber is implemented by extractors whose dialect can evaluate a
// regular expression. The returned statement takes the pattern as its only
// argument and must not write.
type RegexProber interface {
	RegexProbe() string
}

var dialects = map[string]Extractor{}

// Register makes an Extractor available under name.
func Register(name string, e Extractor) {
	dialects[strings.ToLower(name)] = e
}

// listRegistered returns the registered dialect keys (for diagnostics).
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store is an open connection to the reporting database together with the
// dialect extractor that reads its catalog.
type Store struct {
	DB        *sql.DB
	Driver    string
	extractor Extractor
}

// NewStore wraps an already opened connection.
func NewStore(dbConn *sql.DB, driver string) (*Store, error) {
	driver = config.NormalizeDriver(driver)
	extractor, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	return &Store{DB: dbConn, Driver: driver, extractor: extractor}, nil
}

// Open connects to the database and checks it answers within timeoutSec.
func Open(driver, dsn string, timeoutSec int) (*Store, error) {
	driver = config.NormalizeDriver(driver)
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, err
	}
	return NewStore(dbConn, driver)
}

// Extract reads the catalog of the connected database.
func (s *Store) Extract(ctx context.Context) (introspect.Schema, error) {
	return s.extractor.Extract(ctx, s.DB)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// ConnectAndExtract connects to the database and extracts its catalog
func ConnectAndExtract(driver, dsn string, timeoutSec int) (introspect.Schema, error) {
	store, err := Open(driver, dsn, timeoutSec)
	if err != nil {
		return introspect.Schema{}, err
	}
	defer store.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	return store.Extract(ctx)
}

// RegisteredDialects is a helper that allows main to print registered dialects
func RegisteredDialects() []string {
	return listRegistered()
}
