package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"databrowser/internal/introspect"
)

var testdialect string = "testdialect"

type testExtractor struct{}

func (testExtractor) Extract(ctx context.Context, dbConn *sql.DB) (introspect.Schema, error) {
	var s introspect.Schema
	return s, errors.New("not implemented")
}

func TestRegister(t *testing.T) {
	// tests both Register and RegisteredDialects because they take the same setup

	Register(testdialect, testExtractor{})

	if _, ok := dialects[testdialect]; !ok {
		t.Errorf("\ndialect %v not registered correctly in %v", testdialect, dialects)
	}

	found := false
	for _, d := range RegisteredDialects() {
		if d == testdialect {
			found = true
		}
	}
	if !found {
		t.Errorf("\nRegisteredDialects returned unexpected result %v", RegisteredDialects())
	}
}

func TestConnectAndExtract(t *testing.T) {

	var tests = []struct {
		name          string
		dialect       string
		dsn           string
		timeout       int
		registerFirst bool
		errIsNil      bool
	}{
		{"unregistered dialect", "nosuchdialect", "", 10, false, false},
		{"sqlite with testExtractor", "sqlite", ":memory:", 10, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.registerFirst {
				Register(tt.dialect, testExtractor{})
			}

			_, err := ConnectAndExtract(tt.dialect, tt.dsn, tt.timeout)

			if (err == nil) != tt.errIsNil {
				if tt.errIsNil {
					t.Errorf("\ngot unexpected error: \"%v\"", err)
				} else {
					t.Errorf("\nexpected an error, did not receive one")
				}
			}
		})
	}
}

func TestNewStoreUnknownDialect(t *testing.T) {
	if _, err := NewStore(nil, "nosuchdialect"); err == nil {
		t.Errorf("\nexpected an error, did not receive one")
	}
}
