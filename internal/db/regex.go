package db

import (
	"context"
	"errors"
	"fmt"

	"databrowser/internal/logger"
)

// ErrNoRegexProbe is returned by CheckRegex when the dialect cannot
// evaluate regular expressions itself.
var ErrNoRegexProbe = errors.New("dialect has no regex probe")

// CheckRegex asks the database whether it accepts pattern as a regular
// expression. The probe runs inside its own transaction which is always
// rolled back, so a rejected pattern leaves no aborted transaction behind
// on the connection.
func (s *Store) CheckRegex(ctx context.Context, pattern string) error {
	prober, ok := s.extractor.(RegexProber)
	if !ok {
		return ErrNoRegexProbe
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin regex probe: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil {
			logger.Debug("rollback regex probe: %v", err)
		}
	}()

	rows, err := tx.QueryContext(ctx, prober.RegexProbe(), pattern)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// HasRegexProbe reports whether CheckRegex can ask the database at all.
func (s *Store) HasRegexProbe() bool {
	_, ok := s.extractor.(RegexProber)
	return ok
}
