package types

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// RegexMemo remembers patterns that passed validation. It grows without
// bound: patterns are short and validation depends only on their text.
// Rejected patterns are not remembered. Concurrent first validations of
// the same pattern share a single check.
type RegexMemo struct {
	valid  sync.Map
	group  singleflight.Group
	checks atomic.Int64
}

// NewRegexMemo returns an empty memo.
func NewRegexMemo() *RegexMemo {
	return &RegexMemo{}
}

// Validate runs check for pattern unless it already passed.
func (m *RegexMemo) Validate(ctx context.Context, pattern string, check func(context.Context, string) error) error {
	if _, ok := m.valid.Load(pattern); ok {
		return nil
	}
	_, err, _ := m.group.Do(pattern, func() (any, error) {
		if _, ok := m.valid.Load(pattern); ok {
			return nil, nil
		}
		m.checks.Add(1)
		if err := check(ctx, pattern); err != nil {
			return nil, err
		}
		m.valid.Store(pattern, struct{}{})
		return nil, nil
	})
	return err
}

// Checks is the number of checks run so far.
func (m *RegexMemo) Checks() int64 {
	return m.checks.Load()
}

// Known reports whether pattern already passed.
func (m *RegexMemo) Known(pattern string) bool {
	_, ok := m.valid.Load(pattern)
	return ok
}
