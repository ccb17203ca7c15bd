package views

import (
	"context"
	"fmt"
	"sync"

	"databrowser/internal/logger"
)

// Hook runs after a view is saved.
type Hook func(ctx context.Context, v *View) error

// Hooks runs post-save hooks off the request path. A failing or
// panicking hook is logged and never reaches the caller.
type Hooks struct {
	hooks []Hook
	wg    sync.WaitGroup
}

// Add registers hook.
func (h *Hooks) Add(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// AfterSave starts the hooks for a copy of v and returns immediately.
func (h *Hooks) AfterSave(ctx context.Context, v *View) {
	if len(h.hooks) == 0 {
		return
	}
	saved := *v
	ctx = context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for i, hook := range h.hooks {
			if err := run(ctx, hook, &saved); err != nil {
				logger.Error("view %s: post-save hook %d: %v", saved.ID, i, err)
			}
		}
	}()
}

// Wait blocks until every started hook has finished.
func (h *Hooks) Wait() {
	h.wg.Wait()
}

func run(ctx context.Context, hook Hook, v *View) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook(ctx, v)
}
